package resorts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/whosonfirst/go-writer/v3"
)

const INDEX_URI string = "resort_index.json"

// IndexEntry is the catalog summary of a single written bundle.
type IndexEntry struct {
	Id           string           `json:"id"`
	Name         string           `json:"name"`
	Latitude     *float64         `json:"latitude"`
	Longitude    *float64         `json:"longitude"`
	RunCount     int              `json:"runCount"`
	LiftCount    int              `json:"liftCount"`
	Difficulty   map[string]int   `json:"difficulty"`
	Status       json.RawMessage  `json:"status"`
	MaxElevation *json.RawMessage `json:"maxElevation,omitempty"`
	MinElevation *json.RawMessage `json:"minElevation,omitempty"`
}

// DeriveDifficultyBreakdown counts runs by their difficulty label.
func DeriveDifficultyBreakdown(runs []*Feature) map[string]int {

	counts := make(map[string]int)

	for _, f := range runs {
		counts[DeriveDifficulty(f.Body)] += 1
	}

	return counts
}

func NewIndexEntry(r *Resort, runs []*Feature, lifts []*Feature) *IndexEntry {

	e := &IndexEntry{
		Id:         r.Id,
		Name:       r.Name,
		RunCount:   len(runs),
		LiftCount:  len(lifts),
		Difficulty: DeriveDifficultyBreakdown(runs),
		Status:     r.Status,
	}

	if r.Location != nil {
		lat := r.Location.Lat()
		lon := r.Location.Lon()
		e.Latitude = &lat
		e.Longitude = &lon
	}

	if r.Statistics != nil {
		max_el := r.Statistics.MaxElevation
		min_el := r.Statistics.MinElevation
		e.MaxElevation = &max_el
		e.MinElevation = &min_el
	}

	return e
}

// BuildIndex returns one entry per written bundle sorted by (case-insensitive) name.
func BuildIndex(written []*WrittenBundle) []*IndexEntry {

	entries := make([]*IndexEntry, len(written))

	for i, b := range written {
		entries[i] = NewIndexEntry(b.Resort, b.Runs, b.Lifts)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	return entries
}

// WriteIndex writes entries as a compact JSON array to uri, returning the number of bytes written.
func WriteIndex(ctx context.Context, wr writer.Writer, uri string, entries []*IndexEntry) (int64, error) {

	if entries == nil {
		entries = []*IndexEntry{}
	}

	enc, err := marshalCompact(entries)

	if err != nil {
		return 0, fmt.Errorf("Failed to marshal index, %w", err)
	}

	sz, err := wr.Write(ctx, uri, bytes.NewReader(enc))

	if err != nil {
		return 0, fmt.Errorf("Failed to write index to %s, %w", uri, err)
	}

	return sz, nil
}

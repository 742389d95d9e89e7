package resorts

import (
	"encoding/json"
	"log/slog"
	"slices"

	"github.com/paulmach/orb"
	"github.com/tidwall/gjson"
)

const DOWNHILL_ACTIVITY string = "downhill"

// Statistics holds the elevation values of a ski area's "statistics" property, encoded exactly as
// they appear in the source record ("null" when missing).
type Statistics struct {
	MaxElevation json.RawMessage
	MinElevation json.RawMessage
}

type Resort struct {
	Id            string
	Name          string
	Feature       *Feature
	Location      *orb.Point
	Statistics    *Statistics
	Status        json.RawMessage
	Websites      []string
	RunConvention string
}

// Resorts maps resort IDs to their Resort and remembers the order in which IDs were first added.
type Resorts struct {
	ids     []string
	resorts map[string]*Resort
}

func NewResorts() *Resorts {

	r := &Resorts{
		ids:     make([]string, 0),
		resorts: make(map[string]*Resort),
	}

	return r
}

// Add assigns r to its ID. An existing Resort with the same ID is replaced but keeps its position.
func (rs *Resorts) Add(r *Resort) {

	_, exists := rs.resorts[r.Id]

	if !exists {
		rs.ids = append(rs.ids, r.Id)
	}

	rs.resorts[r.Id] = r
}

func (rs *Resorts) Get(id string) (*Resort, bool) {
	r, exists := rs.resorts[id]
	return r, exists
}

func (rs *Resorts) Contains(id string) bool {
	_, exists := rs.resorts[id]
	return exists
}

func (rs *Resorts) Len() int {
	return len(rs.ids)
}

// Ids returns resort IDs in insertion order.
func (rs *Resorts) Ids() []string {
	return slices.Clone(rs.ids)
}

type FilterOptions struct {
	// Activities is the list of activities, any of which qualifies a ski area. Empty means "downhill".
	Activities []string
}

func (opts *FilterOptions) activities() []string {

	if opts == nil || len(opts.Activities) == 0 {
		return []string{DOWNHILL_ACTIVITY}
	}

	return opts.Activities
}

// IsResort reports whether body is a ski area with an ID, a name and at least one of activities.
func IsResort(body []byte, activities ...string) bool {

	_, err := DeriveId(body)

	if err != nil {
		return false
	}

	_, err = DeriveName(body)

	if err != nil {
		return false
	}

	if len(activities) == 0 {
		activities = []string{DOWNHILL_ACTIVITY}
	}

	for _, a := range DeriveActivities(body) {
		if slices.Contains(activities, a) {
			return true
		}
	}

	return false
}

// NewResort derives a Resort from a ski area feature. It does not check whether f qualifies; use IsResort for that.
func NewResort(f *Feature) (*Resort, error) {

	id, err := DeriveId(f.Body)

	if err != nil {
		return nil, err
	}

	name, err := DeriveName(f.Body)

	if err != nil {
		return nil, err
	}

	loc, err := DeriveLocation(f.Body)

	if err != nil {
		slog.Debug("Failed to derive location", "id", id, "error", err)
		loc = nil
	}

	r := &Resort{
		Id:            id,
		Name:          name,
		Feature:       f,
		Location:      loc,
		Statistics:    deriveStatistics(f.Body),
		Status:        deriveStatus(f.Body),
		Websites:      deriveWebsites(f.Body),
		RunConvention: gjson.GetBytes(f.Body, "properties.runConvention").String(),
	}

	return r, nil
}

// FilterResorts returns the features that qualify as resorts, keyed by ID. Features that do not
// qualify are dropped without error. Duplicate IDs replace earlier entries.
func FilterResorts(features []*Feature, opts *FilterOptions) *Resorts {

	activities := opts.activities()
	resorts := NewResorts()

	for _, f := range features {

		if !IsResort(f.Body, activities...) {
			continue
		}

		r, err := NewResort(f)

		if err != nil {
			continue
		}

		resorts.Add(r)
	}

	return resorts
}

func deriveStatistics(body []byte) *Statistics {

	stats_rsp := gjson.GetBytes(body, "properties.statistics")

	if !stats_rsp.IsObject() || len(stats_rsp.Map()) == 0 {
		return nil
	}

	raw := func(path string) json.RawMessage {

		rsp := stats_rsp.Get(path)

		if !rsp.Exists() {
			return json.RawMessage("null")
		}

		return json.RawMessage(rsp.Raw)
	}

	s := &Statistics{
		MaxElevation: raw("maxElevation"),
		MinElevation: raw("minElevation"),
	}

	return s
}

// deriveStatus returns the status property as it appears in the source record, or nil if it is
// missing or null.
func deriveStatus(body []byte) json.RawMessage {

	rsp := gjson.GetBytes(body, "properties.status")

	if !rsp.Exists() || rsp.Type == gjson.Null {
		return nil
	}

	return json.RawMessage(rsp.Raw)
}

func deriveWebsites(body []byte) []string {

	websites := make([]string, 0)

	for _, w := range gjson.GetBytes(body, "properties.websites").Array() {
		websites = append(websites, w.String())
	}

	return websites
}

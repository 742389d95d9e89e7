package resorts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/whosonfirst/go-reader/v2"
	"github.com/whosonfirst/go-writer/v3"
	"golang.org/x/sync/errgroup"
)

const SKI_AREAS string = "ski_areas"
const RUNS string = "runs"
const LIFTS string = "lifts"

// SourceURI returns the key used to read the named source collection.
func SourceURI(name string) string {
	return name + ".geojson"
}

type SplitOptions struct {
	Activities       []string
	CompressionLevel int
	// The key the resort index is written to. Defaults to INDEX_URI.
	IndexURI string
}

type Summary struct {
	Resorts      int
	RunGroups    int
	LiftGroups   int
	OrphanRuns   int
	OrphanLifts  int
	Written      int
	Skipped      int
	IndexEntries int
	IndexSize    int64
	BundleSize   int64
}

// Split reads the ski areas, runs and lifts collections from rd and writes one bundle per resort, and
// then the resort index, to wr. The index is only written if every bundle was written successfully.
func Split(ctx context.Context, rd reader.Reader, wr writer.Writer, opts *SplitOptions) (*Summary, error) {

	if opts == nil {
		opts = &SplitOptions{}
	}

	index_uri := opts.IndexURI

	if index_uri == "" {
		index_uri = INDEX_URI
	}

	summary := &Summary{}

	slog.Info("Parse ski areas")

	areas, err := LoadFeatures(ctx, rd, SourceURI(SKI_AREAS))

	if err != nil {
		return nil, err
	}

	filter_opts := &FilterOptions{
		Activities: opts.Activities,
	}

	resorts := FilterResorts(areas, filter_opts)
	summary.Resorts = resorts.Len()

	slog.Info("Found ski areas", "features", len(areas), "resorts", resorts.Len())

	var runs *Groups
	var lifts *Groups

	g, g_ctx := errgroup.WithContext(ctx)

	g.Go(func() error {

		features, err := LoadFeatures(g_ctx, rd, SourceURI(RUNS))

		if err != nil {
			return err
		}

		runs = GroupByResort(features, resorts)

		slog.Info("Grouped runs", "features", len(features), "resorts", runs.Len(), "orphans", runs.Orphans(), "unreferenced", runs.Unreferenced, "unmatched", runs.Unmatched)
		return nil
	})

	g.Go(func() error {

		features, err := LoadFeatures(g_ctx, rd, SourceURI(LIFTS))

		if err != nil {
			return err
		}

		lifts = GroupByResort(features, resorts)

		slog.Info("Grouped lifts", "features", len(features), "resorts", lifts.Len(), "orphans", lifts.Orphans(), "unreferenced", lifts.Unreferenced, "unmatched", lifts.Unmatched)
		return nil
	})

	err = g.Wait()

	if err != nil {
		return nil, err
	}

	summary.RunGroups = runs.Len()
	summary.LiftGroups = lifts.Len()
	summary.OrphanRuns = runs.Orphans()
	summary.OrphanLifts = lifts.Orphans()

	slog.Info("Write resort bundles")

	write_opts := &WriteBundlesOptions{
		CompressionLevel: opts.CompressionLevel,
	}

	results, err := WriteBundles(ctx, wr, resorts, runs, lifts, write_opts)

	if err != nil {
		return nil, fmt.Errorf("Failed to write bundles, %w", err)
	}

	summary.Written = len(results.Written)
	summary.Skipped = results.Skipped

	for _, b := range results.Written {
		summary.BundleSize += b.Size
	}

	slog.Info("Wrote resort bundles", "written", summary.Written, "skipped", summary.Skipped, "failed", len(results.Failed))

	err = results.Err()

	if err != nil {
		return summary, fmt.Errorf("Failed to write %d bundles, not writing index, %w", len(results.Failed), err)
	}

	entries := BuildIndex(results.Written)

	sz, err := WriteIndex(ctx, wr, index_uri, entries)

	if err != nil {
		return summary, err
	}

	summary.IndexEntries = len(entries)
	summary.IndexSize = sz

	slog.Info("Wrote resort index", "uri", index_uri, "entries", len(entries), "size", sz)

	return summary, nil
}

package split

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/sfomuseum/go-flags/flagset"
	"github.com/sfomuseum/go-ski-resorts"
	"github.com/sfomuseum/go-ski-resorts/download"
	"github.com/whosonfirst/go-reader/v2"
	"github.com/whosonfirst/go-writer/v3"
)

func Run(ctx context.Context) error {
	fs := DefaultFlagSet()
	return RunWithFlagSet(ctx, fs)
}

func RunWithFlagSet(ctx context.Context, fs *flag.FlagSet) error {

	flagset.Parse(fs)

	err := flagset.SetFlagsFromEnvVars(fs, ENV_PREFIX)

	if err != nil {
		return fmt.Errorf("Failed to assign flags from environment variables, %w", err)
	}

	opts, err := RunOptionsFromFlagSet(fs)

	if err != nil {
		return fmt.Errorf("Failed to derive run options, %w", err)
	}

	return RunWithOptions(ctx, opts)
}

func RunWithOptions(ctx context.Context, opts *RunOptions) error {

	if opts.Verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
		slog.Debug("Verbose logging enabled")
	}

	if opts.OutputDir != "" {

		err := os.MkdirAll(opts.OutputDir, 0755)

		if err != nil {
			return fmt.Errorf("Failed to create output directory, %w", err)
		}
	}

	if opts.SkipDownload {
		slog.Info("Skipping downloads")
	} else {

		if opts.DownloadDir == "" {
			return fmt.Errorf("Missing download directory")
		}

		fetch_opts := &download.FetchOptions{
			UserAgent: opts.UserAgent,
		}

		names := []string{
			resorts.SKI_AREAS,
			resorts.RUNS,
			resorts.LIFTS,
		}

		_, err := download.FetchAll(ctx, opts.SourceURLTemplate, names, opts.DownloadDir, fetch_opts)

		if err != nil {
			return fmt.Errorf("Failed to download source data, %w", err)
		}
	}

	rd, err := reader.NewReader(ctx, opts.ReaderURI)

	if err != nil {
		return fmt.Errorf("Failed to create reader, %w", err)
	}

	wr, err := writer.NewWriter(ctx, opts.WriterURI)

	if err != nil {
		return fmt.Errorf("Failed to create writer, %w", err)
	}

	split_opts := &resorts.SplitOptions{
		Activities:       opts.Activities,
		CompressionLevel: opts.CompressionLevel,
		IndexURI:         opts.IndexURI,
	}

	summary, err := resorts.Split(ctx, rd, wr, split_opts)

	if err != nil {
		return fmt.Errorf("Failed to split resorts, %w", err)
	}

	err = wr.Close(ctx)

	if err != nil {
		return fmt.Errorf("Failed to close writer, %w", err)
	}

	slog.Info("Done", "output", opts.WriterURI, "resorts", summary.Written, "skipped", summary.Skipped, "orphan_runs", summary.OrphanRuns, "orphan_lifts", summary.OrphanLifts, "index_size", summary.IndexSize)
	return nil
}

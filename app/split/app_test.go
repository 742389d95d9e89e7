package split

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/sfomuseum/go-ski-resorts"
)

func TestRunOptionsFromFlagSet(t *testing.T) {

	fs := DefaultFlagSet()

	args := []string{
		"-output", "dist",
		"-download-dir", "/tmp/openskidata",
		"-skip-download",
		"-activity", "downhill",
		"-activity", "nordic",
	}

	err := fs.Parse(args)

	if err != nil {
		t.Fatalf("Failed to parse flags, %v", err)
	}

	opts, err := RunOptionsFromFlagSet(fs)

	if err != nil {
		t.Fatalf("Failed to derive run options, %v", err)
	}

	abs_output, _ := filepath.Abs("dist")

	if opts.WriterURI != "fs://"+abs_output {
		t.Fatalf("Unexpected writer URI '%s'", opts.WriterURI)
	}

	if opts.ReaderURI != "fs:///tmp/openskidata" {
		t.Fatalf("Unexpected reader URI '%s'", opts.ReaderURI)
	}

	if !opts.SkipDownload {
		t.Fatalf("Expected skip download to be true")
	}

	if !slices.Equal(opts.Activities, []string{"downhill", "nordic"}) {
		t.Fatalf("Unexpected activities, %v", opts.Activities)
	}

	if opts.IndexURI != resorts.INDEX_URI {
		t.Fatalf("Unexpected index URI '%s'", opts.IndexURI)
	}

	fs = DefaultFlagSet()

	err = fs.Parse([]string{"-compression-level", "12"})

	if err != nil {
		t.Fatalf("Failed to parse flags, %v", err)
	}

	_, err = RunOptionsFromFlagSet(fs)

	if err == nil {
		t.Fatalf("Expected invalid compression level to fail")
	}
}

func TestRunWithOptions(t *testing.T) {

	ctx := context.Background()

	fixtures, err := filepath.Abs("../../fixtures/openskidata")

	if err != nil {
		t.Fatalf("Failed to derive fixtures path, %v", err)
	}

	output := filepath.Join(t.TempDir(), "dist")

	opts := &RunOptions{
		ReaderURI:    "fs://" + fixtures,
		WriterURI:    "fs://" + output,
		OutputDir:    output,
		SkipDownload: true,
	}

	err = RunWithOptions(ctx, opts)

	if err != nil {
		t.Fatalf("Failed to run, %v", err)
	}

	for _, name := range []string{"A1.json.gz", "B2.json.gz", "D7.json.gz", resorts.INDEX_URI} {

		_, err := os.Stat(filepath.Join(output, name))

		if err != nil {
			t.Fatalf("Expected %s to be written, %v", name, err)
		}
	}
}

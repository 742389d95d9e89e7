package split

import (
	"flag"
	"fmt"
	"path/filepath"
)

type RunOptions struct {
	WriterURI         string
	ReaderURI         string
	OutputDir         string
	DownloadDir       string
	SkipDownload      bool
	SourceURLTemplate string
	UserAgent         string
	Activities        []string
	IndexURI          string
	CompressionLevel  int
	Verbose           bool
}

// RunOptionsFromFlagSet derives RunOptions from fs, which is expected to have been parsed already.
func RunOptionsFromFlagSet(fs *flag.FlagSet) (*RunOptions, error) {

	if compression_level < 0 || compression_level > 9 {
		return nil, fmt.Errorf("Invalid -compression-level %d", compression_level)
	}

	opts := &RunOptions{
		WriterURI:         writer_uri,
		ReaderURI:         reader_uri,
		DownloadDir:       download_dir,
		SkipDownload:      skip_download,
		SourceURLTemplate: source_url_template,
		UserAgent:         user_agent,
		Activities:        activities,
		IndexURI:          index_uri,
		CompressionLevel:  compression_level,
		Verbose:           verbose,
	}

	if opts.WriterURI == "" {

		abs_output, err := filepath.Abs(output)

		if err != nil {
			return nil, fmt.Errorf("Failed to derive absolute path for %s, %w", output, err)
		}

		opts.OutputDir = abs_output
		opts.WriterURI = fmt.Sprintf("fs://%s", abs_output)
	}

	if opts.ReaderURI == "" {

		abs_download, err := filepath.Abs(download_dir)

		if err != nil {
			return nil, fmt.Errorf("Failed to derive absolute path for %s, %w", download_dir, err)
		}

		opts.DownloadDir = abs_download
		opts.ReaderURI = fmt.Sprintf("fs://%s", abs_download)
	}

	return opts, nil
}

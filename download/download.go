// Package download retrieves the OpenSkiData GeoJSON exports to a local directory.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/jtacoma/uritemplates"
	"github.com/schollz/progressbar/v3"
)

const DEFAULT_URL_TEMPLATE string = "https://tiles.openskimap.org/geojson/{name}.geojson"

const DEFAULT_USER_AGENT string = "Carvable/1.0"

const DEFAULT_TIMEOUT time.Duration = 600 * time.Second

// ErrIdleTimeout is returned when a request waits longer than FetchOptions.Timeout for data.
var ErrIdleTimeout = errors.New("Idle timeout")

type FetchOptions struct {
	UserAgent string
	// The longest time to wait for response headers, or between two reads of the response body.
	// The download as a whole may take longer.
	Timeout time.Duration
	// Where progress is reported. If nil, progress is written to STDERR.
	Progress io.Writer
	Client   *http.Client
}

// FetchResult describes a single file made available locally.
type FetchResult struct {
	URL     string
	Path    string
	Size    int64
	Skipped bool
	Elapsed time.Duration
}

// SourceURL expands a URI template with a single "name" variable.
func SourceURL(t string, name string) (string, error) {

	if t == "" {
		t = DEFAULT_URL_TEMPLATE
	}

	tpl, err := uritemplates.Parse(t)

	if err != nil {
		return "", fmt.Errorf("Failed to parse URI template, %w", err)
	}

	vars := map[string]interface{}{
		"name": name,
	}

	u, err := tpl.Expand(vars)

	if err != nil {
		return "", fmt.Errorf("Failed to expand URI template, %w", err)
	}

	return u, nil
}

// Fetch downloads source_url to path unless path already exists. The body is written to a
// temporary file which is renamed once the download completes.
func Fetch(ctx context.Context, source_url string, path string, opts *FetchOptions) (*FetchResult, error) {

	if opts == nil {
		opts = &FetchOptions{}
	}

	info, err := os.Stat(path)

	if err == nil {

		slog.Info("Already downloaded", "path", path, "size", info.Size())

		r := &FetchResult{
			URL:     source_url,
			Path:    path,
			Size:    info.Size(),
			Skipped: true,
		}

		return r, nil
	}

	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("Failed to stat %s, %w", path, err)
	}

	err = os.MkdirAll(filepath.Dir(path), 0755)

	if err != nil {
		return nil, fmt.Errorf("Failed to create download directory, %w", err)
	}

	timeout := opts.Timeout

	if timeout == 0 {
		timeout = DEFAULT_TIMEOUT
	}

	user_agent := opts.UserAgent

	if user_agent == "" {
		user_agent = DEFAULT_USER_AGENT
	}

	cl := opts.Client

	if cl == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.ResponseHeaderTimeout = timeout
		cl = &http.Client{Transport: tr}
	}

	progress := opts.Progress

	if progress == nil {
		progress = os.Stderr
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source_url, nil)

	if err != nil {
		return nil, fmt.Errorf("Failed to create request for %s, %w", source_url, err)
	}

	req.Header.Set("User-Agent", user_agent)

	slog.Info("Downloading", "url", source_url)
	t1 := time.Now()

	idle := newIdleReader(timeout, cancel)
	defer idle.Stop()

	rsp, err := cl.Do(req)

	if err != nil {
		return nil, fmt.Errorf("Failed to retrieve %s, %w", source_url, idle.Err(err))
	}

	defer rsp.Body.Close()

	idle.r = rsp.Body

	if rsp.StatusCode < 200 || rsp.StatusCode > 299 {
		return nil, fmt.Errorf("Failed to retrieve %s, %s", source_url, rsp.Status)
	}

	tmp_path := path + ".tmp"

	wr, err := os.OpenFile(tmp_path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)

	if err != nil {
		return nil, fmt.Errorf("Failed to open %s for writing, %w", tmp_path, err)
	}

	bar := progressbar.NewOptions64(
		rsp.ContentLength,
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription(filepath.Base(path)),
		progressbar.OptionShowBytes(true),
		progressbar.OptionThrottle(250*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	sz, err := io.Copy(io.MultiWriter(wr, bar), idle)

	bar.Finish()

	if err != nil {
		wr.Close()
		os.Remove(tmp_path)
		return nil, fmt.Errorf("Failed to copy %s to %s, %w", source_url, tmp_path, idle.Err(err))
	}

	err = wr.Close()

	if err != nil {
		os.Remove(tmp_path)
		return nil, fmt.Errorf("Failed to close %s after writing, %w", tmp_path, err)
	}

	err = os.Rename(tmp_path, path)

	if err != nil {
		os.Remove(tmp_path)
		return nil, fmt.Errorf("Failed to rename %s, %w", tmp_path, err)
	}

	elapsed := time.Since(t1)

	slog.Info("Downloaded", "path", path, "size", sz, "time", elapsed)

	r := &FetchResult{
		URL:     source_url,
		Path:    path,
		Size:    sz,
		Elapsed: elapsed,
	}

	return r, nil
}

// idleReader cancels a request when no data has been read for longer than timeout. The deadline
// is armed when the reader is created and is pushed back after every successful read.
type idleReader struct {
	r       io.Reader
	timeout time.Duration
	timer   *time.Timer
	expired atomic.Bool
}

func newIdleReader(timeout time.Duration, cancel context.CancelFunc) *idleReader {

	ir := &idleReader{
		timeout: timeout,
	}

	ir.timer = time.AfterFunc(timeout, func() {
		ir.expired.Store(true)
		cancel()
	})

	return ir
}

func (ir *idleReader) Read(p []byte) (int, error) {

	n, err := ir.r.Read(p)

	if ir.expired.Load() {
		return n, ir.Err(err)
	}

	if n > 0 {
		ir.timer.Reset(ir.timeout)
	}

	return n, err
}

// Err replaces err with an idle timeout error if the deadline has passed.
func (ir *idleReader) Err(err error) error {

	if ir.expired.Load() {
		return fmt.Errorf("No data received for %v, %w", ir.timeout, ErrIdleTimeout)
	}

	return err
}

func (ir *idleReader) Stop() {
	ir.timer.Stop()
}

// FetchAll downloads each named collection, in order, to {dir}/{name}.geojson.
func FetchAll(ctx context.Context, url_template string, names []string, dir string, opts *FetchOptions) ([]*FetchResult, error) {

	results := make([]*FetchResult, 0)

	for _, name := range names {

		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
			// pass
		}

		source_url, err := SourceURL(url_template, name)

		if err != nil {
			return results, err
		}

		path := filepath.Join(dir, fmt.Sprintf("%s.geojson", name))

		r, err := Fetch(ctx, source_url, path, opts)

		if err != nil {
			return results, err
		}

		results = append(results, r)
	}

	return results, nil
}

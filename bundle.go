package resorts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/klauspost/compress/gzip"
	"github.com/whosonfirst/go-writer/v3"
)

const BUNDLE_EXTENSION string = ".json.gz"

// Bundle is everything a client needs to render a single resort.
type Bundle struct {
	Resort *Feature   `json:"resort"`
	Runs   []*Feature `json:"runs"`
	Lifts  []*Feature `json:"lifts"`
}

func NewBundle(resort *Resort, runs []*Feature, lifts []*Feature) *Bundle {

	if runs == nil {
		runs = []*Feature{}
	}

	if lifts == nil {
		lifts = []*Feature{}
	}

	b := &Bundle{
		Resort: resort.Feature,
		Runs:   runs,
		Lifts:  lifts,
	}

	return b
}

// Marshal encodes b as compact JSON.
func (b *Bundle) Marshal() ([]byte, error) {
	return marshalCompact(b)
}

// Compress returns the gzip-compressed encoding of b.
func (b *Bundle) Compress(level int) ([]byte, error) {

	enc, err := b.Marshal()

	if err != nil {
		return nil, fmt.Errorf("Failed to marshal bundle, %w", err)
	}

	var buf bytes.Buffer

	gz, err := gzip.NewWriterLevel(&buf, level)

	if err != nil {
		return nil, fmt.Errorf("Failed to create gzip writer, %w", err)
	}

	_, err = gz.Write(enc)

	if err != nil {
		return nil, fmt.Errorf("Failed to compress bundle, %w", err)
	}

	err = gz.Close()

	if err != nil {
		return nil, fmt.Errorf("Failed to close gzip writer, %w", err)
	}

	return buf.Bytes(), nil
}

// BundleURI returns the key a resort's bundle is written to. The id is path-escaped with url.PathEscape so
// that "x/y" is written to "x%2Fy.json.gz" rather than to a subdirectory. The index records the unescaped
// id so consumers must escape it the same way to locate a bundle.
func BundleURI(id string) string {
	return url.PathEscape(id) + BUNDLE_EXTENSION
}

// BundleError reports a resort whose bundle could not be written.
type BundleError struct {
	Id  string
	Err error
}

func (e *BundleError) Error() string {
	return fmt.Sprintf("Failed to write bundle for %s, %v", e.Id, e.Err)
}

func (e *BundleError) Unwrap() error {
	return e.Err
}

type WrittenBundle struct {
	Resort *Resort
	Runs   []*Feature
	Lifts  []*Feature
	URI    string
	Size   int64
}

type WriteResults struct {
	Written []*WrittenBundle
	Skipped int
	Failed  []*BundleError
}

// Err returns the failures joined in to a single error, or nil.
func (r *WriteResults) Err() error {

	if len(r.Failed) == 0 {
		return nil
	}

	errs := make([]error, len(r.Failed))

	for i, e := range r.Failed {
		errs[i] = e
	}

	return errors.Join(errs...)
}

type WriteBundlesOptions struct {
	CompressionLevel int
}

// WriteBundles writes one compressed bundle per resort with at least one run or lift, in resort
// order. Resorts with neither are skipped. A failure to write one bundle does not stop the others;
// failures are recorded in the results.
func WriteBundles(ctx context.Context, wr writer.Writer, resorts *Resorts, runs *Groups, lifts *Groups, opts *WriteBundlesOptions) (*WriteResults, error) {

	level := gzip.DefaultCompression

	if opts != nil && opts.CompressionLevel != 0 {
		level = opts.CompressionLevel
	}

	results := &WriteResults{
		Written: make([]*WrittenBundle, 0),
		Failed:  make([]*BundleError, 0),
	}

	for _, id := range resorts.Ids() {

		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
			// pass
		}

		r, _ := resorts.Get(id)

		r_runs := runs.Get(id)
		r_lifts := lifts.Get(id)

		if len(r_runs) == 0 && len(r_lifts) == 0 {
			results.Skipped += 1
			continue
		}

		uri := BundleURI(id)

		body, err := NewBundle(r, r_runs, r_lifts).Compress(level)

		if err != nil {
			results.Failed = append(results.Failed, &BundleError{Id: id, Err: err})
			continue
		}

		sz, err := wr.Write(ctx, uri, bytes.NewReader(body))

		if err != nil {
			slog.Error("Failed to write bundle", "id", id, "uri", uri, "error", err)
			results.Failed = append(results.Failed, &BundleError{Id: id, Err: err})
			continue
		}

		written := &WrittenBundle{
			Resort: r,
			Runs:   r_runs,
			Lifts:  r_lifts,
			URI:    uri,
			Size:   sz,
		}

		results.Written = append(results.Written, written)
	}

	return results, nil
}

func marshalCompact(v any) ([]byte, error) {

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	err := enc.Encode(v)

	if err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

package resorts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/tidwall/gjson"
	"github.com/whosonfirst/go-reader/v2"
)

// Feature is a single GeoJSON Feature record kept as the bytes it was read from. Properties are read
// on demand using gjson paths so that a Feature is re-serialized exactly as it was found.
type Feature struct {
	Body []byte
}

func NewFeature(body []byte) *Feature {
	return &Feature{Body: body}
}

// MarshalJSON returns the original encoded Feature.
func (f *Feature) MarshalJSON() ([]byte, error) {

	if len(f.Body) == 0 {
		return []byte("null"), nil
	}

	return f.Body, nil
}

// ReadFeatures reads a GeoJSON FeatureCollection from r and returns its features in document order.
func ReadFeatures(r io.Reader) ([]*Feature, error) {

	body, err := io.ReadAll(r)

	if err != nil {
		return nil, fmt.Errorf("Failed to read feature collection, %w", err)
	}

	return ParseFeatures(body)
}

// ParseFeatures returns the features of the GeoJSON FeatureCollection in body, in document order. Each
// Feature.Body is a sub-slice of body rather than a copy so body must not be modified afterwards.
func ParseFeatures(body []byte) ([]*Feature, error) {

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("Invalid JSON")
	}

	features_rsp := gjson.GetBytes(body, "features")

	if !features_rsp.IsArray() {
		return nil, fmt.Errorf("Missing features")
	}

	features := make([]*Feature, 0)

	features_rsp.ForEach(func(_, f_rsp gjson.Result) bool {

		if !f_rsp.IsObject() {
			return true
		}

		var f_body []byte

		if f_rsp.Index > 0 {
			f_body = body[f_rsp.Index : f_rsp.Index+len(f_rsp.Raw)]
		} else {
			f_body = []byte(f_rsp.Raw)
		}

		features = append(features, NewFeature(f_body))

		return true
	})

	return features, nil
}

// LoadFeatures reads the FeatureCollection stored at key in rd.
func LoadFeatures(ctx context.Context, rd reader.Reader, key string) ([]*Feature, error) {

	t1 := time.Now()

	fh, err := rd.Read(ctx, key)

	if err != nil {
		return nil, fmt.Errorf("Failed to open %s, %w", key, err)
	}

	defer fh.Close()

	features, err := ReadFeatures(fh)

	if err != nil {
		return nil, fmt.Errorf("Failed to load %s, %w", key, err)
	}

	slog.Debug("Parsed features", "key", key, "count", len(features), "time", time.Since(t1))
	return features, nil
}

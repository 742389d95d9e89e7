package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestSourceURL(t *testing.T) {

	tests := map[string]string{
		"ski_areas": "https://tiles.openskimap.org/geojson/ski_areas.geojson",
		"runs":      "https://tiles.openskimap.org/geojson/runs.geojson",
		"lifts":     "https://tiles.openskimap.org/geojson/lifts.geojson",
	}

	for name, expected := range tests {

		u, err := SourceURL("", name)

		if err != nil {
			t.Fatalf("Failed to derive source URL for %s, %v", name, err)
		}

		if u != expected {
			t.Fatalf("Expected '%s' but got '%s'", expected, u)
		}
	}

	u, err := SourceURL("http://localhost:8080/data/{name}.json", "runs")

	if err != nil {
		t.Fatalf("Failed to derive source URL, %v", err)
	}

	if u != "http://localhost:8080/data/runs.json" {
		t.Fatalf("Unexpected source URL '%s'", u)
	}
}

func TestFetchAll(t *testing.T) {

	ctx := context.Background()

	var requests atomic.Int32

	handler := http.HandlerFunc(func(rsp http.ResponseWriter, req *http.Request) {

		requests.Add(1)

		if req.Header.Get("User-Agent") != "test/1.0" {
			http.Error(rsp, "Invalid user agent", http.StatusForbidden)
			return
		}

		name := filepath.Base(req.URL.Path)
		fmt.Fprintf(rsp, `{"type":"FeatureCollection","features":[],"name":"%s"}`, name)
	})

	s := httptest.NewServer(handler)
	defer s.Close()

	dir := t.TempDir()

	opts := &FetchOptions{
		UserAgent: "test/1.0",
		Progress:  io.Discard,
	}

	url_template := s.URL + "/geojson/{name}.geojson"
	names := []string{"ski_areas", "runs", "lifts"}

	results, err := FetchAll(ctx, url_template, names, dir, opts)

	if err != nil {
		t.Fatalf("Failed to fetch files, %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("Unexpected number of results, %d", len(results))
	}

	for i, name := range names {

		path := filepath.Join(dir, name+".geojson")

		body, err := os.ReadFile(path)

		if err != nil {
			t.Fatalf("Failed to read %s, %v", path, err)
		}

		expected := fmt.Sprintf(`{"type":"FeatureCollection","features":[],"name":"%s.geojson"}`, name)

		if string(body) != expected {
			t.Fatalf("Unexpected body for %s, %s", name, body)
		}

		if results[i].Skipped || results[i].Size != int64(len(body)) {
			t.Fatalf("Unexpected result for %s, %+v", name, results[i])
		}

		_, err = os.Stat(path + ".tmp")

		if !os.IsNotExist(err) {
			t.Fatalf("Expected temporary file for %s to be removed", name)
		}
	}

	// Files that already exist are not downloaded again

	results, err = FetchAll(ctx, url_template, names, dir, opts)

	if err != nil {
		t.Fatalf("Failed to fetch files a second time, %v", err)
	}

	for _, r := range results {
		if !r.Skipped {
			t.Fatalf("Expected %s to be skipped", r.Path)
		}
	}

	if requests.Load() != 3 {
		t.Fatalf("Unexpected number of requests, %d", requests.Load())
	}
}

func TestFetchError(t *testing.T) {

	ctx := context.Background()

	handler := http.HandlerFunc(func(rsp http.ResponseWriter, req *http.Request) {
		http.Error(rsp, "Not found", http.StatusNotFound)
	})

	s := httptest.NewServer(handler)
	defer s.Close()

	path := filepath.Join(t.TempDir(), "runs.geojson")

	_, err := Fetch(ctx, s.URL+"/runs.geojson", path, &FetchOptions{Progress: io.Discard})

	if err == nil {
		t.Fatalf("Expected fetch to fail")
	}

	_, err = os.Stat(path)

	if !os.IsNotExist(err) {
		t.Fatalf("Did not expect %s to exist", path)
	}
}

func TestFetchSlowBody(t *testing.T) {

	ctx := context.Background()

	chunk := []byte("0123456789")

	handler := http.HandlerFunc(func(rsp http.ResponseWriter, req *http.Request) {

		fl := rsp.(http.Flusher)

		for i := 0; i < 10; i++ {

			rsp.Write(chunk)
			fl.Flush()

			time.Sleep(100 * time.Millisecond)
		}
	})

	s := httptest.NewServer(handler)
	defer s.Close()

	path := filepath.Join(t.TempDir(), "runs.geojson")

	opts := &FetchOptions{
		Timeout:  300 * time.Millisecond,
		Progress: io.Discard,
	}

	r, err := Fetch(ctx, s.URL+"/runs.geojson", path, opts)

	if err != nil {
		t.Fatalf("Failed to fetch slow body, %v", err)
	}

	if r.Size != 100 {
		t.Fatalf("Unexpected size, %d", r.Size)
	}

	body, err := os.ReadFile(path)

	if err != nil {
		t.Fatalf("Failed to read %s, %v", path, err)
	}

	if !bytes.Equal(body, bytes.Repeat(chunk, 10)) {
		t.Fatalf("Unexpected body, %s", body)
	}
}

func TestFetchStalledBody(t *testing.T) {

	ctx := context.Background()

	handler := http.HandlerFunc(func(rsp http.ResponseWriter, req *http.Request) {

		rsp.Write([]byte("0123456789"))
		rsp.(http.Flusher).Flush()

		select {
		case <-req.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})

	s := httptest.NewServer(handler)
	defer s.Close()

	path := filepath.Join(t.TempDir(), "runs.geojson")

	opts := &FetchOptions{
		Timeout:  200 * time.Millisecond,
		Progress: io.Discard,
	}

	_, err := Fetch(ctx, s.URL+"/runs.geojson", path, opts)

	if !errors.Is(err, ErrIdleTimeout) {
		t.Fatalf("Expected idle timeout, %v", err)
	}

	_, err = os.Stat(path)

	if !os.IsNotExist(err) {
		t.Fatalf("Did not expect %s to exist", path)
	}

	_, err = os.Stat(path + ".tmp")

	if !os.IsNotExist(err) {
		t.Fatalf("Expected temporary file to be removed")
	}
}

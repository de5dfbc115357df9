package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"resumeflow/internal/config"
	"resumeflow/internal/errors"
)

func geoConfig(url string) config.GeoConfig {
	return config.GeoConfig{
		BaseURL:     url,
		ResultLimit: 5,
		Timeout:     5 * time.Second,
	}
}

func TestClientSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("Expected path /search, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "Berlin" {
			t.Errorf("Expected query Berlin, got %q", got)
		}
		if got := r.URL.Query().Get("format"); got != "json" {
			t.Errorf("Expected format json, got %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("Expected limit 5, got %q", got)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("Expected a User-Agent header")
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"display_name":"Berlin, Germany","boundingbox":["52.3","52.7","13.0","13.8"],"lat":"52.52","lon":"13.40"},
			{"display_name":"Berlin, NH, USA","boundingbox":["44.4","44.5","-71.3","-71.1"],"lat":"44.47","lon":"-71.18"}
		]`))
	}))
	defer server.Close()

	client := NewClient(geoConfig(server.URL), nil)

	places, err := client.Search(context.Background(), "Berlin")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(places) != 2 {
		t.Fatalf("Expected 2 places, got %d", len(places))
	}
	if places[0].DisplayName != "Berlin, Germany" {
		t.Errorf("Unexpected display name: %q", places[0].DisplayName)
	}
	if places[0].Lat != "52.52" || places[0].Lon != "13.40" {
		t.Errorf("Unexpected coordinates: %s,%s", places[0].Lat, places[0].Lon)
	}
	if places[1].BoundingBox[0] != "44.4" {
		t.Errorf("Unexpected bounding box: %v", places[1].BoundingBox)
	}
}

func TestClientSearchBlankQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Blank query should not reach the geocoder")
	}))
	defer server.Close()

	client := NewClient(geoConfig(server.URL), nil)

	places, err := client.Search(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if places != nil {
		t.Errorf("Expected no results for blank query, got %v", places)
	}
}

func TestClientSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(geoConfig(server.URL), nil)

	_, err := client.Search(context.Background(), "Berlin")
	if err == nil {
		t.Fatal("Expected error for non-200 response")
	}
	if !errors.IsCollaborator(err) {
		t.Errorf("Expected collaborator error, got %v", err)
	}
}

func TestClientSearchUnreachable(t *testing.T) {
	client := NewClient(geoConfig("http://127.0.0.1:1"), nil)

	_, err := client.Search(context.Background(), "Berlin")
	if err == nil {
		t.Fatal("Expected error for unreachable geocoder")
	}

	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Type != errors.ErrorTypeNetwork {
		t.Errorf("Expected network error, got %v", err)
	}
}

func TestDebouncerCoalesces(t *testing.T) {
	var runs atomic.Int32
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	for range 5 {
		d.Trigger(func() { runs.Add(1) })
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)

	if got := runs.Load(); got != 1 {
		t.Errorf("Expected a single coalesced run, got %d", got)
	}
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	var runs atomic.Int32
	d := NewDebouncer(50 * time.Millisecond)

	d.Trigger(func() { runs.Add(1) })
	d.Stop()

	time.Sleep(120 * time.Millisecond)

	if got := runs.Load(); got != 0 {
		t.Errorf("Expected no runs after Stop, got %d", got)
	}
}

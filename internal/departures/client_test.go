package departures

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"departure_finder/internal/geo"
	"departure_finder/platform/apperr"
	"departure_finder/platform/logger"
)

type testConfig struct {
	baseURL string
	timeout time.Duration
}

func (c testConfig) GetDeparturesBaseURL() string        { return c.baseURL }
func (c testConfig) GetDeparturesCity() string           { return "wroclaw" }
func (c testConfig) GetDeparturesTimeout() time.Duration { return c.timeout }
func (c testConfig) GetDisplayLocation() *time.Location  { return time.UTC }

var testQuery = Query{
	Start:     geo.Point{Lat: 51.11, Lng: 17.032},
	End:       geo.Point{Lat: 51.0985, Lng: 17.0367},
	StartTime: "2024-01-01T10:00",
	Limit:     5,
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(testConfig{baseURL: srv.URL + "/"}, logger.Discard())
}

func TestClosest_SendsQuery(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{
			"start_coordinates": r.URL.Query().Get("start_coordinates"),
			"end_coordinates":   r.URL.Query().Get("end_coordinates"),
			"start_time":        r.URL.Query().Get("start_time"),
			"limit":             r.URL.Query().Get("limit"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"departures":[]}`))
	})

	resp, err := client.Closest(context.Background(), testQuery)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/public_transport/city/wroclaw/closest_departures/" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	want := map[string]string{
		"start_coordinates": "51.11,17.032",
		"end_coordinates":   "51.0985,17.0367",
		"start_time":        "2024-01-01T10:00",
		"limit":             "5",
	}
	for key, value := range want {
		if gotQuery[key] != value {
			t.Fatalf("expected %s=%s, got %s", key, value, gotQuery[key])
		}
	}
	if string(resp.Body) != `{"departures":[]}` {
		t.Fatalf("unexpected body %s", resp.Body)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Status)
	}
}

func TestClosest_ErrorBodies(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error field", http.StatusNotFound, `{"error":"city not supported"}`, "HTTP Error: 404 Not Found - city not supported"},
		{"message wins over error", http.StatusBadRequest, `{"message":"bad limit","error":"ignored"}`, "HTTP Error: 400 Bad Request - bad limit"},
		{"empty message falls back to error", http.StatusBadRequest, `{"message":"","error":"Invalid limit"}`, "HTTP Error: 400 Bad Request - Invalid limit"},
		{"no known field", http.StatusInternalServerError, `{"detail":"boom"}`, "HTTP Error: 500 Internal Server Error"},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, "HTTP Error: 502 Bad Gateway"},
		{"json array", http.StatusBadRequest, `["x"]`, "HTTP Error: 400 Bad Request"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := client.Closest(context.Background(), testQuery)
			if err == nil {
				t.Fatal("expected error")
			}
			if !apperr.Is(err, apperr.KindUpstream) {
				t.Fatalf("expected upstream error, got %v", err)
			}
			if err.Error() != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, err.Error())
			}
		})
	}
}

func TestClosest_InvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"departures":`))
	})

	_, err := client.Closest(context.Background(), testQuery)
	if err == nil || !strings.HasPrefix(err.Error(), "invalid JSON in response") {
		t.Fatalf("expected invalid JSON error, got %v", err)
	}
}

func TestClosest_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	client := NewClient(testConfig{baseURL: baseURL}, logger.Discard())
	_, err := client.Closest(context.Background(), testQuery)
	if err == nil {
		t.Fatal("expected error")
	}
	var domainErr *apperr.Error
	if !errors.As(err, &domainErr) || domainErr.Kind != apperr.KindUpstream {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestClosest_CoalescesIdenticalQueries(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		_, _ = w.Write([]byte(`[]`))
	})

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Closest(context.Background(), testQuery)
			errs <- err
		}()
	}

	// give both callers time to join the same flight
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}
}

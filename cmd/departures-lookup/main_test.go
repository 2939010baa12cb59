package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newUpstream(t *testing.T, status int, body string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	t.Setenv("CONFIG_FILE", "")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DISPLAY_TIMEZONE", "UTC")
	t.Setenv("DEPARTURES_BASE_URL", srv.URL)
}

var points = []string{"--from", "51.11,17.03", "--to", "51.10,17.04"}

func TestRun_UpstreamErrorExitsNonZero(t *testing.T) {
	for _, mode := range []string{"table", "raw"} {
		t.Run(mode, func(t *testing.T) {
			newUpstream(t, http.StatusBadRequest, `{"error":"city not supported"}`)

			args := append([]string{}, points...)
			if mode == "raw" {
				args = append(args, "--raw")
			}
			var stdout, stderr bytes.Buffer
			if code := run(args, &stdout, &stderr); code != 1 {
				t.Fatalf("expected exit 1, got %d", code)
			}
			if !strings.Contains(stderr.String(), "city not supported") {
				t.Fatalf("expected status on stderr, got %q", stderr.String())
			}
			if mode == "raw" && strings.TrimSpace(stdout.String()) != "Error: HTTP Error: 400 Bad Request - city not supported" {
				t.Fatalf("unexpected raw output %q", stdout.String())
			}
		})
	}
}

func TestRun_RawSuccessIsPlainJSON(t *testing.T) {
	newUpstream(t, http.StatusOK, `[{"stop_name":"Rynek"}]`)

	var stdout, stderr bytes.Buffer
	if code := run(append(append([]string{}, points...), "--raw"), &stdout, &stderr); code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
	}
	want := "[\n  {\n    \"stop_name\": \"Rynek\"\n  }\n]\n"
	if stdout.String() != want {
		t.Fatalf("expected only the raw json on stdout, got %q", stdout.String())
	}
}

func TestRun_Table(t *testing.T) {
	newUpstream(t, http.StatusOK, `{"departures":[{"stop_name":"Rynek","route_short_name":"4","trip_headsign":"Leśnica","departure_time":"2024-01-01T10:05:00Z"}]}`)

	var stdout, stderr bytes.Buffer
	if code := run(points, &stdout, &stderr); code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{"Rynek", "Leśnica", "10:05"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table, got %q", want, out)
		}
	}
	if strings.Contains(out, "upstream_call") {
		t.Fatalf("expected logs kept off stdout, got %q", out)
	}
}

func TestRun_MissingPoint(t *testing.T) {
	newUpstream(t, http.StatusOK, `[]`)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"--from", "51.11,17.03"}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "end point is required") {
		t.Fatalf("unexpected stderr %q", stderr.String())
	}
}

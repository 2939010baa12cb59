package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"departure_finder/internal/departures"
	"departure_finder/internal/finder"
	"departure_finder/internal/geo"
	apphttp "departure_finder/internal/http"
	"departure_finder/platform/apperr"
	"departure_finder/platform/config"
	"departure_finder/platform/logger"
	"departure_finder/platform/validator"

	"github.com/gin-gonic/gin"
)

type stubSearcher struct {
	body string
	err  error
}

func (s stubSearcher) Closest(context.Context, departures.Query) (*departures.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &departures.Response{Status: http.StatusOK, Body: []byte(s.body)}, nil
}

type stubGeocoder struct{}

func (stubGeocoder) Locate(_ context.Context, query string) (geo.Point, string, error) {
	if query == "Rynek" {
		return geo.Point{Lat: 51.11, Lng: 17.032}, "Rynek, Wrocław", nil
	}
	return geo.Point{}, "", apperr.NotFound("no address found")
}

func newTestEngine(t *testing.T, searcher finder.Searcher, opts ...func(*config.Config)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		CORSOrigins:         []string{"http://localhost:8080"},
		DeparturesBaseURL:   "http://departures.test",
		DeparturesCity:      "wroclaw",
		MapCenterLat:        51.1079,
		MapCenterLng:        17.0385,
		MapZoom:             13,
		SessionCookieName:   "sid",
		SessionTTL:          time.Hour,
		SessionCapacity:     16,
		SearchRatePerMinute: 0,
		MapTileURL:          "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	log := logger.Discard()
	module := finder.NewModule(cfg, searcher, stubGeocoder{}, validator.New(), log)

	return New(&apphttp.App{Config: cfg, Logger: log, Modules: []apphttp.Module{module}})
}

type client struct {
	t      *testing.T
	engine *gin.Engine
	cookie *http.Cookie
}

func (c *client) do(method, path string, body any) (*httptest.ResponseRecorder, finder.View) {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.engine.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "sid" {
			c.cookie = ck
		}
	}

	var view finder.View
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		var envelope struct {
			finder.View
			Nested *finder.View `json:"view"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
		view = envelope.View
		if envelope.Nested != nil {
			view = *envelope.Nested
		}
	}
	return rec, view
}

func TestHealth(t *testing.T) {
	engine := newTestEngine(t, stubSearcher{})
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}

func TestFinder_SessionFlow(t *testing.T) {
	body := `[{"stop_name":"Rynek","route_short_name":"4","trip_headsign":"Leśnica","departure_time":"2024-01-01T10:05:00Z","distance":120.4}]`
	c := &client{t: t, engine: newTestEngine(t, stubSearcher{body: body})}

	rec, view := c.do(http.MethodGet, "/api/v1/finder/state", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if c.cookie == nil {
		t.Fatal("expected session cookie")
	}
	if view.SearchEnabled {
		t.Fatal("expected search disabled on a fresh session")
	}

	c.do(http.MethodPost, "/api/v1/finder/map-clicks", map[string]float64{"lat": 51.11, "lng": 17.03})
	_, view = c.do(http.MethodPost, "/api/v1/finder/map-clicks", map[string]float64{"lat": 51.10, "lng": 17.04})
	if view.Start == nil || view.End == nil || !view.SearchEnabled {
		t.Fatalf("expected both points and enabled search, got %+v", view)
	}

	rec, view = c.do(http.MethodPost, "/api/v1/finder/search", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(view.Results.Cards) != 1 || view.Results.Cards[0].Distance != "120m" {
		t.Fatalf("unexpected results %+v", view.Results)
	}

	rec, _ = c.do(http.MethodGet, "/api/v1/finder/markers", nil)
	if rec.Header().Get("Content-Type") != "application/geo+json" {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), `"FeatureCollection"`) {
		t.Fatalf("unexpected markers body %s", rec.Body.String())
	}
}

func TestFinder_SessionsAreIsolated(t *testing.T) {
	engine := newTestEngine(t, stubSearcher{body: `[]`})
	first := &client{t: t, engine: engine}
	second := &client{t: t, engine: engine}

	first.do(http.MethodPost, "/api/v1/finder/map-clicks", map[string]float64{"lat": 51.11, "lng": 17.03})
	_, view := second.do(http.MethodGet, "/api/v1/finder/state", nil)

	if view.Start != nil {
		t.Fatal("expected second session to have no points")
	}
}

func TestFinder_SearchRejectedWithoutPoints(t *testing.T) {
	c := &client{t: t, engine: newTestEngine(t, stubSearcher{body: `[]`})}

	rec, view := c.do(http.MethodPost, "/api/v1/finder/search", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if view.Status.Message != "Please select both start and destination points" {
		t.Fatalf("unexpected status %+v", view.Status)
	}
}

func TestFinder_UpstreamErrorStillAnswersView(t *testing.T) {
	searcher := stubSearcher{err: apperr.Upstream("HTTP Error: 500 Internal Server Error", nil)}
	c := &client{t: t, engine: newTestEngine(t, searcher)}

	c.do(http.MethodPost, "/api/v1/finder/map-clicks", map[string]float64{"lat": 51.11, "lng": 17.03})
	c.do(http.MethodPost, "/api/v1/finder/map-clicks", map[string]float64{"lat": 51.10, "lng": 17.04})
	rec, view := c.do(http.MethodPost, "/api/v1/finder/search", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if view.Status.Message != "❌ Error: HTTP Error: 500 Internal Server Error" {
		t.Fatalf("unexpected status %q", view.Status.Message)
	}
	if view.Results.Visible {
		t.Fatal("expected results hidden")
	}
}

func TestFinder_BadInput(t *testing.T) {
	c := &client{t: t, engine: newTestEngine(t, stubSearcher{})}

	rec, _ := c.do(http.MethodPost, "/api/v1/finder/map-clicks", map[string]float64{"lat": 51.11})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing lng, got %d", rec.Code)
	}

	rec, _ = c.do(http.MethodPost, "/api/v1/finder/markers/start/click", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing marker, got %d", rec.Code)
	}

	rec, _ = c.do(http.MethodPost, "/api/v1/finder/points/middle/address", map[string]string{"query": "Rynek"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d", rec.Code)
	}
}

func TestFinder_PlaceAddress(t *testing.T) {
	c := &client{t: t, engine: newTestEngine(t, stubSearcher{})}

	rec, view := c.do(http.MethodPost, "/api/v1/finder/points/end/address", map[string]string{"query": "Rynek"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if view.End == nil || view.End.Lat != 51.11 {
		t.Fatalf("expected end point placed, got %+v", view.End)
	}

	rec, _ = c.do(http.MethodPost, "/api/v1/finder/points/start/address", map[string]string{"query": "Nowhere"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestIndexPage(t *testing.T) {
	engine := newTestEngine(t, stubSearcher{})
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "51.1079") {
		t.Fatalf("expected map center in page")
	}
}

func TestFinder_RateLimitedSearchAnswersView(t *testing.T) {
	engine := newTestEngine(t, stubSearcher{body: `[]`}, func(cfg *config.Config) {
		cfg.SearchRatePerMinute = 1
	})
	c := &client{t: t, engine: engine}

	c.do(http.MethodPost, "/api/v1/finder/map-clicks", map[string]float64{"lat": 51.11, "lng": 17.03})
	c.do(http.MethodPost, "/api/v1/finder/map-clicks", map[string]float64{"lat": 51.10, "lng": 17.04})
	if rec, _ := c.do(http.MethodPost, "/api/v1/finder/search", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected first search to pass, got %d", rec.Code)
	}

	rec, view := c.do(http.MethodPost, "/api/v1/finder/search", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"view"`) {
		t.Fatalf("expected the session view in the body, got %s", rec.Body.String())
	}
	if !view.SearchEnabled {
		t.Fatal("expected search control enabled after throttling")
	}
	if view.Status.Message != "❌ Error: rate limit exceeded" {
		t.Fatalf("unexpected status %q", view.Status.Message)
	}
}

func TestSecurityHeaders_AllowConfiguredTileHost(t *testing.T) {
	engine := newTestEngine(t, stubSearcher{}, func(cfg *config.Config) {
		cfg.MapTileURL = "https://tiles.example.com/{z}/{x}/{y}.png"
	})
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	csp := rec.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "img-src 'self' data: https://unpkg.com https://tiles.example.com;") {
		t.Fatalf("expected configured tile host in img-src, got %q", csp)
	}
	if strings.Contains(csp, "openstreetmap") {
		t.Fatalf("expected no default tile host, got %q", csp)
	}
}

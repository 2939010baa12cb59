// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// DeparturesConfig provides settings for the external departures service.
type DeparturesConfig interface {
	GetDeparturesBaseURL() string
	GetDeparturesCity() string
	GetDeparturesTimeout() time.Duration
	GetDisplayLocation() *time.Location
}

// MapConfig provides settings for the map view served to the browser.
type MapConfig interface {
	GetMapCenter() (lat, lng float64)
	GetMapZoom() int
	GetMapTileURL() string
	GetMapTileAttribution() string
}

// SessionConfig provides settings for per-browser controller sessions.
type SessionConfig interface {
	GetSessionCookieName() string
	GetSessionTTL() time.Duration
	GetSessionCapacity() int
	GetSearchRatePerMinute() int
}

// GeocoderConfig provides settings for the address lookup service.
type GeocoderConfig interface {
	GetGeocoderURL() string
	GetGeocoderCountryCodes() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string        `yaml:"env"`
	HTTPAddr             string        `yaml:"http_addr"`
	CORSAllowAll         bool          `yaml:"cors_allow_all"`
	CORSOrigins          []string      `yaml:"cors_origins"`
	CORSAllowCreds       bool          `yaml:"cors_allow_credentials"`
	DeparturesBaseURL    string        `yaml:"departures_base_url"`
	DeparturesCity       string        `yaml:"departures_city"`
	DeparturesTimeout    time.Duration `yaml:"departures_timeout"`
	DisplayTimezone      string        `yaml:"display_timezone"`
	MapCenterLat         float64       `yaml:"map_center_lat"`
	MapCenterLng         float64       `yaml:"map_center_lng"`
	MapZoom              int           `yaml:"map_zoom"`
	MapTileURL           string        `yaml:"map_tile_url"`
	MapTileAttribution   string        `yaml:"map_tile_attribution"`
	SessionCookieName    string        `yaml:"session_cookie_name"`
	SessionTTL           time.Duration `yaml:"session_ttl"`
	SessionCapacity      int           `yaml:"session_capacity"`
	SearchRatePerMinute  int           `yaml:"search_rate_per_minute"`
	GeocoderURL          string        `yaml:"geocoder_url"`
	GeocoderCountryCodes string        `yaml:"geocoder_country_codes"`

	displayLocation *time.Location
}

// =============================================================================
// Interface Implementations
// =============================================================================

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// DeparturesConfig implementation
func (c *Config) GetDeparturesBaseURL() string        { return c.DeparturesBaseURL }
func (c *Config) GetDeparturesCity() string           { return c.DeparturesCity }
func (c *Config) GetDeparturesTimeout() time.Duration { return c.DeparturesTimeout }
func (c *Config) GetDisplayLocation() *time.Location {
	if c.displayLocation == nil {
		return time.Local
	}
	return c.displayLocation
}

// MapConfig implementation
func (c *Config) GetMapCenter() (float64, float64) { return c.MapCenterLat, c.MapCenterLng }
func (c *Config) GetMapZoom() int                  { return c.MapZoom }
func (c *Config) GetMapTileURL() string            { return c.MapTileURL }
func (c *Config) GetMapTileAttribution() string    { return c.MapTileAttribution }

// SessionConfig implementation
func (c *Config) GetSessionCookieName() string { return c.SessionCookieName }
func (c *Config) GetSessionTTL() time.Duration { return c.SessionTTL }
func (c *Config) GetSessionCapacity() int      { return c.SessionCapacity }
func (c *Config) GetSearchRatePerMinute() int  { return c.SearchRatePerMinute }

// GeocoderConfig implementation
func (c *Config) GetGeocoderURL() string          { return c.GeocoderURL }
func (c *Config) GetGeocoderCountryCodes() string { return c.GeocoderCountryCodes }

// Load reads configuration from environment variables.
// When CONFIG_FILE points at a YAML file, values present in the file override
// the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:8080"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	centerLat, centerLng, err := parseCenter(getEnv("MAP_CENTER", "51.1079,17.0385"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		CORSAllowCreds:       strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		DeparturesBaseURL:    strings.TrimRight(getEnv("DEPARTURES_BASE_URL", "http://localhost:5001"), "/"),
		DeparturesCity:       getEnv("DEPARTURES_CITY", "wroclaw"),
		DeparturesTimeout:    mustDuration(getEnv("DEPARTURES_TIMEOUT", "0s")),
		DisplayTimezone:      getEnv("DISPLAY_TIMEZONE", "Local"),
		MapCenterLat:         centerLat,
		MapCenterLng:         centerLng,
		MapZoom:              mustInt(getEnv("MAP_ZOOM", "13")),
		MapTileURL:           getEnv("MAP_TILE_URL", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"),
		MapTileAttribution:   getEnv("MAP_TILE_ATTRIBUTION", "© OpenStreetMap contributors"),
		SessionCookieName:    getEnv("SESSION_COOKIE_NAME", "departure_finder_session"),
		SessionTTL:           mustDuration(getEnv("SESSION_TTL", "2h")),
		SessionCapacity:      mustInt(getEnv("SESSION_CAPACITY", "10000")),
		SearchRatePerMinute:  mustInt(getEnv("SEARCH_RATE_PER_MINUTE", "30")),
		GeocoderURL:          getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org/search"),
		GeocoderCountryCodes: getEnv("GEOCODER_COUNTRY_CODES", "pl"),
	}

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, cfg.finalize()
}

func (c *Config) overlayFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) finalize() error {
	if c.DeparturesBaseURL == "" {
		return fmt.Errorf("DEPARTURES_BASE_URL is required")
	}
	if c.DeparturesCity == "" {
		return fmt.Errorf("DEPARTURES_CITY is required")
	}
	if c.DeparturesTimeout < 0 {
		return fmt.Errorf("DEPARTURES_TIMEOUT must not be negative")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.SessionCapacity <= 0 {
		return fmt.Errorf("SESSION_CAPACITY must be positive")
	}

	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return fmt.Errorf("invalid DISPLAY_TIMEZONE %q: %w", c.DisplayTimezone, err)
	}
	c.displayLocation = loc

	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func parseCenter(value string) (float64, float64, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("MAP_CENTER must be \"lat,lng\", got %q", value)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("MAP_CENTER latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("MAP_CENTER longitude: %w", err)
	}
	return lat, lng, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}

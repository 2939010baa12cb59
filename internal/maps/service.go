package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"departure_finder/internal/geo"
	"departure_finder/platform/apperr"
	"departure_finder/platform/config"
	"departure_finder/platform/logger"
	"departure_finder/platform/sanitize"
)

const suggestionLimit = 5

type Service struct {
	client       *http.Client
	searchURL    string
	countryCodes string
	log          *logger.Logger
}

func NewService(cfg config.GeocoderConfig, log *logger.Logger) *Service {
	return &Service{
		client:       &http.Client{Timeout: 5 * time.Second},
		searchURL:    cfg.GetGeocoderURL(),
		countryCodes: cfg.GetGeocoderCountryCodes(),
		log:          log,
	}
}

func (s *Service) SearchAddress(ctx context.Context, query string) ([]AddressSuggestion, error) {
	query = sanitize.Query(query)
	if query == "" {
		return nil, apperr.BadRequest("address query is empty")
	}

	params := url.Values{}
	params.Add("q", query)
	params.Add("format", "json")
	params.Add("addressdetails", "1")
	params.Add("limit", strconv.Itoa(suggestionLimit))
	if s.countryCodes != "" {
		params.Add("countrycodes", s.countryCodes)
	}

	reqURL := fmt.Sprintf("%s?%s", s.searchURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", "DepartureFinder/1.0")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.log.UpstreamCall("nominatim", reqURL, 0, float64(time.Since(start).Milliseconds()), err)
		return nil, apperr.Upstream("address lookup service unavailable", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		upstreamErr := fmt.Errorf("upstream api error: %d", resp.StatusCode)
		s.log.UpstreamCall("nominatim", reqURL, resp.StatusCode, float64(time.Since(start).Milliseconds()), upstreamErr)
		return nil, apperr.Upstream("address lookup service unavailable", upstreamErr)
	}

	var rawResults []nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&rawResults); err != nil {
		s.log.Error("failed to decode nominatim payload", "error", err)
		return nil, apperr.Upstream("address lookup service unavailable", err)
	}
	s.log.UpstreamCall("nominatim", reqURL, resp.StatusCode, float64(time.Since(start).Milliseconds()), nil)

	suggestions := make([]AddressSuggestion, 0, len(rawResults))
	for _, raw := range rawResults {
		suggestion, ok := buildSuggestion(raw)
		if !ok {
			continue
		}

		suggestions = append(suggestions, suggestion)
	}

	return suggestions, nil
}

// Locate returns the best match for query.
func (s *Service) Locate(ctx context.Context, query string) (geo.Point, string, error) {
	suggestions, err := s.SearchAddress(ctx, query)
	if err != nil {
		return geo.Point{}, "", err
	}
	if len(suggestions) == 0 {
		return geo.Point{}, "", apperr.NotFound("no location found for " + strconv.Quote(query))
	}
	return suggestions[0].Point, suggestions[0].Label, nil
}

func buildSuggestion(raw nominatimResponse) (AddressSuggestion, bool) {
	lat, err := strconv.ParseFloat(raw.Lat, 64)
	if err != nil {
		return AddressSuggestion{}, false
	}
	lng, err := strconv.ParseFloat(raw.Lon, 64)
	if err != nil {
		return AddressSuggestion{}, false
	}
	point := geo.Point{Lat: lat, Lng: lng}
	if !point.Valid() {
		return AddressSuggestion{}, false
	}

	label := buildLabel(raw)
	if label == "" {
		return AddressSuggestion{}, false
	}

	return AddressSuggestion{Label: label, Point: point}, true
}

func pickLocality(address nominatimAddress) string {
	if address.City != "" {
		return address.City
	}
	if address.Town != "" {
		return address.Town
	}
	if address.Village != "" {
		return address.Village
	}
	if address.Municipality != "" {
		return address.Municipality
	}
	return address.Suburb
}

// buildLabel prefers "Road 12, City", then "Name, City", then the raw
// display name.
func buildLabel(raw nominatimResponse) string {
	head := raw.Address.Road
	if head != "" && raw.Address.HouseNumber != "" {
		head += " " + raw.Address.HouseNumber
	}
	if head == "" {
		head = raw.Name
	}

	locality := pickLocality(raw.Address)
	switch {
	case head != "" && locality != "" && head != locality:
		return head + ", " + locality
	case head != "":
		return head
	case locality != "":
		return locality
	default:
		return strings.TrimSpace(raw.DisplayName)
	}
}

// Package departures is the transport to the external closest-departures
// service. It builds the query, performs a single GET and turns non-success
// answers into user-facing messages.
package departures

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"departure_finder/internal/geo"
	"departure_finder/platform/apperr"
	"departure_finder/platform/config"
	"departure_finder/platform/logger"

	"golang.org/x/sync/singleflight"
)

const (
	serviceName  = "departures"
	maxBodyBytes = 8 << 20
)

// Query is one closest-departures lookup.
type Query struct {
	Start     geo.Point
	End       geo.Point
	StartTime string
	Limit     int
}

// Values encodes the query parameters.
func (q Query) Values() url.Values {
	params := url.Values{}
	params.Set("start_coordinates", q.Start.String())
	params.Set("end_coordinates", q.End.String())
	params.Set("start_time", q.StartTime)
	params.Set("limit", strconv.Itoa(q.Limit))
	return params
}

// Response is a successful answer. Body is guaranteed to be valid JSON.
type Response struct {
	URL    string
	Status int
	Body   []byte
}

// Client calls the departures service.
type Client struct {
	baseURL string
	city    string
	http    *http.Client
	log     *logger.Logger
	flight  singleflight.Group
}

// NewClient builds a client from configuration. A zero timeout means the
// request may take as long as the service needs.
func NewClient(cfg config.DeparturesConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.GetDeparturesBaseURL(), "/"),
		city:    cfg.GetDeparturesCity(),
		http:    &http.Client{Timeout: cfg.GetDeparturesTimeout()},
		log:     log,
	}
}

// URL returns the full request URL for q.
func (c *Client) URL(q Query) string {
	return fmt.Sprintf("%s/public_transport/city/%s/closest_departures/?%s",
		c.baseURL, url.PathEscape(c.city), q.Values().Encode())
}

// Closest performs the lookup. Identical lookups running at the same time
// share one upstream request.
func (c *Client) Closest(ctx context.Context, q Query) (*Response, error) {
	reqURL := c.URL(q)

	v, err, _ := c.flight.Do(reqURL, func() (interface{}, error) {
		return c.fetch(ctx, reqURL)
	})
	if err != nil {
		return nil, err
	}

	shared := v.(*Response)
	body := make([]byte, len(shared.Body))
	copy(body, shared.Body)
	return &Response{URL: shared.URL, Status: shared.Status, Body: body}, nil
}

func (c *Client) fetch(ctx context.Context, reqURL string) (*Response, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperr.Internal("failed to build departures request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithContext(ctx).UpstreamCall(serviceName, reqURL, 0, sinceMs(start), err)
		return nil, apperr.Upstream(err.Error(), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.log.WithContext(ctx).UpstreamCall(serviceName, reqURL, resp.StatusCode, sinceMs(start), err)
		return nil, apperr.Upstream("failed to read response: "+err.Error(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		upstreamErr := apperr.Upstream(statusMessage(resp, body), nil).
			WithDetails(map[string]interface{}{"status": resp.StatusCode})
		c.log.WithContext(ctx).UpstreamCall(serviceName, reqURL, resp.StatusCode, sinceMs(start), upstreamErr)
		return nil, upstreamErr
	}

	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		c.log.WithContext(ctx).UpstreamCall(serviceName, reqURL, resp.StatusCode, sinceMs(start), err)
		return nil, apperr.Upstream("invalid JSON in response: "+err.Error(), err)
	}

	c.log.WithContext(ctx).UpstreamCall(serviceName, reqURL, resp.StatusCode, sinceMs(start), nil)
	return &Response{URL: reqURL, Status: resp.StatusCode, Body: body}, nil
}

// statusMessage builds "HTTP Error: <status line>" and appends the service's
// own message when the body is a JSON object carrying one under "message"
// or, failing that, "error".
func statusMessage(resp *http.Response, body []byte) string {
	status := resp.Status
	if status == "" {
		status = strconv.Itoa(resp.StatusCode) + " " + http.StatusText(resp.StatusCode)
	}
	message := "HTTP Error: " + status

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return message
	}
	for _, key := range []string{"message", "error"} {
		if text, ok := messageField(payload[key]); ok {
			return message + " - " + text
		}
	}
	return message
}

func messageField(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, v != ""
	case float64:
		if v == 0 {
			return "", false
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return "true", v
	default:
		return "", false
	}
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

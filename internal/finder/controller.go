// Package finder is the map search controller: it owns one session's point
// selection, form inputs, status line, diagnostic output and results panel,
// and runs departure searches against the external service.
package finder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"departure_finder/internal/departures"
	"departure_finder/internal/geo"
	"departure_finder/internal/results"
	"departure_finder/internal/selection"
	"departure_finder/platform/apperr"
	"departure_finder/platform/logger"
	"departure_finder/platform/validator"
)

const (
	msgSearching      = "🔍 Searching for departures..."
	msgFound          = "✅ Departures found successfully!"
	msgSearchNeedsAll = "Please select both start and destination points"
	msgNewStart       = "Click on the map to set a new start point"
	msgNewEnd         = "Click on the map to set a new destination point"

	departureTimeLayout = "2006-01-02T15:04"
)

// Searcher performs the upstream lookup.
type Searcher interface {
	Closest(ctx context.Context, q departures.Query) (*departures.Response, error)
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Searcher  Searcher
	Validator *validator.Validator
	Location  *time.Location
	Logger    *logger.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Controller is the state of one map search session. All methods are safe
// for concurrent use; events are applied one at a time.
type Controller struct {
	mu sync.Mutex

	selection     *selection.Selection
	limitText     string
	departureTime string
	status        Status
	searchEnabled bool
	inFlight      bool

	debugOpen bool
	raw       string

	resultsVisible bool
	result         results.Result

	searcher Searcher
	val      *validator.Validator
	loc      *time.Location
	log      *logger.Logger
	now      func() time.Time
}

// NewController returns a controller with no points, the default limit and
// the departure time set to the next five-minute mark.
func NewController(deps Deps) *Controller {
	c := &Controller{
		selection: selection.New(),
		limitText: strconv.Itoa(DefaultLimit),
		searcher:  deps.Searcher,
		val:       deps.Validator,
		loc:       deps.Location,
		log:       deps.Logger,
		now:       deps.Now,
	}
	if c.val == nil {
		c.val = validator.New()
	}
	if c.loc == nil {
		c.loc = time.Local
	}
	if c.log == nil {
		c.log = logger.Discard()
	}
	if c.now == nil {
		c.now = time.Now
	}

	c.departureTime = DefaultDepartureTime(c.now())
	c.applyValidation()
	return c
}

// DefaultDepartureTime rounds t up to the next five-minute mark, dropping
// seconds, and formats it as UTC "2006-01-02T15:04".
func DefaultDepartureTime(t time.Time) string {
	t = t.UTC().Truncate(time.Minute)
	if rem := t.Minute() % 5; rem != 0 {
		t = t.Add(time.Duration(5-rem) * time.Minute)
	}
	return t.Format(departureTimeLayout)
}

// ClickMap applies a click on the map and returns the role that was set.
func (c *Controller) ClickMap(p geo.Point) (selection.Role, error) {
	if !p.Valid() {
		return "", apperr.BadRequest("coordinates out of range")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	role := c.selection.Click(p)
	c.applyValidation()
	return role, nil
}

// ClickMarker switches selection to the clicked marker's role.
func (c *Controller) ClickMarker(role selection.Role) error {
	if !role.Valid() {
		return apperr.BadRequest("unknown marker role")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.selection.ClickMarker(role); err != nil {
		if errors.Is(err, selection.ErrNoMarker) {
			return apperr.NotFound("no " + string(role) + " marker on the map")
		}
		return err
	}

	if role == selection.RoleStart {
		c.status = Status{Message: msgNewStart, Tone: ToneInfo}
	} else {
		c.status = Status{Message: msgNewEnd, Tone: ToneInfo}
	}
	return nil
}

// PlacePoint sets a role's point directly, bypassing click proximity rules.
func (c *Controller) PlacePoint(role selection.Role, p geo.Point) error {
	if !role.Valid() {
		return apperr.BadRequest("unknown marker role")
	}
	if !p.Valid() {
		return apperr.BadRequest("coordinates out of range")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.selection.Place(role, p)
	c.applyValidation()
	return nil
}

// SetLimit stores the raw limit field and re-validates.
func (c *Controller) SetLimit(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.limitText = text
	c.applyValidation()
}

// SetDepartureTime stores the raw departure time field.
func (c *Controller) SetDepartureTime(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.departureTime = text
}

// ToggleDebug opens or closes the diagnostic panel and returns the new state.
func (c *Controller) ToggleDebug() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.debugOpen = !c.debugOpen
	return c.debugOpen
}

// Search runs one lookup. While it is in flight the search control is
// disabled and further calls are rejected. Upstream failures are not
// returned: they end up in the status line and the diagnostic panel. The
// upstream call ignores cancellation of ctx.
func (c *Controller) Search(ctx context.Context) error {
	q, err := c.beginSearch()
	if err != nil {
		return err
	}

	resp, err := c.searcher.Closest(context.WithoutCancel(ctx), q)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.endSearch()

	if err == nil {
		err = c.showResponse(resp.Body)
	}
	if err != nil {
		c.showFailure(err)
		c.log.WithContext(ctx).Warn("departure search failed", "error", err)
		return nil
	}

	c.status = Status{Message: msgFound, Tone: ToneSuccess}
	return nil
}

// RejectSearch reports a search refused before it reached the controller,
// such as a throttled request. The search control stays usable.
func (c *Controller) RejectSearch(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status = Status{Message: "❌ Error: " + reason, Tone: ToneError}
	c.searchEnabled = Validate(c.val, c.query()).Valid && !c.inFlight
}

func (c *Controller) beginSearch() (departures.Query, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight {
		return departures.Query{}, apperr.Conflict("a search is already in progress")
	}

	sq := c.query()
	if sq.Start == nil || sq.End == nil {
		c.status = Status{Message: msgSearchNeedsAll, Tone: ToneError}
		return departures.Query{}, apperr.Validation(msgSearchNeedsAll)
	}
	if verdict := Validate(c.val, sq); !verdict.Valid {
		c.status = verdict.Status
		c.searchEnabled = false
		return departures.Query{}, apperr.Validation(verdict.Status.Message)
	}

	startTime := sq.DepartureTime
	if startTime == "" {
		startTime = c.now().UTC().Format(time.RFC3339)
	}

	c.status = Status{Message: msgSearching, Tone: ToneInfo}
	c.searchEnabled = false
	c.inFlight = true
	c.raw = ""
	c.resultsVisible = false

	return departures.Query{
		Start:     *sq.Start,
		End:       *sq.End,
		StartTime: startTime,
		Limit:     sq.Limit,
	}, nil
}

// endSearch clears the in-flight flag and restores the control's enabled
// state. The outcome's status message is kept.
func (c *Controller) endSearch() {
	c.inFlight = false
	c.searchEnabled = Validate(c.val, c.query()).Valid
}

func (c *Controller) showResponse(body []byte) error {
	parsed, err := results.Parse(body)
	if err != nil {
		return apperr.Upstream("invalid JSON in response: "+err.Error(), err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		return apperr.Upstream("invalid JSON in response: "+err.Error(), err)
	}

	c.raw = pretty.String()
	c.result = parsed
	c.resultsVisible = true
	return nil
}

func (c *Controller) showFailure(err error) {
	message := errorMessage(err)
	c.raw = "Error: " + message
	c.result = results.Result{}
	c.resultsVisible = false
	c.status = Status{Message: "❌ Error: " + message, Tone: ToneError}
}

func errorMessage(err error) string {
	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}

// applyValidation refreshes both the enabled state and the status line.
func (c *Controller) applyValidation() {
	verdict := Validate(c.val, c.query())
	c.searchEnabled = verdict.Valid && !c.inFlight
	c.status = verdict.Status
}

func (c *Controller) query() SearchQuery {
	q := SearchQuery{DepartureTime: c.departureTime}
	if p, ok := c.selection.Start(); ok {
		q.Start = &p
	}
	if p, ok := c.selection.End(); ok {
		q.End = &p
	}
	if n, ok := ParseLimit(c.limitText); ok {
		q.Limit = n
	}
	return q
}

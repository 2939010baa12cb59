package finder

import (
	"html/template"

	"departure_finder/internal/results"
	"departure_finder/internal/selection"
)

// Instructions is the help overlay shown on the map.
var Instructions = []string{
	"1st click: Set start point (🟢)",
	"2nd click: Set destination (🔴)",
	"Click markers to switch selection",
}

// PointView is a placed point with its readout text.
type PointView struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Display string  `json:"display"`
}

// LimitView is the limit field with its accepted range.
type LimitView struct {
	Value string `json:"value"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
}

// DebugView is the collapsible raw output panel.
type DebugView struct {
	Open bool   `json:"open"`
	Raw  string `json:"raw"`
}

// ResultsView is the results panel. When hidden all other fields are empty.
type ResultsView struct {
	Visible bool                  `json:"visible"`
	Shape   results.Shape         `json:"shape,omitempty"`
	Empty   results.EmptyState    `json:"empty,omitempty"`
	Message *results.EmptyMessage `json:"message,omitempty"`
	Cards   []results.Card        `json:"cards"`
	HTML    template.HTML         `json:"html"`
}

// View is a snapshot of everything the page displays.
type View struct {
	Mode          selection.Mode     `json:"mode"`
	Start         *PointView         `json:"start"`
	End           *PointView         `json:"end"`
	Markers       []selection.Marker `json:"markers"`
	Limit         LimitView          `json:"limit"`
	DepartureTime string             `json:"departureTime"`
	Status        Status             `json:"status"`
	SearchEnabled bool               `json:"searchEnabled"`
	Searching     bool               `json:"searching"`
	Debug         DebugView          `json:"debug"`
	Results       ResultsView        `json:"results"`
	Instructions  []string           `json:"instructions"`
}

// View returns a snapshot of the controller state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Mode:          c.selection.Mode(),
		Markers:       c.selection.Markers(),
		Limit:         LimitView{Value: c.limitText, Min: MinLimit, Max: MaxLimit},
		DepartureTime: c.departureTime,
		Status:        c.status,
		SearchEnabled: c.searchEnabled,
		Searching:     c.inFlight,
		Debug:         DebugView{Open: c.debugOpen, Raw: c.raw},
		Results:       ResultsView{Cards: []results.Card{}},
		Instructions:  Instructions,
	}
	if p, ok := c.selection.Start(); ok {
		v.Start = &PointView{Lat: p.Lat, Lng: p.Lng, Display: p.Display()}
	}
	if p, ok := c.selection.End(); ok {
		v.End = &PointView{Lat: p.Lat, Lng: p.Lng, Display: p.Display()}
	}

	if c.resultsVisible {
		v.Results = c.resultsView()
	}
	return v
}

func (c *Controller) resultsView() ResultsView {
	rv := ResultsView{
		Visible: true,
		Shape:   c.result.Shape,
		Empty:   c.result.Empty(),
		Cards:   c.result.Cards(c.loc),
	}
	if rv.Empty != results.EmptyNone {
		msg := results.MessageFor(rv.Empty)
		rv.Message = &msg
	}

	html, err := results.HTML(c.result, c.loc)
	if err != nil {
		c.log.Error("failed to render results", "error", err)
	}
	rv.HTML = html
	return rv
}

// MarkersGeoJSON returns the placed markers as a GeoJSON feature collection.
func (c *Controller) MarkersGeoJSON() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.selection.FeatureCollection().MarshalJSON()
}

// Result returns the last parsed response and whether the results panel is
// visible.
func (c *Controller) Result() (results.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.result, c.resultsVisible
}

// Package selection implements the start/end point state machine behind the
// map view: which point a click sets, marker replacement and mode switching.
package selection

import (
	"errors"

	"departure_finder/internal/geo"

	"github.com/paulmach/orb/geojson"
)

// Role identifies which end of the trip a marker stands for.
type Role string

const (
	RoleStart Role = "start"
	RoleEnd   Role = "end"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleStart || r == RoleEnd
}

// Mode decides which point the next map click sets.
type Mode string

const (
	SelectingStart Mode = "selecting_start"
	SelectingEnd   Mode = "selecting_end"
)

// ErrNoMarker is returned when a marker click targets a role that has no marker.
var ErrNoMarker = errors.New("no marker placed for this role")

// Icon describes how a marker is drawn.
type Icon struct {
	Symbol string `json:"symbol"`
	Color  string `json:"color"`
}

// IconFor returns the role-specific marker icon.
func IconFor(role Role) Icon {
	if role == RoleStart {
		return Icon{Symbol: "🟢", Color: "green"}
	}
	return Icon{Symbol: "🔴", Color: "red"}
}

// Marker is a placed point together with its role.
type Marker struct {
	Role  Role      `json:"role"`
	Point geo.Point `json:"point"`
	Icon  Icon      `json:"icon"`
}

// Selection holds at most one start and one end marker. The zero value is
// ready to use and starts in SelectingStart.
type Selection struct {
	start *Marker
	end   *Marker
	mode  Mode
}

// New returns an empty selection.
func New() *Selection {
	return &Selection{mode: SelectingStart}
}

// Mode returns the current selection mode.
func (s *Selection) Mode() Mode {
	if s.mode == "" {
		return SelectingStart
	}
	return s.mode
}

// Start returns the start point if one is set.
func (s *Selection) Start() (geo.Point, bool) {
	if s.start == nil {
		return geo.Point{}, false
	}
	return s.start.Point, true
}

// End returns the end point if one is set.
func (s *Selection) End() (geo.Point, bool) {
	if s.end == nil {
		return geo.Point{}, false
	}
	return s.end.Point, true
}

// Complete reports whether both points are set.
func (s *Selection) Complete() bool {
	return s.start != nil && s.end != nil
}

// Click applies a map click at p and returns the role whose point was set.
//
// With both points placed, the point nearer to p is replaced. Equal distances
// replace the end point.
func (s *Selection) Click(p geo.Point) Role {
	switch {
	case s.start == nil || s.Mode() == SelectingStart:
		s.Set(RoleStart, p)
		s.mode = SelectingEnd
		return RoleStart
	case s.end == nil:
		s.Set(RoleEnd, p)
		return RoleEnd
	}

	toStart := geo.Distance(p, s.start.Point)
	toEnd := geo.Distance(p, s.end.Point)
	if toStart < toEnd {
		s.Set(RoleStart, p)
		return RoleStart
	}
	s.Set(RoleEnd, p)
	return RoleEnd
}

// ClickMarker switches the mode to the clicked marker's role. The marker
// itself does not move.
func (s *Selection) ClickMarker(role Role) error {
	switch role {
	case RoleStart:
		if s.start == nil {
			return ErrNoMarker
		}
		s.mode = SelectingStart
	case RoleEnd:
		if s.end == nil {
			return ErrNoMarker
		}
		s.mode = SelectingEnd
	default:
		return errors.New("unknown marker role")
	}
	return nil
}

// Set places the marker for role at p, discarding any previous one. The mode
// is left untouched.
func (s *Selection) Set(role Role, p geo.Point) {
	marker := &Marker{Role: role, Point: p, Icon: IconFor(role)}
	if role == RoleStart {
		s.start = marker
		return
	}
	s.end = marker
}

// Place sets the point for role directly, as an address lookup does. Placing
// the start advances the mode the same way a first map click would.
func (s *Selection) Place(role Role, p geo.Point) {
	s.Set(role, p)
	if role == RoleStart {
		s.mode = SelectingEnd
	}
}

// Markers returns the placed markers, start first.
func (s *Selection) Markers() []Marker {
	markers := make([]Marker, 0, 2)
	if s.start != nil {
		markers = append(markers, *s.start)
	}
	if s.end != nil {
		markers = append(markers, *s.end)
	}
	return markers
}

// FeatureCollection renders the markers as GeoJSON point features carrying
// role, symbol and color properties.
func (s *Selection) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range s.Markers() {
		f := geojson.NewFeature(m.Point.Orb())
		f.Properties["role"] = string(m.Role)
		f.Properties["symbol"] = m.Icon.Symbol
		f.Properties["color"] = m.Icon.Color
		f.Properties["label"] = m.Point.Display()
		fc.Append(f)
	}
	return fc
}

package finder

import (
	"strconv"
	"testing"

	"departure_finder/internal/geo"
	"departure_finder/platform/validator"
)

func TestValidate_Tiers(t *testing.T) {
	val := validator.New()
	a := &geo.Point{Lat: 51.11, Lng: 17.03}
	b := &geo.Point{Lat: 51.10, Lng: 17.04}

	tests := []struct {
		name    string
		query   SearchQuery
		valid   bool
		message string
	}{
		{"nothing set", SearchQuery{}, false, msgMissingPoints},
		{"missing end beats bad limit", SearchQuery{Start: a, Limit: 0}, false, msgMissingPoints},
		{"missing start", SearchQuery{End: b, Limit: 5}, false, msgMissingPoints},
		{"limit too low", SearchQuery{Start: a, End: b, Limit: 0}, false, msgInvalidLimit},
		{"limit too high", SearchQuery{Start: a, End: b, Limit: 21}, false, msgInvalidLimit},
		{"lower bound", SearchQuery{Start: a, End: b, Limit: 1}, true, msgReady},
		{"upper bound", SearchQuery{Start: a, End: b, Limit: 20}, true, msgReady},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := Validate(val, tc.query)
			if v.Valid != tc.valid {
				t.Fatalf("expected valid=%v, got %v", tc.valid, v.Valid)
			}
			if v.Status.Message != tc.message {
				t.Fatalf("expected %q, got %q", tc.message, v.Status.Message)
			}
		})
	}
}

func TestValidate_EnabledIffPointsAndLimitInRange(t *testing.T) {
	val := validator.New()
	p := &geo.Point{Lat: 51.1, Lng: 17.0}

	for _, start := range []*geo.Point{nil, p} {
		for _, end := range []*geo.Point{nil, p} {
			for limit := -2; limit <= 23; limit++ {
				q := SearchQuery{Start: start, End: end, Limit: limit}
				want := start != nil && end != nil && limit >= MinLimit && limit <= MaxLimit
				if got := Validate(val, q).Valid; got != want {
					t.Fatalf("start=%v end=%v limit=%d: expected %v, got %v", start != nil, end != nil, limit, want, got)
				}
			}
		}
	}
}

func TestParseLimit(t *testing.T) {
	tests := map[string]int{"5": 5, " 12 ": 12, "20": 20, "-1": -1}
	for in, want := range tests {
		got, ok := ParseLimit(in)
		if !ok || got != want {
			t.Fatalf("ParseLimit(%q): expected %d, got %d (ok=%v)", in, want, got, ok)
		}
	}
	for _, in := range []string{"", "2.5", "abc", "1e1", strconv.Itoa(5) + "x"} {
		if _, ok := ParseLimit(in); ok {
			t.Fatalf("ParseLimit(%q): expected failure", in)
		}
	}
}

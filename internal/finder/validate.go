package finder

import (
	"strconv"
	"strings"

	"departure_finder/internal/geo"
	"departure_finder/platform/validator"
)

const (
	MinLimit     = 1
	MaxLimit     = 20
	DefaultLimit = 5
)

// Tone is the colour class of a status message.
type Tone string

const (
	ToneInfo    Tone = "info"
	ToneWarning Tone = "warning"
	ToneSuccess Tone = "success"
	ToneError   Tone = "error"
)

// Status is the single status line.
type Status struct {
	Message string `json:"message"`
	Tone    Tone   `json:"tone"`
}

const (
	msgMissingPoints = "Please select both start and destination points on the map"
	msgInvalidLimit  = "Please enter a valid number of departures (1-20)"
	msgReady         = "Ready to search for departures"
)

// SearchQuery is the form state checked before a search may run.
type SearchQuery struct {
	Start         *geo.Point `validate:"required"`
	End           *geo.Point `validate:"required"`
	DepartureTime string
	Limit         int `validate:"min=1,max=20"`
}

// Verdict is the outcome of validation.
type Verdict struct {
	Valid  bool
	Status Status
}

// ParseLimit reads the limit field. Only base-10 integers are accepted.
func ParseLimit(text string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Validate is a pure check of q. Missing points take priority over an
// invalid limit.
func Validate(val *validator.Validator, q SearchQuery) Verdict {
	failed := validator.FailedFields(val.Struct(q))

	switch {
	case failed["Start"] || failed["End"]:
		return Verdict{Status: Status{Message: msgMissingPoints, Tone: ToneWarning}}
	case failed["Limit"]:
		return Verdict{Status: Status{Message: msgInvalidLimit, Tone: ToneWarning}}
	default:
		return Verdict{Valid: true, Status: Status{Message: msgReady, Tone: ToneSuccess}}
	}
}

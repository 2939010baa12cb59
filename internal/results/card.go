package results

import (
	"math"
	"strconv"
	"time"
)

// Card is the display form of one departure.
type Card struct {
	Index    int    `json:"index"`
	Line     string `json:"line"`
	Headsign string `json:"headsign"`
	Stop     string `json:"stop"`
	Time     string `json:"time"`
	Distance string `json:"distance,omitempty"`
}

// Label is the card number shown in the corner, "#1" for the first card.
func (c Card) Label() string {
	return "#" + strconv.Itoa(c.Index)
}

// timeLayouts are tried in order. Layouts without a zone are read in the
// display location.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC1123Z,
	time.RFC1123,
}

// Cards builds one card per record, numbered from 1 in input order.
func (r Result) Cards(loc *time.Location) []Card {
	if loc == nil {
		loc = time.Local
	}

	cards := make([]Card, 0, len(r.Records))
	for i, record := range r.Records {
		cards = append(cards, NewCard(record, i+1, loc))
	}
	return cards
}

// NewCard resolves every logical field of record.
func NewCard(record Record, index int, loc *time.Location) Card {
	card := Card{
		Index:    index,
		Stop:     LookupString(record, StopAliases, UnknownStop),
		Line:     LookupString(record, LineAliases, UnknownLine),
		Headsign: LookupString(record, HeadsignAliases, UnknownDestination),
		Time:     UnknownTime,
	}

	if v, ok := Lookup(record, TimeAliases); ok {
		card.Time = FormatTime(v, loc)
	}
	if v, ok := Lookup(record, DistanceAliases); ok {
		if metres, ok := v.Float(); ok {
			card.Distance = FormatDistance(metres)
		}
	}
	return card
}

// FormatTime shows a parseable date/time as 24-hour HH:MM in loc and
// anything else verbatim.
func FormatTime(v Value, loc *time.Location) string {
	text := v.String()
	if _, ok := v.Raw().(string); !ok {
		return text
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t.In(loc).Format("15:04")
		}
	}
	return text
}

// FormatDistance rounds to the nearest whole metre, halves rounding up.
func FormatDistance(metres float64) string {
	return strconv.FormatFloat(math.Floor(metres+0.5), 'f', 0, 64) + "m"
}

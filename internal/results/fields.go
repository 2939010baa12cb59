package results

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Alias lists per logical field, in resolution order. Dotted names descend
// into nested objects, which is how the reference service nests its stop.
var (
	StopAliases     = []string{"stop_name", "stopName", "name", "stop.name"}
	LineAliases     = []string{"route_short_name", "line_id", "lineId", "route_id"}
	HeadsignAliases = []string{"trip_headsign", "headsign", "destination", "direction"}
	TimeAliases     = []string{"departure_time", "departureTime", "scheduled_time", "time", "stop.departure_time"}
	DistanceAliases = []string{"distance", "distance_meters", "distance_start_to_stop"}
)

// Placeholders used when no alias resolves.
const (
	UnknownStop        = "Unknown Stop"
	UnknownLine        = "Unknown Line"
	UnknownDestination = "Unknown Destination"
	UnknownTime        = "Unknown Time"
)

// Value is a resolved field value.
type Value struct {
	raw interface{}
}

// Lookup returns the first alias whose value is present. Missing keys, null,
// empty strings, false and numeric zero count as absent.
func Lookup(r Record, aliases []string) (Value, bool) {
	for _, alias := range aliases {
		value, ok := dig(r, alias)
		if ok && present(value) {
			return Value{raw: value}, true
		}
	}
	return Value{}, false
}

// LookupString resolves aliases to text, falling back to placeholder.
func LookupString(r Record, aliases []string, placeholder string) string {
	if v, ok := Lookup(r, aliases); ok {
		return v.String()
	}
	return placeholder
}

func dig(r Record, path string) (interface{}, bool) {
	var current interface{} = map[string]interface{}(r)
	for _, key := range strings.Split(path, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func present(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case json.Number:
		f, err := v.Float64()
		return err != nil || f != 0
	case float64:
		return v != 0
	default:
		return true
	}
}

// String renders the value as display text.
func (v Value) String() string {
	switch raw := v.raw.(type) {
	case string:
		return raw
	case json.Number:
		return raw.String()
	case float64:
		return strconv.FormatFloat(raw, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(raw)
	case nil:
		return ""
	default:
		encoded, err := json.Marshal(raw)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}

// Float returns the value as a number when it is numeric or a numeric string.
func (v Value) Float() (float64, bool) {
	switch raw := v.raw.(type) {
	case json.Number:
		f, err := raw.Float64()
		return f, err == nil
	case float64:
		return raw, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Raw returns the underlying decoded value.
func (v Value) Raw() interface{} {
	return v.raw
}

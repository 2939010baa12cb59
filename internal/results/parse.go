// Package results turns the departures service's loosely typed JSON into
// numbered departure cards and renders them as HTML or plain text.
package results

import (
	"bytes"
	"encoding/json"
)

// Shape tells how the response body was recognised.
type Shape string

const (
	// ShapeList means a departure list was found, possibly empty.
	ShapeList Shape = "list"
	// ShapeUnknown means the body had none of the accepted shapes.
	ShapeUnknown Shape = "unknown"
)

// listFields are the object fields checked, in order, for the departure array.
var listFields = []string{"departures", "results"}

// Record is one departure entry. Items that are not JSON objects become empty
// records so they still produce a card in their position.
type Record map[string]interface{}

// Result is the validated response.
type Result struct {
	Shape   Shape    `json:"shape"`
	Records []Record `json:"-"`
}

// Parse decodes body and recognises a bare array, or an object carrying an
// array under "departures" or else "results". Anything else yields
// ShapeUnknown. Only malformed JSON is an error.
func Parse(body []byte) (Result, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return Result{}, err
	}
	return fromValue(value), nil
}

// fromValue applies the shape rules to an already decoded value.
func fromValue(value interface{}) Result {
	items, ok := listOf(value)
	if !ok {
		return Result{Shape: ShapeUnknown}
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		obj, _ := item.(map[string]interface{})
		if obj == nil {
			obj = map[string]interface{}{}
		}
		records = append(records, Record(obj))
	}
	return Result{Shape: ShapeList, Records: records}
}

func listOf(value interface{}) ([]interface{}, bool) {
	switch v := value.(type) {
	case []interface{}:
		return v, true
	case map[string]interface{}:
		for _, field := range listFields {
			if items, ok := v[field].([]interface{}); ok {
				return items, true
			}
		}
	}
	return nil, false
}

// EmptyState names which empty message applies, or "" when there are cards.
type EmptyState string

const (
	EmptyNone          EmptyState = ""
	EmptyNoDepartures  EmptyState = "no_departures"
	EmptyUnknownFormat EmptyState = "unknown_format"
)

// Empty reports the empty state of r.
func (r Result) Empty() EmptyState {
	if r.Shape != ShapeList {
		return EmptyUnknownFormat
	}
	if len(r.Records) == 0 {
		return EmptyNoDepartures
	}
	return EmptyNone
}

// EmptyMessage is the headline and hint shown for an empty state.
type EmptyMessage struct {
	Title string `json:"title"`
	Hint  string `json:"hint"`
}

// MessageFor returns the message for state. EmptyNone has no message.
func MessageFor(state EmptyState) EmptyMessage {
	switch state {
	case EmptyNoDepartures:
		return EmptyMessage{
			Title: "🚌 No departures found",
			Hint:  "Try adjusting your search criteria or check if the API is working correctly",
		}
	case EmptyUnknownFormat:
		return EmptyMessage{
			Title: "🤷 No departure data received",
			Hint:  "The API response format might be different than expected",
		}
	default:
		return EmptyMessage{}
	}
}

package finder

// MapClickRequest is a click on the map.
type MapClickRequest struct {
	Lat *float64 `json:"lat" binding:"required,latitude"`
	Lng *float64 `json:"lng" binding:"required,longitude"`
}

// FieldRequest carries the raw text of a form field.
type FieldRequest struct {
	Value string `json:"value"`
}

// AddressRequest asks to place a point at a looked up address.
type AddressRequest struct {
	Query string `json:"query" binding:"required,min=3"`
}

// AddressResponse is the view after placing a point, plus the matched label.
type AddressResponse struct {
	Label string `json:"label"`
	View  View   `json:"view"`
}

// ToggleResponse reports the diagnostic panel state.
type ToggleResponse struct {
	Open bool `json:"open"`
	View View `json:"view"`
}

package models

// Weather is a snapshot of current conditions at the user's location, used
// to adjust the daily hydration goal.
type Weather struct {
	TemperatureC float64   `json:"temperature"`
	Humidity     float64   `json:"humidity"`
	Description  string    `json:"description,omitempty"`
	FetchedAt    Timestamp `json:"fetchedAt"`
}

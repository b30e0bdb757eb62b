package domain

import "time"

// Mode identifies a transit mode in the daily ridership series.
type Mode string

const (
	ModeSubway Mode = "subway"
	ModeBus    Mode = "bus"
)

// DateLayout is the canonical string form of a date key.
const DateLayout = "2006-01-02"

// DefaultStation is the Central Park GHCNd station, the first-order NYC
// station used when a weather row arrives without one.
const DefaultStation = "USW00094728"

// Boroughs is the closed set of valid borough labels, in canonical order.
var Boroughs = []string{"Bronx", "Brooklyn", "Manhattan", "Queens", "Staten Island"}

// WeatherDay is one day of GHCNd daily summaries for a station.
// Observations are nullable; a station can miss any field on a given day.
type WeatherDay struct {
	Date      time.Time `json:"date"`
	StationID string    `json:"station_id"`
	TmaxF     *float64  `json:"tmax_f"`
	TminF     *float64  `json:"tmin_f"`
	PrcpIn    *float64  `json:"prcp_in"`
	SnowIn    *float64  `json:"snow_in"`
}

// RidershipDay is one day of estimated ridership for a mode.
type RidershipDay struct {
	Date   time.Time `json:"date"`
	Mode   Mode      `json:"mode"`
	Riders int64     `json:"riders"`
	Source string    `json:"source,omitempty"`
}

// SubwayHour is one hour of subway ridership aggregated to borough level.
type SubwayHour struct {
	Date    time.Time `json:"date"`
	Hour    int       `json:"hour"`
	Borough string    `json:"borough"`
	Riders  int64     `json:"riders"`
	Source  string    `json:"source,omitempty"`
}

// EventDay is the number of permitted events in a borough on a date.
type EventDay struct {
	Date       time.Time `json:"date"`
	Borough    string    `json:"borough"`
	EventCount int64     `json:"event_count"`
}

// Day truncates t to UTC midnight, the canonical date representation.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsWeekend reports whether the date falls on a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Float64 returns a pointer to v. Convenience for nullable metric fields.
func Float64(v float64) *float64 { return &v }

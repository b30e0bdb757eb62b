package analytics

import (
	"time"

	"github.com/couchcryptid/transit-metrics-service/internal/domain"
)

// DailyJoined is one daily ridership row joined to weather flags and the
// systemwide event count. Weather fields are nil on dates with no weather
// row; the event count defaults to 0 when no events were recorded.
type DailyJoined struct {
	Date       time.Time   `json:"date"`
	Mode       domain.Mode `json:"mode"`
	Riders     int64       `json:"riders"`
	TmaxF      *float64    `json:"tmax_f"`
	PrcpIn     *float64    `json:"prcp_in"`
	WetDay     *bool       `json:"wet_day"`
	HotDay     *bool       `json:"hot_day"`
	ColdDay    *bool       `json:"cold_day"`
	EventCount int64       `json:"event_count"`
}

// DailyRolling extends a joined daily row with its rolling metrics.
type DailyRolling struct {
	DailyJoined

	RidersMA7         *float64 `json:"riders_ma7"`
	RidersMA28        *float64 `json:"riders_ma28"`
	RidersBaseline180 *float64 `json:"riders_baseline_180"`
	PctDeltaVs180     *float64 `json:"pct_delta_vs_180"`
}

// RushHour is the per-day, per-borough peak-to-average hourly ratio.
type RushHour struct {
	Date       time.Time `json:"date"`
	Borough    string    `json:"borough"`
	AvgHourly  float64   `json:"avg_hourly"`
	PeakHourly int64     `json:"peak_hourly"`
	Multiplier *float64  `json:"rush_hour_multiplier"`
}

// WeekendFactor is the per-borough, per-hour weekend-to-weekday ridership
// ratio over all history. Averages are nil when no rows of that kind exist.
type WeekendFactor struct {
	Borough    string   `json:"borough"`
	Hour       int      `json:"hour"`
	WeekendAvg *float64 `json:"weekend_avg"`
	WeekdayAvg *float64 `json:"weekday_avg"`
	Factor     *float64 `json:"weekend_factor"`
}

// HourlyAnomaly is an hourly row with its trailing z-score.
type HourlyAnomaly struct {
	Date    time.Time `json:"date"`
	Hour    int       `json:"hour"`
	Borough string    `json:"borough"`
	Riders  int64     `json:"riders"`
	ZScore  *float64  `json:"zscore"`
}

package analytics

import (
	"github.com/couchcryptid/transit-metrics-service/internal/domain"
)

// Default dashboard slices: roughly a year for daily series and two months
// for the denser hourly series.
const (
	DefaultDailyDays  = 365
	DefaultHourlyDays = 60
)

// LastDaysDaily returns the rows with date >= today - days. Input ordering
// is preserved, so slicing an AddRollingMetrics result stays sorted by
// (date, mode).
func LastDaysDaily(rows []DailyRolling, days int) []DailyRolling {
	cutoff := domain.Today().AddDate(0, 0, -days)
	out := make([]DailyRolling, 0, len(rows))
	for _, r := range rows {
		if !r.Date.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// LastDaysJoined returns the joined rows with date >= today - days.
func LastDaysJoined(rows []DailyJoined, days int) []DailyJoined {
	cutoff := domain.Today().AddDate(0, 0, -days)
	out := make([]DailyJoined, 0, len(rows))
	for _, r := range rows {
		if !r.Date.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// LastDaysHourly returns the hourly anomaly rows with date >= today - days.
// Slicing a HourlyAnomalies result stays sorted by (date, hour, borough).
func LastDaysHourly(rows []HourlyAnomaly, days int) []HourlyAnomaly {
	cutoff := domain.Today().AddDate(0, 0, -days)
	out := make([]HourlyAnomaly, 0, len(rows))
	for _, r := range rows {
		if !r.Date.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// LastDaysRushHour returns the rush-hour rows with date >= today - days.
func LastDaysRushHour(rows []RushHour, days int) []RushHour {
	cutoff := domain.Today().AddDate(0, 0, -days)
	out := make([]RushHour, 0, len(rows))
	for _, r := range rows {
		if !r.Date.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

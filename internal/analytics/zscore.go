package analytics

import (
	"math"
	"sort"

	"github.com/couchcryptid/transit-metrics-service/internal/domain"
)

// ZScoreWindow is the trailing window, in rows, used for hourly anomaly
// scores. Each (borough, hour) partition has one row per day, so 28 rows is
// four weeks of history for that hour slot.
const ZScoreWindow = 28

// HourlyAnomalies scores each hourly row against the trailing window of the
// same (borough, hour) partition ordered by date:
//
//	z = (riders - mean(prior)) / popstddev(prior)
//
// where prior is up to ZScoreWindow rows strictly before the current row.
// The score is nil when fewer than 2 prior rows exist or the prior window
// has zero population standard deviation. Sorted by (date, hour, borough).
func HourlyAnomalies(hourly []domain.SubwayHour) []HourlyAnomaly {
	sorted := make([]domain.SubwayHour, len(hourly))
	copy(sorted, hourly)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Borough != sorted[j].Borough {
			return sorted[i].Borough < sorted[j].Borough
		}
		if sorted[i].Hour != sorted[j].Hour {
			return sorted[i].Hour < sorted[j].Hour
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := make([]HourlyAnomaly, len(sorted))
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i == len(sorted) || sorted[i].Borough != sorted[start].Borough || sorted[i].Hour != sorted[start].Hour {
			scorePartition(sorted[start:i], out[start:i])
			start = i
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].Hour != out[j].Hour {
			return out[i].Hour < out[j].Hour
		}
		return out[i].Borough < out[j].Borough
	})
	return out
}

// scorePartition fills z-scores for one (borough, hour) date-ordered series.
func scorePartition(rows []domain.SubwayHour, out []HourlyAnomaly) {
	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = float64(r.Riders)
	}

	for i, r := range rows {
		out[i] = HourlyAnomaly{
			Date:    domain.Day(r.Date),
			Hour:    r.Hour,
			Borough: r.Borough,
			Riders:  r.Riders,
		}

		prior := trailing(values, i, ZScoreWindow, false)
		if len(prior) < 2 {
			continue
		}
		m, sd := meanStdDev(prior)
		if sd == 0 {
			continue
		}
		out[i].ZScore = domain.Float64((values[i] - m) / sd)
	}
}

// meanStdDev returns the mean and population standard deviation of values.
func meanStdDev(values []float64) (float64, float64) {
	m := mean(values)
	var varianceSum float64
	for _, v := range values {
		diff := v - m
		varianceSum += diff * diff
	}
	return m, math.Sqrt(varianceSum / float64(len(values)))
}

package analytics

import (
	"sort"
	"time"

	"github.com/couchcryptid/transit-metrics-service/internal/domain"
)

// RushHourMultipliers aggregates hourly rows to one row per (date, borough):
// the mean and peak hourly ridership for that day, and their ratio
// peak / mean. The multiplier is nil when the mean is zero (a day of all-zero
// hours). Sorted by (date, borough).
func RushHourMultipliers(hourly []domain.SubwayHour) []RushHour {
	type key struct {
		date    time.Time
		borough string
	}
	type acc struct {
		sum   int64
		count int64
		peak  int64
	}

	accs := make(map[key]*acc)
	for _, h := range hourly {
		k := key{date: domain.Day(h.Date), borough: h.Borough}
		a, ok := accs[k]
		if !ok {
			a = &acc{}
			accs[k] = a
		}
		a.sum += h.Riders
		a.count++
		if h.Riders > a.peak {
			a.peak = h.Riders
		}
	}

	out := make([]RushHour, 0, len(accs))
	for k, a := range accs {
		avg := float64(a.sum) / float64(a.count)
		row := RushHour{
			Date:       k.date,
			Borough:    k.borough,
			AvgHourly:  avg,
			PeakHourly: a.peak,
		}
		if avg != 0 {
			row.Multiplier = domain.Float64(float64(a.peak) / avg)
		}
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Borough < out[j].Borough
	})
	return out
}

package analytics

import (
	"sort"

	"github.com/couchcryptid/transit-metrics-service/internal/domain"
)

// WeekendFactors computes, for every (borough, hour) seen in the history,
// the mean weekend ridership divided by the mean weekday ridership. The
// factor is nil when the weekday mean is zero or no weekday rows exist; each
// average is nil when no rows of its kind exist. Sorted by (borough, hour).
func WeekendFactors(hourly []domain.SubwayHour) []WeekendFactor {
	type key struct {
		borough string
		hour    int
	}
	type acc struct {
		weekendSum, weekdaySum     int64
		weekendCount, weekdayCount int64
	}

	accs := make(map[key]*acc)
	for _, h := range hourly {
		k := key{borough: h.Borough, hour: h.Hour}
		a, ok := accs[k]
		if !ok {
			a = &acc{}
			accs[k] = a
		}
		if domain.IsWeekend(h.Date) {
			a.weekendSum += h.Riders
			a.weekendCount++
		} else {
			a.weekdaySum += h.Riders
			a.weekdayCount++
		}
	}

	out := make([]WeekendFactor, 0, len(accs))
	for k, a := range accs {
		row := WeekendFactor{Borough: k.borough, Hour: k.hour}
		if a.weekendCount > 0 {
			row.WeekendAvg = domain.Float64(float64(a.weekendSum) / float64(a.weekendCount))
		}
		if a.weekdayCount > 0 {
			row.WeekdayAvg = domain.Float64(float64(a.weekdaySum) / float64(a.weekdayCount))
		}
		if row.WeekendAvg != nil && row.WeekdayAvg != nil && *row.WeekdayAvg != 0 {
			row.Factor = domain.Float64(*row.WeekendAvg / *row.WeekdayAvg)
		}
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Borough != out[j].Borough {
			return out[i].Borough < out[j].Borough
		}
		return out[i].Hour < out[j].Hour
	})
	return out
}

package analytics

import (
	"sort"

	"github.com/couchcryptid/transit-metrics-service/internal/domain"
)

// Window sizes for the daily rolling metrics, in rows (one row per day).
const (
	ma7Window      = 7
	ma28Window     = 28
	ma28MinPeriods = 7
	baselineWindow = 180
)

// AddRollingMetrics computes the rolling metrics for each joined daily row,
// partitioned by mode and ordered by date:
//
//   - riders_ma7: trailing 7-row mean including the current row, defined
//     from the first row (the window narrows at the start of a partition).
//   - riders_ma28: trailing 28-row mean including the current row, nil until
//     the partition has at least 7 rows.
//   - riders_baseline_180: trailing 180-row mean excluding the current row.
//     The window narrows near the partition start; nil only for the first
//     row, which has no prior rows at all.
//   - pct_delta_vs_180: (riders - baseline) / baseline, nil when the
//     baseline is nil or exactly zero.
func AddRollingMetrics(rows []DailyJoined) []DailyRolling {
	sorted := make([]DailyJoined, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Mode != sorted[j].Mode {
			return sorted[i].Mode < sorted[j].Mode
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := make([]DailyRolling, len(sorted))
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i == len(sorted) || sorted[i].Mode != sorted[start].Mode {
			rollPartition(sorted[start:i], out[start:i])
			start = i
		}
	}

	// Present the combined series in (date, mode) order like the joined view.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Mode < out[j].Mode
	})
	return out
}

// rollPartition fills rolling metrics for one mode's date-ordered rows.
func rollPartition(rows []DailyJoined, out []DailyRolling) {
	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = float64(r.Riders)
	}

	for i := range rows {
		row := DailyRolling{DailyJoined: rows[i]}

		row.RidersMA7 = domain.Float64(mean(trailing(values, i, ma7Window, true)))

		if i+1 >= ma28MinPeriods {
			row.RidersMA28 = domain.Float64(mean(trailing(values, i, ma28Window, true)))
		}

		if prior := trailing(values, i, baselineWindow, false); len(prior) > 0 {
			row.RidersBaseline180 = domain.Float64(mean(prior))
		}

		row.PctDeltaVs180 = pctDelta(values[i], row.RidersBaseline180)
		out[i] = row
	}
}

// trailing returns the window of up to size rows ending at index i,
// including row i itself when inclusive is set. The slice narrows at the
// start of the series rather than being padded or rejected.
func trailing(values []float64, i, size int, inclusive bool) []float64 {
	end := i
	if inclusive {
		end = i + 1
	}
	start := end - size
	if start < 0 {
		start = 0
	}
	return values[start:end]
}

// pctDelta computes (value - baseline) / baseline with the nil/zero guard.
func pctDelta(value float64, baseline *float64) *float64 {
	if baseline == nil || *baseline == 0 {
		return nil
	}
	return domain.Float64((value - *baseline) / *baseline)
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

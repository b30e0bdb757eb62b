package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/couchcryptid/transit-metrics-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hourlyRows(borough string, hour int, start time.Time, riders ...int64) []domain.SubwayHour {
	rows := make([]domain.SubwayHour, len(riders))
	for i, r := range riders {
		rows[i] = domain.SubwayHour{Date: start.AddDate(0, 0, i), Hour: hour, Borough: borough, Riders: r}
	}
	return rows
}

func TestHourlyAnomalies(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("nil with fewer than two prior rows", func(t *testing.T) {
		out := HourlyAnomalies(hourlyRows("Manhattan", 8, start, 100, 200, 300))

		require.Len(t, out, 3)
		assert.Nil(t, out[0].ZScore)
		assert.Nil(t, out[1].ZScore)
		assert.NotNil(t, out[2].ZScore)
	})

	t.Run("nil when the trailing window is flat", func(t *testing.T) {
		out := HourlyAnomalies(hourlyRows("Manhattan", 8, start, 500, 500, 500, 900))

		require.Len(t, out, 4)
		assert.Nil(t, out[3].ZScore)
	})

	t.Run("population stddev over prior rows", func(t *testing.T) {
		out := HourlyAnomalies(hourlyRows("Manhattan", 8, start, 100, 300, 500))

		// Prior rows for the third entry are 100 and 300: mean 200,
		// population stddev 100, so z = (500 - 200) / 100.
		require.NotNil(t, out[2].ZScore)
		assert.InDelta(t, 3.0, *out[2].ZScore, 1e-9)
	})

	t.Run("window excludes the current row", func(t *testing.T) {
		out := HourlyAnomalies(hourlyRows("Manhattan", 8, start, 100, 300, 200))

		// If the 200 were included its own z-score would be 0.
		require.NotNil(t, out[2].ZScore)
		assert.InDelta(t, 0.0, *out[2].ZScore, 1e-9)
	})

	t.Run("window caps at 28 prior rows", func(t *testing.T) {
		riders := make([]int64, 30)
		riders[0] = 1_000_000 // should age out of the window
		for i := 1; i < 29; i++ {
			riders[i] = int64(100 + i%2)
		}
		riders[29] = 100
		out := HourlyAnomalies(hourlyRows("Manhattan", 8, start, riders...))

		last := out[len(out)-1]
		require.NotNil(t, last.ZScore)
		assert.Less(t, math.Abs(*last.ZScore), 2.0)
	})

	t.Run("windows reset per borough and hour", func(t *testing.T) {
		rows := append(
			hourlyRows("Manhattan", 8, start, 100, 200, 300),
			hourlyRows("Brooklyn", 8, start, 100, 200, 300)...,
		)
		rows = append(rows, hourlyRows("Manhattan", 9, start, 100, 200, 300)...)
		out := HourlyAnomalies(rows)

		scored := 0
		for _, r := range out {
			if r.ZScore != nil {
				scored++
			}
		}
		assert.Equal(t, 3, scored) // one per partition
	})

	t.Run("output sorted by date, hour, borough", func(t *testing.T) {
		rows := []domain.SubwayHour{
			{Date: start.AddDate(0, 0, 1), Hour: 8, Borough: "Manhattan", Riders: 1},
			{Date: start, Hour: 9, Borough: "Brooklyn", Riders: 2},
			{Date: start, Hour: 8, Borough: "Queens", Riders: 3},
			{Date: start, Hour: 8, Borough: "Brooklyn", Riders: 4},
		}
		out := HourlyAnomalies(rows)

		require.Len(t, out, 4)
		assert.Equal(t, "Brooklyn", out[0].Borough)
		assert.Equal(t, "Queens", out[1].Borough)
		assert.Equal(t, 9, out[2].Hour)
		assert.Equal(t, start.AddDate(0, 0, 1), out[3].Date)
	})
}

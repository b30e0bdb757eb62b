package analytics

import (
	"testing"
	"time"

	"github.com/couchcryptid/transit-metrics-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dailyRows(mode domain.Mode, start time.Time, riders ...int64) []DailyJoined {
	rows := make([]DailyJoined, len(riders))
	for i, r := range riders {
		rows[i] = DailyJoined{Date: start.AddDate(0, 0, i), Mode: mode, Riders: r}
	}
	return rows
}

func TestAddRollingMetrics_MA7(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("first row equals its own riders", func(t *testing.T) {
		out := AddRollingMetrics(dailyRows(domain.ModeSubway, start, 150, 250))

		require.Len(t, out, 2)
		require.NotNil(t, out[0].RidersMA7)
		assert.Equal(t, 150.0, *out[0].RidersMA7)
		require.NotNil(t, out[1].RidersMA7)
		assert.Equal(t, 200.0, *out[1].RidersMA7)
	})

	t.Run("seventh row averages the full window", func(t *testing.T) {
		out := AddRollingMetrics(dailyRows(domain.ModeSubway, start, 100, 200, 300, 400, 500, 600, 700))

		require.Len(t, out, 7)
		require.NotNil(t, out[6].RidersMA7)
		assert.Equal(t, 400.0, *out[6].RidersMA7)
	})

	t.Run("window slides past the seventh row", func(t *testing.T) {
		out := AddRollingMetrics(dailyRows(domain.ModeSubway, start, 100, 200, 300, 400, 500, 600, 700, 800))

		require.NotNil(t, out[7].RidersMA7)
		assert.Equal(t, 500.0, *out[7].RidersMA7) // mean(200..800)
	})
}

func TestAddRollingMetrics_MA28(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	riders := make([]int64, 10)
	for i := range riders {
		riders[i] = 100
	}
	out := AddRollingMetrics(dailyRows(domain.ModeSubway, start, riders...))

	t.Run("nil before seven rows", func(t *testing.T) {
		for i := 0; i < 6; i++ {
			assert.Nil(t, out[i].RidersMA28, "row %d", i)
		}
	})

	t.Run("defined from the seventh row", func(t *testing.T) {
		for i := 6; i < len(out); i++ {
			require.NotNil(t, out[i].RidersMA28, "row %d", i)
			assert.Equal(t, 100.0, *out[i].RidersMA28)
		}
	})
}

func TestAddRollingMetrics_Baseline180(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("nil on the first row", func(t *testing.T) {
		out := AddRollingMetrics(dailyRows(domain.ModeSubway, start, 100))
		assert.Nil(t, out[0].RidersBaseline180)
		assert.Nil(t, out[0].PctDeltaVs180)
	})

	t.Run("narrows instead of requiring a full window", func(t *testing.T) {
		out := AddRollingMetrics(dailyRows(domain.ModeSubway, start, 100, 200, 300))

		require.NotNil(t, out[1].RidersBaseline180)
		assert.Equal(t, 100.0, *out[1].RidersBaseline180) // mean of the single prior row
		require.NotNil(t, out[2].RidersBaseline180)
		assert.Equal(t, 150.0, *out[2].RidersBaseline180) // mean(100, 200)
	})

	t.Run("excludes the current row", func(t *testing.T) {
		out := AddRollingMetrics(dailyRows(domain.ModeSubway, start, 100, 1_000_000))

		require.NotNil(t, out[1].RidersBaseline180)
		assert.Equal(t, 100.0, *out[1].RidersBaseline180)
	})

	t.Run("caps at 180 prior rows", func(t *testing.T) {
		// 181 rows of value 0 followed by a spike: the baseline for the last
		// row must only see the trailing 180 rows, all zero.
		riders := make([]int64, 182)
		riders[0] = 999_999
		out := AddRollingMetrics(dailyRows(domain.ModeSubway, start, riders...))

		last := out[len(out)-1]
		require.NotNil(t, last.RidersBaseline180)
		assert.Equal(t, 0.0, *last.RidersBaseline180)
	})
}

func TestAddRollingMetrics_PctDelta(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("nil when baseline is zero", func(t *testing.T) {
		out := AddRollingMetrics(dailyRows(domain.ModeSubway, start, 0, 500))

		require.NotNil(t, out[1].RidersBaseline180)
		assert.Equal(t, 0.0, *out[1].RidersBaseline180)
		assert.Nil(t, out[1].PctDeltaVs180)
	})

	t.Run("computed against the trailing baseline", func(t *testing.T) {
		out := AddRollingMetrics(dailyRows(domain.ModeSubway, start, 100, 150))

		require.NotNil(t, out[1].PctDeltaVs180)
		assert.InDelta(t, 0.5, *out[1].PctDeltaVs180, 1e-9)
	})
}

func TestAddRollingMetrics_Partitions(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := append(
		dailyRows(domain.ModeSubway, start, 100, 200),
		dailyRows(domain.ModeBus, start, 1000, 2000)...,
	)
	out := AddRollingMetrics(rows)
	require.Len(t, out, 4)

	t.Run("windows reset per mode", func(t *testing.T) {
		byKey := make(map[string]DailyRolling)
		for _, r := range out {
			byKey[r.Date.Format(domain.DateLayout)+"|"+string(r.Mode)] = r
		}

		bus := byKey["2024-01-02|bus"]
		require.NotNil(t, bus.RidersMA7)
		assert.Equal(t, 1500.0, *bus.RidersMA7)
		require.NotNil(t, bus.RidersBaseline180)
		assert.Equal(t, 1000.0, *bus.RidersBaseline180) // bus history only

		subway := byKey["2024-01-02|subway"]
		require.NotNil(t, subway.RidersBaseline180)
		assert.Equal(t, 100.0, *subway.RidersBaseline180)
	})

	t.Run("output sorted by date then mode", func(t *testing.T) {
		assert.Equal(t, domain.ModeBus, out[0].Mode)
		assert.Equal(t, domain.ModeSubway, out[1].Mode)
		assert.True(t, out[1].Date.Before(out[2].Date))
	})
}

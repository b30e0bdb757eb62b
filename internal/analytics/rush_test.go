package analytics

import (
	"testing"
	"time"

	"github.com/couchcryptid/transit-metrics-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRushHourMultipliers(t *testing.T) {
	date := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

	t.Run("multiplier is peak over average", func(t *testing.T) {
		out := RushHourMultipliers([]domain.SubwayHour{
			{Date: date, Hour: 7, Borough: "Manhattan", Riders: 100},
			{Date: date, Hour: 8, Borough: "Manhattan", Riders: 300},
			{Date: date, Hour: 9, Borough: "Manhattan", Riders: 200},
		})

		require.Len(t, out, 1)
		assert.Equal(t, "Manhattan", out[0].Borough)
		assert.Equal(t, 200.0, out[0].AvgHourly)
		assert.Equal(t, int64(300), out[0].PeakHourly)
		require.NotNil(t, out[0].Multiplier)
		assert.InDelta(t, 1.5, *out[0].Multiplier, 1e-9)
	})

	t.Run("nil multiplier when the average is zero", func(t *testing.T) {
		out := RushHourMultipliers([]domain.SubwayHour{
			{Date: date, Hour: 3, Borough: "Queens", Riders: 0},
			{Date: date, Hour: 4, Borough: "Queens", Riders: 0},
		})

		require.Len(t, out, 1)
		assert.Equal(t, 0.0, out[0].AvgHourly)
		assert.Nil(t, out[0].Multiplier)
	})

	t.Run("grouped by date and borough", func(t *testing.T) {
		out := RushHourMultipliers([]domain.SubwayHour{
			{Date: date, Hour: 8, Borough: "Manhattan", Riders: 10},
			{Date: date, Hour: 8, Borough: "Brooklyn", Riders: 20},
			{Date: date.AddDate(0, 0, 1), Hour: 8, Borough: "Manhattan", Riders: 30},
		})

		require.Len(t, out, 3)
		assert.Equal(t, "Brooklyn", out[0].Borough)
		assert.Equal(t, "Manhattan", out[1].Borough)
		assert.Equal(t, date.AddDate(0, 0, 1), out[2].Date)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, RushHourMultipliers(nil))
	})
}

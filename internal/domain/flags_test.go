package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeatherDayFlags(t *testing.T) {
	t.Run("wet day from any measurable precipitation", func(t *testing.T) {
		f := WeatherDay{PrcpIn: Float64(0.01)}.Flags()
		require.NotNil(t, f.WetDay)
		assert.True(t, *f.WetDay)

		f = WeatherDay{PrcpIn: Float64(0)}.Flags()
		require.NotNil(t, f.WetDay)
		assert.False(t, *f.WetDay)
	})

	t.Run("hot and cold from the daily high", func(t *testing.T) {
		f := WeatherDay{TmaxF: Float64(85)}.Flags()
		require.NotNil(t, f.HotDay)
		assert.True(t, *f.HotDay)
		require.NotNil(t, f.ColdDay)
		assert.False(t, *f.ColdDay)

		f = WeatherDay{TmaxF: Float64(32)}.Flags()
		assert.False(t, *f.HotDay)
		assert.True(t, *f.ColdDay)

		f = WeatherDay{TmaxF: Float64(60)}.Flags()
		assert.False(t, *f.HotDay)
		assert.False(t, *f.ColdDay)
	})

	t.Run("nil observations give nil flags", func(t *testing.T) {
		f := WeatherDay{}.Flags()
		assert.Nil(t, f.WetDay)
		assert.Nil(t, f.HotDay)
		assert.Nil(t, f.ColdDay)
	})
}

func TestDay(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	assert.Equal(t,
		time.Date(2024, 2, 11, 0, 0, 0, 0, time.UTC),
		Day(time.Date(2024, 2, 10, 23, 30, 0, 0, est)))
}

func TestIsWeekend(t *testing.T) {
	assert.True(t, IsWeekend(time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC)))  // Saturday
	assert.True(t, IsWeekend(time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC)))  // Sunday
	assert.False(t, IsWeekend(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))) // Friday
}

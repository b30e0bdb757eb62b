package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/transit-metrics-service/internal/analytics"
	"github.com/couchcryptid/transit-metrics-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	row := analytics.DailyRolling{
		DailyJoined: analytics.DailyJoined{
			Date:       date,
			Mode:       domain.ModeSubway,
			Riders:     3_200_000,
			EventCount: 5,
		},
		RidersMA7:     domain.Float64(3_100_000),
		PctDeltaVs180: domain.Float64(0.04),
	}

	msg, err := serializeToMessage(row)
	require.NoError(t, err)

	t.Run("keyed by date and mode", func(t *testing.T) {
		assert.Equal(t, "2024-06-01|subway", string(msg.Key))
	})

	t.Run("headers carry mode and date", func(t *testing.T) {
		require.Len(t, msg.Headers, 2)
		assert.Equal(t, "mode", msg.Headers[0].Key)
		assert.Equal(t, "subway", string(msg.Headers[0].Value))
		assert.Equal(t, "date", msg.Headers[1].Key)
		assert.Equal(t, date.Format(time.RFC3339), string(msg.Headers[1].Value))
	})

	t.Run("value is the JSON row", func(t *testing.T) {
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(msg.Value, &decoded))
		assert.Equal(t, "subway", decoded["mode"])
		assert.Equal(t, float64(3_200_000), decoded["riders"])
		assert.Equal(t, 0.04, decoded["pct_delta_vs_180"])
		assert.Nil(t, decoded["riders_ma28"])
	})
}

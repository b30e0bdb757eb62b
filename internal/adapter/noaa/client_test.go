package noaa

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/transit-metrics-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewClient("USW00094728", "", "test-agent", 5*time.Second, logger, observability.NewMetricsForTesting())
	c.baseURL = srv.URL
	return c
}

func TestFetchDailySummaries(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		fmt.Fprint(w, `[
			{"DATE": "2024-06-01", "STATION": "USW00094728", "TMAX": "88.0", "TMIN": "70.5", "PRCP": "0.12", "SNOW": "0.0"},
			{"DATE": "2024-06-02", "STATION": "USW00094728", "TMAX": "", "TMIN": "bad", "PRCP": "0.00", "SNOW": ""},
			{"DATE": "June 3rd", "STATION": "USW00094728"}
		]`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	rows, err := c.FetchDailySummaries(context.Background(),
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	t.Run("requests standard units for the station range", func(t *testing.T) {
		assert.Equal(t, "daily-summaries", gotQuery["dataset"])
		assert.Equal(t, "USW00094728", gotQuery["stations"])
		assert.Equal(t, "2024-06-01", gotQuery["startDate"])
		assert.Equal(t, "2024-06-03", gotQuery["endDate"])
		assert.Equal(t, "standard", gotQuery["units"])
		assert.Equal(t, "json", gotQuery["format"])
	})

	t.Run("parses observations", func(t *testing.T) {
		require.NotNil(t, rows[0].TmaxF)
		assert.Equal(t, 88.0, *rows[0].TmaxF)
		require.NotNil(t, rows[0].TminF)
		assert.Equal(t, 70.5, *rows[0].TminF)
		require.NotNil(t, rows[0].PrcpIn)
		assert.Equal(t, 0.12, *rows[0].PrcpIn)
	})

	t.Run("missing or malformed values stay nil", func(t *testing.T) {
		assert.Nil(t, rows[1].TmaxF)
		assert.Nil(t, rows[1].TminF)
		assert.Nil(t, rows[1].SnowIn)
		require.NotNil(t, rows[1].PrcpIn)
		assert.Equal(t, 0.0, *rows[1].PrcpIn)
	})
}

func TestFetchDailySummariesRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `[{"DATE": "2024-06-01", "STATION": "USW00094728", "TMAX": "80"}]`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	rows, err := c.FetchDailySummaries(context.Background(),
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, calls)
}

func TestFetchDailySummariesClientError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.FetchDailySummaries(context.Background(),
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, 1, calls)
}

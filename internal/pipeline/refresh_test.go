package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/transit-metrics-service/internal/analytics"
	"github.com/couchcryptid/transit-metrics-service/internal/domain"
	"github.com/couchcryptid/transit-metrics-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSources struct {
	ridership    []domain.RidershipDay
	hourly       []domain.SubwayHour
	weather      []domain.WeatherDay
	events       []domain.EventDay
	ridershipErr error

	gotStart, gotEnd time.Time
}

func (f *fakeSources) FetchDailyRidership(_ context.Context, start, end time.Time) ([]domain.RidershipDay, error) {
	f.gotStart, f.gotEnd = start, end
	return f.ridership, f.ridershipErr
}

func (f *fakeSources) FetchHourlyByBorough(context.Context, time.Time, time.Time) ([]domain.SubwayHour, error) {
	return f.hourly, nil
}

func (f *fakeSources) FetchDailySummaries(context.Context, time.Time, time.Time) ([]domain.WeatherDay, error) {
	return f.weather, nil
}

func (f *fakeSources) FetchDailyEvents(context.Context, time.Time, time.Time) ([]domain.EventDay, error) {
	return f.events, nil
}

type fakeStore struct {
	ridership []domain.RidershipDay
	weather   []domain.WeatherDay
	hourly    []domain.SubwayHour
	events    []domain.EventDay

	ridershipCutoff time.Time
	hourlyCutoff    time.Time
	eventsCutoff    time.Time
	replaceErr      error
}

func (s *fakeStore) ReplaceRidershipSince(_ context.Context, cutoff time.Time, rows []domain.RidershipDay) error {
	s.ridershipCutoff, s.ridership = cutoff, rows
	return s.replaceErr
}

func (s *fakeStore) ReplaceWeatherSince(_ context.Context, _ time.Time, rows []domain.WeatherDay) error {
	s.weather = rows
	return nil
}

func (s *fakeStore) ReplaceSubwayHourlySince(_ context.Context, cutoff time.Time, rows []domain.SubwayHour) error {
	s.hourlyCutoff, s.hourly = cutoff, rows
	return nil
}

func (s *fakeStore) ReplaceEventsSince(_ context.Context, cutoff time.Time, rows []domain.EventDay) error {
	s.eventsCutoff, s.events = cutoff, rows
	return nil
}

func (s *fakeStore) LoadRidershipDaily(context.Context) ([]domain.RidershipDay, error) {
	return s.ridership, nil
}

func (s *fakeStore) LoadWeatherDaily(context.Context) ([]domain.WeatherDay, error) {
	return s.weather, nil
}

func (s *fakeStore) LoadEventsDaily(context.Context) ([]domain.EventDay, error) {
	return s.events, nil
}

type fakePublisher struct {
	published []analytics.DailyRolling
	err       error
}

func (p *fakePublisher) PublishDailyMetrics(_ context.Context, rows []analytics.DailyRolling) error {
	p.published = rows
	return p.err
}

func newRefresher(sources *fakeSources, store *fakeStore, pub Publisher) *Refresher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	windows := Windows{Daily: 7, Hourly: 7, Events: 14}
	return New(Sources{
		Ridership: sources,
		Hourly:    sources,
		Weather:   sources,
		Events:    sources,
	}, store, pub, windows, logger, observability.NewMetricsForTesting())
}

func TestRefresh(t *testing.T) {
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(today.Add(6 * time.Hour)))
	defer domain.SetClock(nil)

	sources := &fakeSources{
		ridership: []domain.RidershipDay{
			{Date: today, Mode: domain.ModeSubway, Riders: 100},
			{Date: today, Mode: "SUBWAY", Riders: 999}, // duplicate after cleaning
		},
		hourly: []domain.SubwayHour{
			{Date: today, Hour: 8, Borough: "MN", Riders: 50},
			{Date: today, Hour: 8, Borough: "Narnia", Riders: 50},
		},
		weather: []domain.WeatherDay{{Date: today, TmaxF: domain.Float64(80)}},
		events: []domain.EventDay{
			{Date: today, Borough: "BK", EventCount: 1},
			{Date: today, Borough: "Brooklyn", EventCount: 1},
		},
	}
	store := &fakeStore{}
	pub := &fakePublisher{}
	r := newRefresher(sources, store, pub)

	require.NoError(t, r.Refresh(context.Background()))

	t.Run("fetches the trailing window", func(t *testing.T) {
		assert.Equal(t, today.AddDate(0, 0, -7), sources.gotStart)
		assert.Equal(t, today, sources.gotEnd)
	})

	t.Run("replaces each window at its own cutoff", func(t *testing.T) {
		assert.Equal(t, today.AddDate(0, 0, -7), store.ridershipCutoff)
		assert.Equal(t, today.AddDate(0, 0, -7), store.hourlyCutoff)
		assert.Equal(t, today.AddDate(0, 0, -14), store.eventsCutoff)
	})

	t.Run("rows are cleaned before storage", func(t *testing.T) {
		require.Len(t, store.ridership, 1)
		assert.Equal(t, int64(100), store.ridership[0].Riders)

		require.Len(t, store.hourly, 1)
		assert.Equal(t, "Manhattan", store.hourly[0].Borough)

		require.Len(t, store.events, 1)
		assert.Equal(t, int64(2), store.events[0].EventCount)
	})

	t.Run("publishes the recomputed daily series", func(t *testing.T) {
		require.Len(t, pub.published, 1)
		assert.Equal(t, domain.ModeSubway, pub.published[0].Mode)
		require.NotNil(t, pub.published[0].RidersMA7)
		assert.Equal(t, 100.0, *pub.published[0].RidersMA7)
	})

	t.Run("marks the service ready", func(t *testing.T) {
		assert.NoError(t, r.CheckReadiness(context.Background()))
	})
}

func TestRefreshWithoutPublisher(t *testing.T) {
	sources := &fakeSources{}
	r := newRefresher(sources, &fakeStore{}, nil)
	assert.NoError(t, r.Refresh(context.Background()))
}

func TestRefreshPropagatesErrors(t *testing.T) {
	t.Run("fetch failure aborts the cycle", func(t *testing.T) {
		sources := &fakeSources{ridershipErr: errors.New("socrata down")}
		store := &fakeStore{}
		r := newRefresher(sources, store, nil)

		err := r.Refresh(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "socrata down")
		assert.Empty(t, store.hourly)
		assert.Error(t, r.CheckReadiness(context.Background()))
	})

	t.Run("store failure aborts the cycle", func(t *testing.T) {
		store := &fakeStore{replaceErr: errors.New("disk full")}
		r := newRefresher(&fakeSources{}, store, nil)
		require.Error(t, r.Refresh(context.Background()))
	})

	t.Run("publish failure surfaces", func(t *testing.T) {
		pub := &fakePublisher{err: errors.New("broker unreachable")}
		r := newRefresher(&fakeSources{}, &fakeStore{}, pub)
		require.Error(t, r.Refresh(context.Background()))
	})
}

func TestMarkReady(t *testing.T) {
	r := newRefresher(&fakeSources{}, &fakeStore{}, nil)
	require.Error(t, r.CheckReadiness(context.Background()))

	r.MarkReady()
	assert.NoError(t, r.CheckReadiness(context.Background()))
}

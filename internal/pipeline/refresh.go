// Package pipeline orchestrates the fetch-clean-upsert refresh cycle that
// keeps the store's trailing windows current, and republishes derived
// metrics after a successful refresh.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/transit-metrics-service/internal/analytics"
	"github.com/couchcryptid/transit-metrics-service/internal/domain"
	"github.com/couchcryptid/transit-metrics-service/internal/observability"
)

// Sources groups the upstream fetchers the refresh cycle pulls from.
type Sources struct {
	Ridership RidershipFetcher
	Hourly    HourlyFetcher
	Weather   WeatherFetcher
	Events    EventsFetcher
}

// RidershipFetcher pulls daily ridership rows for a date range.
type RidershipFetcher interface {
	FetchDailyRidership(ctx context.Context, start, end time.Time) ([]domain.RidershipDay, error)
}

// HourlyFetcher pulls hourly subway rows for a date range.
type HourlyFetcher interface {
	FetchHourlyByBorough(ctx context.Context, start, end time.Time) ([]domain.SubwayHour, error)
}

// WeatherFetcher pulls daily weather rows for a date range.
type WeatherFetcher interface {
	FetchDailySummaries(ctx context.Context, start, end time.Time) ([]domain.WeatherDay, error)
}

// EventsFetcher pulls daily event rows for a date range.
type EventsFetcher interface {
	FetchDailyEvents(ctx context.Context, start, end time.Time) ([]domain.EventDay, error)
}

// Store is the slice of the sqlite store the refresher writes to and
// recomputes from.
type Store interface {
	ReplaceRidershipSince(ctx context.Context, cutoff time.Time, rows []domain.RidershipDay) error
	ReplaceWeatherSince(ctx context.Context, cutoff time.Time, rows []domain.WeatherDay) error
	ReplaceSubwayHourlySince(ctx context.Context, cutoff time.Time, rows []domain.SubwayHour) error
	ReplaceEventsSince(ctx context.Context, cutoff time.Time, rows []domain.EventDay) error

	LoadRidershipDaily(ctx context.Context) ([]domain.RidershipDay, error)
	LoadWeatherDaily(ctx context.Context) ([]domain.WeatherDay, error)
	LoadEventsDaily(ctx context.Context) ([]domain.EventDay, error)
}

// Publisher receives the recomputed daily metrics after a refresh.
// A nil Publisher disables publishing.
type Publisher interface {
	PublishDailyMetrics(ctx context.Context, rows []analytics.DailyRolling) error
}

// Windows are the trailing re-fetch windows per source, in days. Events get
// a longer window because permits trickle into the dataset late.
type Windows struct {
	Daily  int
	Hourly int
	Events int
}

// Refresher runs the daily refresh cycle.
type Refresher struct {
	sources   Sources
	store     Store
	publisher Publisher
	windows   Windows
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Refresher. Pass a nil publisher to disable publishing.
func New(sources Sources, store Store, publisher Publisher, windows Windows, logger *slog.Logger, metrics *observability.Metrics) *Refresher {
	return &Refresher{
		sources:   sources,
		store:     store,
		publisher: publisher,
		windows:   windows,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once at least one refresh has completed, or an
// error describing why the service is not yet ready.
func (r *Refresher) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("no refresh has completed yet")
	}
	return nil
}

// MarkReady records that the store already holds data, letting a restarted
// service serve immediately instead of waiting for the next refresh.
func (r *Refresher) MarkReady() {
	r.ready.Store(true)
}

// Refresh runs one complete cycle: re-fetch each source's trailing window,
// clean, replace the window in the store, then recompute and publish the
// derived daily metrics. Partial failures abort the cycle; every replace is
// idempotent, so the next run repairs whatever this one missed.
func (r *Refresher) Refresh(ctx context.Context) error {
	start := time.Now()
	r.metrics.RefreshRunning.Set(1)
	defer r.metrics.RefreshRunning.Set(0)

	err := r.refresh(ctx)
	if err != nil {
		r.metrics.RefreshRuns.WithLabelValues("error").Inc()
		return err
	}

	r.metrics.RefreshRuns.WithLabelValues("success").Inc()
	r.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	r.ready.Store(true)
	r.logger.Info("refresh complete", "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

func (r *Refresher) refresh(ctx context.Context) error {
	today := domain.Today()

	if err := r.refreshDaily(ctx, today); err != nil {
		return err
	}
	if err := r.refreshHourly(ctx, today); err != nil {
		return err
	}
	if err := r.refreshEvents(ctx, today); err != nil {
		return err
	}
	return r.publish(ctx)
}

// refreshDaily re-fetches the daily ridership and weather windows.
func (r *Refresher) refreshDaily(ctx context.Context, today time.Time) error {
	cutoff := today.AddDate(0, 0, -r.windows.Daily)

	ridership, err := r.sources.Ridership.FetchDailyRidership(ctx, cutoff, today)
	if err != nil {
		return fmt.Errorf("refresh daily ridership: %w", err)
	}
	cleaned := domain.CleanRidershipDaily(ridership)
	if err := r.store.ReplaceRidershipSince(ctx, cutoff, cleaned); err != nil {
		return fmt.Errorf("refresh daily ridership: %w", err)
	}
	r.metrics.RowsUpserted.WithLabelValues("ridership_daily").Add(float64(len(cleaned)))

	weather, err := r.sources.Weather.FetchDailySummaries(ctx, cutoff, today)
	if err != nil {
		return fmt.Errorf("refresh daily weather: %w", err)
	}
	cleanedW := domain.CleanWeatherDaily(weather)
	if err := r.store.ReplaceWeatherSince(ctx, cutoff, cleanedW); err != nil {
		return fmt.Errorf("refresh daily weather: %w", err)
	}
	r.metrics.RowsUpserted.WithLabelValues("weather_daily").Add(float64(len(cleanedW)))

	r.logger.Info("refreshed daily window", "days", r.windows.Daily,
		"ridership_rows", len(cleaned), "weather_rows", len(cleanedW))
	return nil
}

func (r *Refresher) refreshHourly(ctx context.Context, today time.Time) error {
	cutoff := today.AddDate(0, 0, -r.windows.Hourly)

	hourly, err := r.sources.Hourly.FetchHourlyByBorough(ctx, cutoff, today)
	if err != nil {
		return fmt.Errorf("refresh hourly: %w", err)
	}
	cleaned := domain.CleanSubwayHourly(hourly)
	if err := r.store.ReplaceSubwayHourlySince(ctx, cutoff, cleaned); err != nil {
		return fmt.Errorf("refresh hourly: %w", err)
	}
	r.metrics.RowsUpserted.WithLabelValues("subway_hourly").Add(float64(len(cleaned)))

	r.logger.Info("refreshed hourly window", "days", r.windows.Hourly, "rows", len(cleaned))
	return nil
}

func (r *Refresher) refreshEvents(ctx context.Context, today time.Time) error {
	cutoff := today.AddDate(0, 0, -r.windows.Events)

	events, err := r.sources.Events.FetchDailyEvents(ctx, cutoff, today)
	if err != nil {
		return fmt.Errorf("refresh events: %w", err)
	}
	cleaned := domain.CleanEventsDaily(events)
	if err := r.store.ReplaceEventsSince(ctx, cutoff, cleaned); err != nil {
		return fmt.Errorf("refresh events: %w", err)
	}
	r.metrics.RowsUpserted.WithLabelValues("events_daily").Add(float64(len(cleaned)))

	r.logger.Info("refreshed events window", "days", r.windows.Events, "rows", len(cleaned))
	return nil
}

// publish recomputes the rolling daily series over the full store and hands
// it to the publisher.
func (r *Refresher) publish(ctx context.Context) error {
	if r.publisher == nil {
		return nil
	}

	ridership, err := r.store.LoadRidershipDaily(ctx)
	if err != nil {
		return fmt.Errorf("publish daily metrics: %w", err)
	}
	weather, err := r.store.LoadWeatherDaily(ctx)
	if err != nil {
		return fmt.Errorf("publish daily metrics: %w", err)
	}
	events, err := r.store.LoadEventsDaily(ctx)
	if err != nil {
		return fmt.Errorf("publish daily metrics: %w", err)
	}

	rolling := analytics.AddRollingMetrics(analytics.JoinDaily(ridership, weather, events))
	return r.publisher.PublishDailyMetrics(ctx, rolling)
}

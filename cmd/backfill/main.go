// Command backfill loads historical data into the store in date-range
// chunks, one source at a time.
//
// Usage:
//
//	go run ./cmd/backfill -start 2020-03-01 -end 2024-12-31 -source daily
//	go run ./cmd/backfill -start 2025-01-01 -end 2025-06-30 -source hourly -chunk-days 30
//
// Sources: daily (ridership), weather, hourly, events, or all.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/transit-metrics-service/internal/adapter/noaa"
	"github.com/couchcryptid/transit-metrics-service/internal/adapter/socrata"
	"github.com/couchcryptid/transit-metrics-service/internal/adapter/sqlite"
	"github.com/couchcryptid/transit-metrics-service/internal/config"
	"github.com/couchcryptid/transit-metrics-service/internal/domain"
	"github.com/couchcryptid/transit-metrics-service/internal/observability"
	"github.com/joho/godotenv"
)

func main() {
	start := flag.String("start", "2020-03-01", "start date (YYYY-MM-DD, inclusive)")
	end := flag.String("end", domain.Today().Format(domain.DateLayout), "end date (YYYY-MM-DD, inclusive)")
	source := flag.String("source", "all", "source to backfill: daily, weather, hourly, events, all")
	chunkDays := flag.Int("chunk-days", 90, "days per fetch chunk")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	startDate, err := time.Parse(domain.DateLayout, *start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -start: %v\n", err)
		os.Exit(1)
	}
	endDate, err := time.Parse(domain.DateLayout, *end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -end: %v\n", err)
		os.Exit(1)
	}
	if *chunkDays <= 0 || endDate.Before(startDate) {
		fmt.Fprintln(os.Stderr, "invalid date range or chunk size")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, "text")
	metrics := observability.NewMetricsForTesting() // no registry; one-shot tool

	store, err := sqlite.Open(cfg.DBPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	socrataClient := socrata.NewClient(cfg.SocrataAppToken, cfg.UserAgent, cfg.SourceTimeout, logger, metrics)
	noaaClient := noaa.NewClient(cfg.WeatherStation, "", cfg.UserAgent, cfg.SourceTimeout, logger, metrics)

	ctx := context.Background()
	if err := run(ctx, *source, startDate, endDate, *chunkDays, store, socrataClient, noaaClient, logger); err != nil {
		fmt.Fprintf(os.Stderr, "backfill failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, source string, start, end time.Time, chunkDays int, store *sqlite.Store, soc *socrata.Client, noaaClient *noaa.Client, logger *slog.Logger) error {
	for _, chunk := range chunks(start, end, chunkDays) {
		logger.Info("backfilling chunk",
			"start", chunk.start.Format(domain.DateLayout),
			"end", chunk.end.Format(domain.DateLayout),
			"source", source)

		if source == "all" || source == "daily" {
			rows, err := soc.FetchDailyRidership(ctx, chunk.start, chunk.end)
			if err != nil {
				return err
			}
			if err := store.UpsertRidershipDaily(ctx, domain.CleanRidershipDaily(rows)); err != nil {
				return err
			}
		}
		if source == "all" || source == "weather" {
			rows, err := noaaClient.FetchDailySummaries(ctx, chunk.start, chunk.end)
			if err != nil {
				return err
			}
			if err := store.UpsertWeatherDaily(ctx, domain.CleanWeatherDaily(rows)); err != nil {
				return err
			}
		}
		if source == "all" || source == "hourly" {
			rows, err := soc.FetchHourlyByBorough(ctx, chunk.start, chunk.end)
			if err != nil {
				return err
			}
			if err := store.UpsertSubwayHourly(ctx, domain.CleanSubwayHourly(rows)); err != nil {
				return err
			}
		}
		if source == "all" || source == "events" {
			rows, err := soc.FetchDailyEvents(ctx, chunk.start, chunk.end)
			if err != nil {
				return err
			}
			if err := store.UpsertEventsDaily(ctx, domain.CleanEventsDaily(rows)); err != nil {
				return err
			}
		}
	}
	return nil
}

type dateRange struct {
	start, end time.Time
}

// chunks splits [start, end] into inclusive ranges of at most chunkDays days.
func chunks(start, end time.Time, chunkDays int) []dateRange {
	var out []dateRange
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, chunkDays) {
		chunkEnd := cur.AddDate(0, 0, chunkDays-1)
		if chunkEnd.After(end) {
			chunkEnd = end
		}
		out = append(out, dateRange{start: cur, end: chunkEnd})
	}
	return out
}

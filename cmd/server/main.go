// Command server runs the transit metrics service: the SQLite store, the
// scheduled refresh pipeline, and the derived-series HTTP API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/couchcryptid/transit-metrics-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/transit-metrics-service/internal/adapter/kafka"
	"github.com/couchcryptid/transit-metrics-service/internal/adapter/noaa"
	"github.com/couchcryptid/transit-metrics-service/internal/adapter/socrata"
	"github.com/couchcryptid/transit-metrics-service/internal/adapter/sqlite"
	"github.com/couchcryptid/transit-metrics-service/internal/config"
	"github.com/couchcryptid/transit-metrics-service/internal/observability"
	"github.com/couchcryptid/transit-metrics-service/internal/pipeline"
	"github.com/couchcryptid/transit-metrics-service/internal/scheduler"
	"github.com/joho/godotenv"
)

// refreshTimeout bounds one complete refresh cycle; the hourly fetch alone
// can take minutes when the window covers a backlog.
const refreshTimeout = 15 * time.Minute

func main() {
	_ = godotenv.Load() // .env is optional

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	store, err := sqlite.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}

	socrataClient := socrata.NewClient(cfg.SocrataAppToken, cfg.UserAgent, cfg.SourceTimeout, logger, metrics)
	noaaClient := noaa.NewClient(cfg.WeatherStation, "", cfg.UserAgent, cfg.SourceTimeout, logger, metrics)

	// Derived-metrics publisher (feature-flagged via KAFKA_ENABLED).
	var publisher pipeline.Publisher
	var publisherCloser *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisherCloser = kafkaadapter.NewPublisher(cfg, logger)
		publisher = publisherCloser
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka publishing disabled")
	}

	sources := pipeline.Sources{
		Ridership: socrataClient,
		Hourly:    socrataClient,
		Weather:   noaaClient,
		Events:    socrataClient,
	}
	windows := pipeline.Windows{
		Daily:  cfg.RefreshDaysDaily,
		Hourly: cfg.RefreshDaysHourly,
		Events: cfg.RefreshDaysEvents,
	}
	refresher := pipeline.New(sources, store, publisher, windows, logger, metrics)

	// A store that already holds data can serve before the first refresh.
	if counts, err := store.RowCounts(context.Background()); err == nil && counts["ridership_daily"] > 0 {
		refresher.MarkReady()
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, store, refresher, logger, metrics, httpadapter.Options{
		CacheTTL:  cfg.CacheTTL,
		CacheSize: cfg.CacheSize,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sched *scheduler.Scheduler
	if cfg.RefreshEnabled {
		sched = scheduler.New(refresher, cfg.RefreshAt, refreshTimeout, logger)
		if err := sched.Start(); err != nil {
			logger.Error("failed to start scheduler", "error", err)
			os.Exit(1)
		}
		logger.Info("daily refresh scheduled", "at", cfg.RefreshAt)
	} else {
		logger.Info("scheduled refresh disabled")
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if sched != nil {
		sched.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisherCloser != nil {
		if err := publisherCloser.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("store close error", "error", err)
	}

	logger.Info("shutdown complete")
}

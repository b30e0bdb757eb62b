// Package http serves the derived series to the dashboard, plus health,
// readiness, and Prometheus metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/transit-metrics-service/internal/analytics"
	"github.com/couchcryptid/transit-metrics-service/internal/domain"
	"github.com/couchcryptid/transit-metrics-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// DataSource loads the cleaned fact tables the derived series are computed
// from. The sqlite store implements it.
type DataSource interface {
	LoadRidershipDaily(ctx context.Context) ([]domain.RidershipDay, error)
	LoadWeatherDaily(ctx context.Context) ([]domain.WeatherDay, error)
	LoadSubwayHourly(ctx context.Context) ([]domain.SubwayHour, error)
	LoadEventsDaily(ctx context.Context) ([]domain.EventDay, error)
}

// Options tune the server; zero values get sensible defaults.
type Options struct {
	CacheTTL  time.Duration
	CacheSize int
	Clock     clockwork.Clock
}

// Server exposes the derived-series API.
type Server struct {
	httpServer *http.Server
	source     DataSource
	cache      *responseCache
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates the API server with all routes registered.
func NewServer(addr string, source DataSource, ready ReadinessChecker, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Server {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 100
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		source:  source,
		cache:   newResponseCache(opts.CacheSize, opts.CacheTTL, opts.Clock),
		logger:  logger,
		metrics: metrics,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/daily/rolling", s.handleDailyRolling)
	mux.HandleFunc("GET /api/daily/joined", s.handleDailyJoined)
	mux.HandleFunc("GET /api/hourly/anomalies", s.handleHourlyAnomalies)
	mux.HandleFunc("GET /api/rush-hour", s.handleRushHour)
	mux.HandleFunc("GET /api/weekend-factor", s.handleWeekendFactor)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleDailyRolling(w http.ResponseWriter, r *http.Request) {
	days := daysParam(r, analytics.DefaultDailyDays)
	s.serveCached(w, r, "daily_rolling", func(ctx context.Context) (any, error) {
		joined, err := s.loadJoined(ctx)
		if err != nil {
			return nil, err
		}
		return analytics.LastDaysDaily(analytics.AddRollingMetrics(joined), days), nil
	})
}

func (s *Server) handleDailyJoined(w http.ResponseWriter, r *http.Request) {
	days := daysParam(r, analytics.DefaultDailyDays)
	s.serveCached(w, r, "daily_joined", func(ctx context.Context) (any, error) {
		joined, err := s.loadJoined(ctx)
		if err != nil {
			return nil, err
		}
		return analytics.LastDaysJoined(joined, days), nil
	})
}

func (s *Server) handleHourlyAnomalies(w http.ResponseWriter, r *http.Request) {
	days := daysParam(r, analytics.DefaultHourlyDays)
	s.serveCached(w, r, "hourly_anomalies", func(ctx context.Context) (any, error) {
		hourly, err := s.source.LoadSubwayHourly(ctx)
		if err != nil {
			return nil, err
		}
		return analytics.LastDaysHourly(analytics.HourlyAnomalies(hourly), days), nil
	})
}

func (s *Server) handleRushHour(w http.ResponseWriter, r *http.Request) {
	days := daysParam(r, analytics.DefaultDailyDays)
	s.serveCached(w, r, "rush_hour", func(ctx context.Context) (any, error) {
		hourly, err := s.source.LoadSubwayHourly(ctx)
		if err != nil {
			return nil, err
		}
		return analytics.LastDaysRushHour(analytics.RushHourMultipliers(hourly), days), nil
	})
}

func (s *Server) handleWeekendFactor(w http.ResponseWriter, r *http.Request) {
	s.serveCached(w, r, "weekend_factor", func(ctx context.Context) (any, error) {
		hourly, err := s.source.LoadSubwayHourly(ctx)
		if err != nil {
			return nil, err
		}
		return analytics.WeekendFactors(hourly), nil
	})
}

func (s *Server) loadJoined(ctx context.Context) ([]analytics.DailyJoined, error) {
	ridership, err := s.source.LoadRidershipDaily(ctx)
	if err != nil {
		return nil, err
	}
	weather, err := s.source.LoadWeatherDaily(ctx)
	if err != nil {
		return nil, err
	}
	events, err := s.source.LoadEventsDaily(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.JoinDaily(ridership, weather, events), nil
}

// serveCached renders a derived series, caching the JSON by full request URL.
func (s *Server) serveCached(w http.ResponseWriter, r *http.Request, series string, compute func(context.Context) (any, error)) {
	key := r.URL.String()
	if body, ok := s.cache.get(key); ok {
		s.metrics.CacheLookups.WithLabelValues("hit").Inc()
		writeJSONBytes(w, http.StatusOK, body)
		return
	}
	s.metrics.CacheLookups.WithLabelValues("miss").Inc()

	start := time.Now()
	result, err := compute(r.Context())
	if err != nil {
		s.logger.Error("compute series failed", "series", series, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	s.metrics.ComputeDuration.WithLabelValues(series).Observe(time.Since(start).Seconds())

	body, err := json.Marshal(result)
	if err != nil {
		s.logger.Error("marshal series failed", "series", series, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	s.cache.put(key, body)
	writeJSONBytes(w, http.StatusOK, body)
}

// daysParam parses the optional ?days=N query parameter.
func daysParam(r *http.Request, fallback int) int {
	if s := r.URL.Query().Get("days"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeJSONBytes(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body) //nolint:errcheck // best-effort response
}

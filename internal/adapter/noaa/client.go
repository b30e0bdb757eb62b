// Package noaa fetches GHCNd daily weather summaries from the NCEI Access
// Data Service.
package noaa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/transit-metrics-service/internal/domain"
	"github.com/couchcryptid/transit-metrics-service/internal/observability"
)

const (
	defaultBaseURL = "https://www.ncei.noaa.gov/access/services/data/v1"
	maxAttempts    = 3
)

// record is one daily-summaries row. With units=standard the values arrive
// as Fahrenheit and inches, encoded as strings; empty means unreported.
type record struct {
	Date    string `json:"DATE"`
	Station string `json:"STATION"`
	Tmax    string `json:"TMAX"`
	Tmin    string `json:"TMIN"`
	Prcp    string `json:"PRCP"`
	Snow    string `json:"SNOW"`
}

// Client fetches daily summaries for one station.
type Client struct {
	httpClient *http.Client
	baseURL    string
	station    string
	token      string
	userAgent  string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an NCEI client for the given GHCNd station. The token is
// optional for this endpoint.
func NewClient(station, token, userAgent string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if station == "" {
		station = domain.DefaultStation
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		station:    station,
		token:      token,
		userAgent:  userAgent,
		logger:     logger,
		metrics:    metrics,
	}
}

// FetchDailySummaries returns one weather row per date in [start, end] for
// the client's station, in standard units (Fahrenheit, inches).
func (c *Client) FetchDailySummaries(ctx context.Context, start, end time.Time) ([]domain.WeatherDay, error) {
	const source = "noaa_daily"
	fetchStart := time.Now()
	defer func() {
		c.metrics.SourceFetchDuration.WithLabelValues(source).Observe(time.Since(fetchStart).Seconds())
	}()

	params := url.Values{
		"dataset":   {"daily-summaries"},
		"stations":  {c.station},
		"startDate": {start.Format(domain.DateLayout)},
		"endDate":   {end.Format(domain.DateLayout)},
		"dataTypes": {"TMAX,TMIN,PRCP,SNOW"},
		"units":     {"standard"},
		"format":    {"json"},
	}

	records, err := c.getJSON(ctx, c.baseURL+"?"+params.Encode(), source)
	if err != nil {
		return nil, fmt.Errorf("fetch daily summaries: %w", err)
	}

	out := make([]domain.WeatherDay, 0, len(records))
	for _, rec := range records {
		date, err := time.Parse(domain.DateLayout, rec.Date)
		if err != nil {
			continue
		}
		out = append(out, domain.WeatherDay{
			Date:      date,
			StationID: rec.Station,
			TmaxF:     parseObservation(rec.Tmax),
			TminF:     parseObservation(rec.Tmin),
			PrcpIn:    parseObservation(rec.Prcp),
			SnowIn:    parseObservation(rec.Snow),
		})
	}

	c.logger.Info("fetched daily summaries", "rows", len(out), "station", c.station,
		"start", start.Format(domain.DateLayout), "end", end.Format(domain.DateLayout))
	return out, nil
}

// getJSON performs one GET with retry on 429/5xx.
func (c *Client) getJSON(ctx context.Context, fullURL, source string) ([]record, error) {
	backoff := 500 * time.Millisecond
	const maxBackoff = 5 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		records, retryable, err := c.doRequest(ctx, fullURL)
		if err == nil {
			c.metrics.SourceRequests.WithLabelValues(source, "success").Inc()
			return records, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			break
		}
		c.logger.Warn("noaa request failed, retrying", "attempt", attempt, "error", err)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.metrics.SourceRequests.WithLabelValues(source, "error").Inc()
			return nil, lastErr
		case <-timer.C:
		}
		if backoff *= 2; backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	c.metrics.SourceRequests.WithLabelValues(source, "error").Inc()
	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]record, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("token", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("noaa request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("noaa API error: status %d: %s", resp.StatusCode, body)
	}

	var records []record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, false, fmt.Errorf("decode noaa response: %w", err)
	}
	return records, false, nil
}

// parseObservation parses a numeric observation, returning nil for missing
// or malformed values so the day keeps a null for that field.
func parseObservation(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

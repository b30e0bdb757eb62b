// Package socrata fetches MTA ridership and NYC permitted-event data from
// the Socrata open-data APIs (data.ny.gov, data.cityofnewyork.us).
//
// The upstream datasets rename columns over time, so every mapping goes
// through ranked candidate column names instead of fixed field tags. Requests
// are paged with $limit/$offset and retried with backoff on rate limits and
// server errors.
package socrata

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

	"github.com/couchcryptid/transit-metrics-service/internal/observability"
)

const (
	dailyRidershipURL = "https://data.ny.gov/resource/sayj-mze2.json"
	nycEventsURL      = "https://data.cityofnewyork.us/resource/tvpp-9vvx.json"

	pageSize    = 50000
	maxAttempts = 3
)

// hourlyDataset is one of the stitched hourly ridership datasets. The hourly
// series moved to a new dataset ID in 2025; both are treated as one logical
// source, split by date coverage.
type hourlyDataset struct {
	url   string
	from  string // inclusive, YYYY-MM-DD
	until string // inclusive
}

var hourlyDatasets = []hourlyDataset{
	{url: "https://data.ny.gov/resource/wujg-7c2s.json", from: "2020-01-01", until: "2024-12-31"},
	{url: "https://data.ny.gov/resource/5wq4-mkjj.json", from: "2025-01-01", until: "2100-01-01"},
}

// row is one Socrata record. Values are almost always strings, but the API
// occasionally returns numbers or nested objects, so fields stay untyped
// until a candidate column resolves.
type row map[string]any

// Client fetches from the Socrata APIs.
type Client struct {
	httpClient *http.Client
	appToken   string
	userAgent  string
	logger     *slog.Logger
	metrics    *observability.Metrics

	// Overridable in tests.
	dailyURL  string
	eventsURL string
	hourly    []hourlyDataset
}

// NewClient creates a Socrata client. The app token is optional; without one
// requests run against the public rate limit.
func NewClient(appToken, userAgent string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		appToken:   appToken,
		userAgent:  userAgent,
		logger:     logger,
		metrics:    metrics,
		dailyURL:   dailyRidershipURL,
		eventsURL:  nycEventsURL,
		hourly:     hourlyDatasets,
	}
}

// fetchAll pages through a dataset, collecting every row matching the
// where clause.
func (c *Client) fetchAll(ctx context.Context, baseURL, where, order, source string) ([]row, error) {
	var out []row
	for offset := 0; ; offset += pageSize {
		params := url.Values{
			"$limit":  {strconv.Itoa(pageSize)},
			"$offset": {strconv.Itoa(offset)},
		}
		if where != "" {
			params.Set("$where", where)
		}
		if order != "" {
			params.Set("$order", order)
		}

		page, err := c.getJSON(ctx, baseURL+"?"+params.Encode(), source)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < pageSize {
			return out, nil
		}
	}
}

// getJSON performs one GET with retry on 429/5xx, recording request metrics.
func (c *Client) getJSON(ctx context.Context, fullURL, source string) ([]row, error) {
	backoff := 500 * time.Millisecond
	const maxBackoff = 5 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		rows, retryable, err := c.doRequest(ctx, fullURL, source)
		if err == nil {
			c.metrics.SourceRequests.WithLabelValues(source, "success").Inc()
			return rows, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			break
		}
		c.logger.Warn("socrata request failed, retrying",
			"source", source, "attempt", attempt, "error", err)
		if !sleepWithContext(ctx, backoff) {
			break
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}

	c.metrics.SourceRequests.WithLabelValues(source, "error").Inc()
	return nil, lastErr
}

// doRequest executes a single GET. The second return value reports whether
// the failure is transient (rate limit or server error).
func (c *Client) doRequest(ctx context.Context, fullURL, source string) ([]row, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.appToken != "" {
		req.Header.Set("X-App-Token", c.appToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%s request: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("%s API error: status %d: %s", source, resp.StatusCode, body)
	}

	var rows []row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, false, fmt.Errorf("decode %s response: %w", source, err)
	}
	return rows, false, nil
}

// pick returns the value of the first candidate column present in the row.
func pick(r row, candidates []string) (string, bool) {
	for _, c := range candidates {
		if v, ok := r[c]; ok {
			return asString(v), true
		}
	}
	return "", false
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// parseNumber parses a Socrata numeric string, returning 0 when missing or
// malformed (the feeds use empty strings for unreported values).
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseDate tries the timestamp layouts seen across the Socrata datasets.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{
		"2006-01-02T15:04:05.000",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

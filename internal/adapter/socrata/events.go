package socrata

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/transit-metrics-service/internal/domain"
)

// Candidate column names for the permitted-events dataset. The date column
// in particular has drifted repeatedly; the first present candidate wins.
var (
	eventDateCols = []string{
		"start_date_time", "startdatetime", "start_date", "event_date", "begin_date", "starttime", "date",
	}

	eventBoroughCols = []string{
		"borough", "event_borough", "borough_name", "boroname",
		"borocode", "borough_desc", "boroughdescription",
	}
)

// FetchDailyEvents returns one row per permit in [start, end] with a count
// of 1; duplicate (date, borough) keys are summed downstream by
// domain.CleanEventsDaily, which also owns borough normalization.
func (c *Client) FetchDailyEvents(ctx context.Context, start, end time.Time) ([]domain.EventDay, error) {
	const source = "nyc_events"
	timer := c.trackFetch(source)
	defer timer()

	where := fmt.Sprintf("start_date_time >= '%sT00:00:00' AND start_date_time <= '%sT23:59:59'",
		start.Format(domain.DateLayout), end.Format(domain.DateLayout))
	rows, err := c.fetchAll(ctx, c.eventsURL, where, "", source)
	if err != nil {
		return nil, fmt.Errorf("fetch daily events: %w", err)
	}

	out := make([]domain.EventDay, 0, len(rows))
	for _, r := range rows {
		dateStr, ok := pick(r, eventDateCols)
		if !ok {
			continue
		}
		date, ok := parseDate(dateStr)
		if !ok {
			continue
		}
		borough, ok := pick(r, eventBoroughCols)
		if !ok {
			continue
		}
		out = append(out, domain.EventDay{
			Date:       domain.Day(date),
			Borough:    borough,
			EventCount: 1,
		})
	}

	c.logger.Info("fetched daily events", "rows", len(out),
		"start", start.Format(domain.DateLayout), "end", end.Format(domain.DateLayout))
	return out, nil
}

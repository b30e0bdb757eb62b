package socrata

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/transit-metrics-service/internal/domain"
)

// Candidate column names for the daily ridership dataset, which has renamed
// its columns more than once.
var (
	dailyDateCols = []string{"date", "as_of", "report_date"}

	subwayCols = []string{
		"subways_total_estimated_ridership",
		"subway_total_estimated_ridership",
		"subways", "subway_ridership",
	}

	busCols = []string{
		"buses_total_estimated_ridership",
		"buses_total_ridership",
		"buses", "bus_ridership",
	}
)

// FetchDailyRidership returns one subway and one bus row per date in
// [start, end], parsed from the wide daily MTA ridership dataset.
func (c *Client) FetchDailyRidership(ctx context.Context, start, end time.Time) ([]domain.RidershipDay, error) {
	const source = "mta_daily"
	timer := c.trackFetch(source)
	defer timer()

	where := fmt.Sprintf("date >= '%s' AND date <= '%s'",
		start.Format(domain.DateLayout), end.Format(domain.DateLayout))
	rows, err := c.fetchAll(ctx, c.dailyURL, where, "date", source)
	if err != nil {
		return nil, fmt.Errorf("fetch daily ridership: %w", err)
	}

	out := make([]domain.RidershipDay, 0, 2*len(rows))
	for _, r := range rows {
		dateStr, ok := pick(r, dailyDateCols)
		if !ok {
			continue
		}
		date, ok := parseDate(dateStr)
		if !ok {
			continue
		}

		if v, ok := pick(r, subwayCols); ok {
			out = append(out, domain.RidershipDay{
				Date:   date,
				Mode:   domain.ModeSubway,
				Riders: int64(math.Round(parseNumber(v))),
				Source: "data.ny.gov/daily",
			})
		}
		if v, ok := pick(r, busCols); ok {
			out = append(out, domain.RidershipDay{
				Date:   date,
				Mode:   domain.ModeBus,
				Riders: int64(math.Round(parseNumber(v))),
				Source: "data.ny.gov/daily",
			})
		}
	}

	c.logger.Info("fetched daily ridership", "rows", len(out),
		"start", start.Format(domain.DateLayout), "end", end.Format(domain.DateLayout))
	return out, nil
}

// trackFetch starts the fetch-duration timer for a source; the returned
// function observes the elapsed time.
func (c *Client) trackFetch(source string) func() {
	start := time.Now()
	return func() {
		c.metrics.SourceFetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	}
}

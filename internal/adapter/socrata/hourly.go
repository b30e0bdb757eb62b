package socrata

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/transit-metrics-service/internal/domain"
)

// Candidate column names for the hourly ridership datasets.
var (
	hourlyTimestampCols = []string{
		"transit_timestamp", "timestamp", "datetime", "date_time", "time", "dt",
	}

	hourlyBoroughCols = []string{
		"borough", "borough_name", "boroname", "complex_borough", "station_complex_borough",
		"station_borough", "boroughdesc", "borough_desc", "boro",
	}

	hourlyRidersCols = []string{
		"ridership", "rides", "entries", "count", "total",
		"ridership_total", "total_ridership", "ridership_estimate", "ridership_count", "value",
	}
)

// FetchHourlyByBorough returns hourly subway ridership aggregated from
// station level to (date, hour, borough) for [start, end]. The two stitched
// datasets are queried for whatever part of the range they cover.
func (c *Client) FetchHourlyByBorough(ctx context.Context, start, end time.Time) ([]domain.SubwayHour, error) {
	const source = "mta_hourly"
	timer := c.trackFetch(source)
	defer timer()

	type key struct {
		date    time.Time
		hour    int
		borough string
	}
	sums := make(map[key]float64)

	for _, ds := range c.hourly {
		dsFrom, _ := time.Parse(domain.DateLayout, ds.from)
		dsUntil, _ := time.Parse(domain.DateLayout, ds.until)
		lo, hi := maxTime(start, dsFrom), minTime(end, dsUntil)
		if hi.Before(lo) {
			continue
		}

		where := fmt.Sprintf("transit_timestamp >= '%sT00:00:00' AND transit_timestamp <= '%sT23:59:59'",
			lo.Format(domain.DateLayout), hi.Format(domain.DateLayout))
		rows, err := c.fetchAll(ctx, ds.url, where, "transit_timestamp", source)
		if err != nil {
			return nil, fmt.Errorf("fetch hourly ridership: %w", err)
		}

		for _, r := range rows {
			tsStr, ok := pick(r, hourlyTimestampCols)
			if !ok {
				continue
			}
			ts, ok := parseDate(tsStr)
			if !ok {
				continue
			}
			boroughRaw, ok := pick(r, hourlyBoroughCols)
			if !ok {
				continue
			}
			borough, ok := domain.NormalizeBorough(boroughRaw)
			if !ok {
				continue
			}
			ridersStr, ok := pick(r, hourlyRidersCols)
			if !ok {
				continue
			}
			sums[key{date: domain.Day(ts), hour: ts.Hour(), borough: borough}] += parseNumber(ridersStr)
		}
	}

	out := make([]domain.SubwayHour, 0, len(sums))
	for k, riders := range sums {
		out = append(out, domain.SubwayHour{
			Date:    k.date,
			Hour:    k.hour,
			Borough: k.borough,
			Riders:  int64(math.Round(riders)),
			Source:  "data.ny.gov/hourly",
		})
	}

	c.logger.Info("fetched hourly ridership", "rows", len(out),
		"start", start.Format(domain.DateLayout), "end", end.Format(domain.DateLayout))
	return out, nil
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

package analytics

import (
	"sort"
	"time"

	"github.com/couchcryptid/transit-metrics-service/internal/domain"
)

// JoinDaily left-joins daily ridership to weather flags by date and to the
// daily event count summed across boroughs. Every ridership row is kept;
// dates without weather keep nil weather fields, dates without events get a
// count of 0. The result is sorted by (date, mode).
func JoinDaily(ridership []domain.RidershipDay, weather []domain.WeatherDay, events []domain.EventDay) []DailyJoined {
	weatherByDate := make(map[time.Time]domain.WeatherDay, len(weather))
	for _, w := range weather {
		weatherByDate[domain.Day(w.Date)] = w
	}

	eventsByDate := make(map[time.Time]int64, len(events))
	for _, e := range events {
		eventsByDate[domain.Day(e.Date)] += e.EventCount
	}

	out := make([]DailyJoined, 0, len(ridership))
	for _, r := range ridership {
		date := domain.Day(r.Date)
		row := DailyJoined{
			Date:       date,
			Mode:       r.Mode,
			Riders:     r.Riders,
			EventCount: eventsByDate[date],
		}
		if w, ok := weatherByDate[date]; ok {
			flags := w.Flags()
			row.TmaxF = w.TmaxF
			row.PrcpIn = w.PrcpIn
			row.WetDay = flags.WetDay
			row.HotDay = flags.HotDay
			row.ColdDay = flags.ColdDay
		}
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Mode < out[j].Mode
	})
	return out
}

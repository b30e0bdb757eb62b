package domain

import "strings"

// boroughMap folds the borough encodings seen in the raw feeds into the
// canonical labels. Keys are upper-cased before lookup.
var boroughMap = map[string]string{
	"MN": "Manhattan", "MANHATTAN": "Manhattan",
	"BX": "Bronx", "BRONX": "Bronx",
	"BK": "Brooklyn", "BKLN": "Brooklyn", "BROOKLYN": "Brooklyn",
	"QN": "Queens", "QUEENS": "Queens",
	"SI": "Staten Island", "S.I.": "Staten Island",
	"STATEN ISLAND": "Staten Island", "STATENISLAND": "Staten Island",
}

var validBoroughs = func() map[string]bool {
	m := make(map[string]bool, len(Boroughs))
	for _, b := range Boroughs {
		m[b] = true
	}
	return m
}()

// NormalizeBorough maps a raw borough code or name onto the canonical set.
// Returns false when the value does not resolve to a known borough.
func NormalizeBorough(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	b, ok := boroughMap[strings.ToUpper(s)]
	if !ok {
		b = titleCase(s)
	}
	if !validBoroughs[b] {
		return "", false
	}
	return b, true
}

// titleCase upper-cases the first letter of each space-separated word,
// enough for borough names ("staten island" -> "Staten Island").
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// NormalizeMode lowercases a raw mode string and coerces anything outside
// {subway, bus} to subway, matching the upstream feed's dominant series.
func NormalizeMode(raw string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeBus:
		return ModeBus
	default:
		return ModeSubway
	}
}

// Sanity bounds for daily weather observations. Values outside are clamped
// rather than dropped: an implausible reading still marks the day as observed.
const (
	minTmaxF = -30
	maxTmaxF = 120
	minTminF = -50
	maxTminF = 100
)

// CleanRidershipDaily normalizes a batch of daily ridership rows: dates to
// UTC midnight (dropping undated rows), modes to the closed set, riders
// clamped non-negative, and duplicate (date, mode) keys dropped keeping the
// first occurrence.
func CleanRidershipDaily(rows []RidershipDay) []RidershipDay {
	out := make([]RidershipDay, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		if r.Date.IsZero() {
			continue
		}
		r.Date = Day(r.Date)
		r.Mode = NormalizeMode(string(r.Mode))
		if r.Riders < 0 {
			r.Riders = 0
		}
		if r.Source == "" {
			r.Source = "unknown"
		}
		key := r.Date.Format(DateLayout) + "|" + string(r.Mode)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// CleanWeatherDaily normalizes daily weather rows: one row per date (first
// wins), default station, observations clamped to sanity bounds.
func CleanWeatherDaily(rows []WeatherDay) []WeatherDay {
	out := make([]WeatherDay, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, w := range rows {
		if w.Date.IsZero() {
			continue
		}
		w.Date = Day(w.Date)
		if w.StationID == "" {
			w.StationID = DefaultStation
		}
		w.TmaxF = clamp(w.TmaxF, minTmaxF, maxTmaxF)
		w.TminF = clamp(w.TminF, minTminF, maxTminF)
		w.PrcpIn = clampLower(w.PrcpIn, 0)
		w.SnowIn = clampLower(w.SnowIn, 0)
		key := w.Date.Format(DateLayout)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, w)
	}
	return out
}

// CleanSubwayHourly normalizes hourly rows: valid dates and hours (0-23),
// boroughs resolved to the canonical set (unresolvable rows dropped), riders
// clamped non-negative, duplicate (date, hour, borough) keys dropped.
func CleanSubwayHourly(rows []SubwayHour) []SubwayHour {
	out := make([]SubwayHour, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, h := range rows {
		if h.Date.IsZero() || h.Hour < 0 || h.Hour > 23 {
			continue
		}
		borough, ok := NormalizeBorough(h.Borough)
		if !ok {
			continue
		}
		h.Date = Day(h.Date)
		h.Borough = borough
		if h.Riders < 0 {
			h.Riders = 0
		}
		if h.Source == "" {
			h.Source = "data.ny.gov/hourly"
		}
		key := hourlyKey(h)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, h)
	}
	return out
}

// CleanEventsDaily normalizes event rows and aggregates duplicate
// (date, borough) keys by summing counts, since the raw feed lists one row
// per permit rather than one per borough-day.
func CleanEventsDaily(rows []EventDay) []EventDay {
	sums := make(map[string]*EventDay, len(rows))
	order := make([]string, 0, len(rows))
	for _, e := range rows {
		if e.Date.IsZero() {
			continue
		}
		borough, ok := NormalizeBorough(e.Borough)
		if !ok {
			continue
		}
		e.Date = Day(e.Date)
		e.Borough = borough
		if e.EventCount < 0 {
			e.EventCount = 0
		}
		key := e.Date.Format(DateLayout) + "|" + e.Borough
		if existing, ok := sums[key]; ok {
			existing.EventCount += e.EventCount
			continue
		}
		copy := e
		sums[key] = &copy
		order = append(order, key)
	}
	out := make([]EventDay, 0, len(order))
	for _, key := range order {
		out = append(out, *sums[key])
	}
	return out
}

func hourlyKey(h SubwayHour) string {
	return h.Date.Format(DateLayout) + "|" + itoa2(h.Hour) + "|" + h.Borough
}

func itoa2(n int) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}

func clamp(v *float64, lo, hi float64) *float64 {
	if v == nil {
		return nil
	}
	switch {
	case *v < lo:
		return Float64(lo)
	case *v > hi:
		return Float64(hi)
	default:
		return v
	}
}

func clampLower(v *float64, lo float64) *float64 {
	if v == nil {
		return nil
	}
	if *v < lo {
		return Float64(lo)
	}
	return v
}

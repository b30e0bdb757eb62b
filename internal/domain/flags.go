package domain

// Thresholds for the derived daily weather flags, in Fahrenheit.
const (
	hotDayTmaxF  = 85
	coldDayTmaxF = 32
)

// WeatherFlags are the derived booleans attached to a weather day. A flag is
// nil when the observation it depends on is missing.
type WeatherFlags struct {
	WetDay  *bool `json:"wet_day"`
	HotDay  *bool `json:"hot_day"`
	ColdDay *bool `json:"cold_day"`
}

// Flags derives wet/hot/cold flags from the day's observations:
// wet when any measurable precipitation fell, hot when the high reached 85F,
// cold when the high stayed at or below freezing.
func (w WeatherDay) Flags() WeatherFlags {
	var f WeatherFlags
	if w.PrcpIn != nil {
		f.WetDay = boolPtr(*w.PrcpIn > 0)
	}
	if w.TmaxF != nil {
		f.HotDay = boolPtr(*w.TmaxF >= hotDayTmaxF)
		f.ColdDay = boolPtr(*w.TmaxF <= coldDayTmaxF)
	}
	return f
}

func boolPtr(v bool) *bool { return &v }

package sqlite

// The four fact/dim tables keyed by their natural composite keys. Dates are
// stored as ISO "YYYY-MM-DD" text so lexical and chronological order agree.
const createTablesSQL = `
CREATE TABLE IF NOT EXISTS ridership_daily (
    date    TEXT    NOT NULL,
    mode    TEXT    NOT NULL CHECK (mode IN ('subway', 'bus')),
    riders  INTEGER NOT NULL CHECK (riders >= 0),
    source  TEXT    NOT NULL DEFAULT 'unknown',
    PRIMARY KEY (date, mode)
);
CREATE TABLE IF NOT EXISTS weather_daily (
    date       TEXT PRIMARY KEY,
    station_id TEXT NOT NULL,
    tmax_f     REAL,
    tmin_f     REAL,
    prcp_in    REAL,
    snow_in    REAL
);
CREATE TABLE IF NOT EXISTS subway_hourly (
    date    TEXT    NOT NULL,
    hour    INTEGER NOT NULL CHECK (hour BETWEEN 0 AND 23),
    borough TEXT    NOT NULL,
    riders  INTEGER NOT NULL CHECK (riders >= 0),
    source  TEXT    NOT NULL DEFAULT '',
    PRIMARY KEY (date, hour, borough)
);
CREATE TABLE IF NOT EXISTS events_daily (
    date        TEXT    NOT NULL,
    borough     TEXT    NOT NULL,
    event_count INTEGER NOT NULL CHECK (event_count >= 0),
    PRIMARY KEY (date, borough)
);`

const (
	upsertRidershipSQL = `
INSERT INTO ridership_daily (date, mode, riders, source)
VALUES (?, ?, ?, ?)
ON CONFLICT (date, mode) DO UPDATE SET riders = excluded.riders, source = excluded.source`

	upsertWeatherSQL = `
INSERT INTO weather_daily (date, station_id, tmax_f, tmin_f, prcp_in, snow_in)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (date) DO UPDATE SET
    station_id = excluded.station_id,
    tmax_f = excluded.tmax_f,
    tmin_f = excluded.tmin_f,
    prcp_in = excluded.prcp_in,
    snow_in = excluded.snow_in`

	upsertHourlySQL = `
INSERT INTO subway_hourly (date, hour, borough, riders, source)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (date, hour, borough) DO UPDATE SET riders = excluded.riders, source = excluded.source`

	upsertEventsSQL = `
INSERT INTO events_daily (date, borough, event_count)
VALUES (?, ?, ?)
ON CONFLICT (date, borough) DO UPDATE SET event_count = excluded.event_count`
)

// Package sqlite persists the cleaned fact tables in a single-writer SQLite
// database and serves ordered snapshots to the metrics engine.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/transit-metrics-service/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the SQLite database holding the four fact tables.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens the database at path, initializing the schema.
// WAL journaling keeps reads (the serving API) from blocking the writer.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	logger.Info("sqlite store opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Close checkpoints the WAL and closes the database.
func (s *Store) Close() error {
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.logger.Warn("wal checkpoint failed", "error", err)
	}
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertRidershipDaily writes daily ridership rows, replacing existing
// (date, mode) keys.
func (s *Store) UpsertRidershipDaily(ctx context.Context, rows []domain.RidershipDay) error {
	return s.ReplaceRidershipSince(ctx, time.Time{}, rows)
}

// ReplaceRidershipSince deletes all daily ridership rows with date >= cutoff
// and inserts the given rows, in one transaction. The refresh job uses this
// so revised upstream estimates fully supersede the trailing window. A zero
// cutoff skips the delete and performs a plain upsert.
func (s *Store) ReplaceRidershipSince(ctx context.Context, cutoff time.Time, rows []domain.RidershipDay) error {
	return s.replace(ctx, "ridership_daily", cutoff, upsertRidershipSQL, len(rows), func(i int) []any {
		r := rows[i]
		return []any{r.Date.Format(domain.DateLayout), string(r.Mode), r.Riders, r.Source}
	})
}

// UpsertWeatherDaily writes weather rows, replacing existing dates.
func (s *Store) UpsertWeatherDaily(ctx context.Context, rows []domain.WeatherDay) error {
	return s.ReplaceWeatherSince(ctx, time.Time{}, rows)
}

// ReplaceWeatherSince is the weather analogue of ReplaceRidershipSince.
func (s *Store) ReplaceWeatherSince(ctx context.Context, cutoff time.Time, rows []domain.WeatherDay) error {
	return s.replace(ctx, "weather_daily", cutoff, upsertWeatherSQL, len(rows), func(i int) []any {
		w := rows[i]
		return []any{
			w.Date.Format(domain.DateLayout), w.StationID,
			nullFloat(w.TmaxF), nullFloat(w.TminF), nullFloat(w.PrcpIn), nullFloat(w.SnowIn),
		}
	})
}

// UpsertSubwayHourly writes hourly rows, replacing existing keys.
func (s *Store) UpsertSubwayHourly(ctx context.Context, rows []domain.SubwayHour) error {
	return s.ReplaceSubwayHourlySince(ctx, time.Time{}, rows)
}

// ReplaceSubwayHourlySince is the hourly analogue of ReplaceRidershipSince.
func (s *Store) ReplaceSubwayHourlySince(ctx context.Context, cutoff time.Time, rows []domain.SubwayHour) error {
	return s.replace(ctx, "subway_hourly", cutoff, upsertHourlySQL, len(rows), func(i int) []any {
		h := rows[i]
		return []any{h.Date.Format(domain.DateLayout), h.Hour, h.Borough, h.Riders, h.Source}
	})
}

// UpsertEventsDaily writes event rows, replacing existing keys.
func (s *Store) UpsertEventsDaily(ctx context.Context, rows []domain.EventDay) error {
	return s.ReplaceEventsSince(ctx, time.Time{}, rows)
}

// ReplaceEventsSince is the events analogue of ReplaceRidershipSince.
func (s *Store) ReplaceEventsSince(ctx context.Context, cutoff time.Time, rows []domain.EventDay) error {
	return s.replace(ctx, "events_daily", cutoff, upsertEventsSQL, len(rows), func(i int) []any {
		e := rows[i]
		return []any{e.Date.Format(domain.DateLayout), e.Borough, e.EventCount}
	})
}

// replace runs the delete-then-upsert cycle for one table inside a
// transaction, using a prepared statement for the inserts.
func (s *Store) replace(ctx context.Context, table string, cutoff time.Time, upsertSQL string, n int, args func(int) []any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if !cutoff.IsZero() {
		query := fmt.Sprintf("DELETE FROM %s WHERE date >= ?", table) //nolint:gosec // table is a compile-time constant
		if _, err := tx.ExecContext(ctx, query, cutoff.Format(domain.DateLayout)); err != nil {
			return fmt.Errorf("delete %s since %s: %w", table, cutoff.Format(domain.DateLayout), err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert %s: %w", table, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return fmt.Errorf("upsert %s row %d: %w", table, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}
	return nil
}

// LoadRidershipDaily returns all daily ridership rows ordered by (date, mode).
func (s *Store) LoadRidershipDaily(ctx context.Context) ([]domain.RidershipDay, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT date, mode, riders, source FROM ridership_daily ORDER BY date, mode")
	if err != nil {
		return nil, fmt.Errorf("load ridership_daily: %w", err)
	}
	defer rows.Close()

	var out []domain.RidershipDay
	for rows.Next() {
		var r domain.RidershipDay
		var date, mode string
		if err := rows.Scan(&date, &mode, &r.Riders, &r.Source); err != nil {
			return nil, fmt.Errorf("scan ridership_daily: %w", err)
		}
		if r.Date, err = time.Parse(domain.DateLayout, date); err != nil {
			return nil, fmt.Errorf("parse ridership_daily date: %w", err)
		}
		r.Mode = domain.Mode(mode)
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadWeatherDaily returns all weather rows ordered by date.
func (s *Store) LoadWeatherDaily(ctx context.Context) ([]domain.WeatherDay, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT date, station_id, tmax_f, tmin_f, prcp_in, snow_in FROM weather_daily ORDER BY date")
	if err != nil {
		return nil, fmt.Errorf("load weather_daily: %w", err)
	}
	defer rows.Close()

	var out []domain.WeatherDay
	for rows.Next() {
		var w domain.WeatherDay
		var date string
		var tmax, tmin, prcp, snow sql.NullFloat64
		if err := rows.Scan(&date, &w.StationID, &tmax, &tmin, &prcp, &snow); err != nil {
			return nil, fmt.Errorf("scan weather_daily: %w", err)
		}
		if w.Date, err = time.Parse(domain.DateLayout, date); err != nil {
			return nil, fmt.Errorf("parse weather_daily date: %w", err)
		}
		w.TmaxF = floatPtr(tmax)
		w.TminF = floatPtr(tmin)
		w.PrcpIn = floatPtr(prcp)
		w.SnowIn = floatPtr(snow)
		out = append(out, w)
	}
	return out, rows.Err()
}

// LoadSubwayHourly returns all hourly rows ordered by (date, hour, borough).
func (s *Store) LoadSubwayHourly(ctx context.Context) ([]domain.SubwayHour, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT date, hour, borough, riders, source FROM subway_hourly ORDER BY date, hour, borough")
	if err != nil {
		return nil, fmt.Errorf("load subway_hourly: %w", err)
	}
	defer rows.Close()

	var out []domain.SubwayHour
	for rows.Next() {
		var h domain.SubwayHour
		var date string
		if err := rows.Scan(&date, &h.Hour, &h.Borough, &h.Riders, &h.Source); err != nil {
			return nil, fmt.Errorf("scan subway_hourly: %w", err)
		}
		if h.Date, err = time.Parse(domain.DateLayout, date); err != nil {
			return nil, fmt.Errorf("parse subway_hourly date: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// LoadEventsDaily returns all event rows ordered by (date, borough).
func (s *Store) LoadEventsDaily(ctx context.Context) ([]domain.EventDay, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT date, borough, event_count FROM events_daily ORDER BY date, borough")
	if err != nil {
		return nil, fmt.Errorf("load events_daily: %w", err)
	}
	defer rows.Close()

	var out []domain.EventDay
	for rows.Next() {
		var e domain.EventDay
		var date string
		if err := rows.Scan(&date, &e.Borough, &e.EventCount); err != nil {
			return nil, fmt.Errorf("scan events_daily: %w", err)
		}
		if e.Date, err = time.Parse(domain.DateLayout, date); err != nil {
			return nil, fmt.Errorf("parse events_daily date: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Tables lists the stored tables in a stable order.
var Tables = []string{"ridership_daily", "weather_daily", "subway_hourly", "events_daily"}

// RowCounts returns the row count per table, for readiness and integrity checks.
func (s *Store) RowCounts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(Tables))
	for _, table := range Tables {
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table) //nolint:gosec // table from fixed list
		var n int64
		if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

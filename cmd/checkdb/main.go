// Command checkdb runs integrity checks against a store: row counts, key
// validity, and the null-guard invariants of the derived series.
//
// Usage:
//
//	go run ./cmd/checkdb -db data/transit.db
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/transit-metrics-service/internal/adapter/sqlite"
	"github.com/couchcryptid/transit-metrics-service/internal/analytics"
	"github.com/couchcryptid/transit-metrics-service/internal/domain"
	"github.com/couchcryptid/transit-metrics-service/internal/observability"
	"github.com/joho/godotenv"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	_ = godotenv.Load()

	dbPath := flag.String("db", "data/transit.db", "path to the store")
	flag.Parse()

	if code := run(*dbPath); code != 0 {
		os.Exit(code)
	}
}

func run(dbPath string) int {
	logger := observability.NewLogger("warn", "text")

	store, err := sqlite.Open(dbPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open store: %v\n", err)
		return 1
	}
	defer store.Close()

	ctx := context.Background()

	fmt.Println("=== Transit Store Integrity Check ===")
	fmt.Println()

	phases := []*phase{
		checkCounts(ctx, store),
		checkFacts(ctx, store),
		checkDerived(ctx, store),
	}

	failed := 0
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS  %s\n", p.name)
			continue
		}
		failed++
		fmt.Printf("FAIL  %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("      - %s\n", e)
		}
	}

	fmt.Println()
	if failed > 0 {
		fmt.Printf("%d phase(s) failed\n", failed)
		return 1
	}
	fmt.Println("all checks passed")
	return 0
}

// checkCounts verifies every table holds at least one row.
func checkCounts(ctx context.Context, store *sqlite.Store) *phase {
	p := &phase{name: "row counts"}

	counts, err := store.RowCounts(ctx)
	if err != nil {
		p.errorf("count rows: %v", err)
		return p
	}
	for _, table := range sqlite.Tables {
		fmt.Printf("%-16s %d rows\n", table, counts[table])
		if counts[table] == 0 {
			p.errorf("%s is empty", table)
		}
	}
	fmt.Println()
	return p
}

// checkFacts verifies key fields on the stored fact rows.
func checkFacts(ctx context.Context, store *sqlite.Store) *phase {
	p := &phase{name: "fact rows"}

	ridership, err := store.LoadRidershipDaily(ctx)
	if err != nil {
		p.errorf("load ridership: %v", err)
		return p
	}
	for _, r := range ridership {
		if r.Mode != domain.ModeSubway && r.Mode != domain.ModeBus {
			p.errorf("ridership %s: unexpected mode %q", r.Date.Format(domain.DateLayout), r.Mode)
		}
		if r.Riders < 0 {
			p.errorf("ridership %s/%s: negative riders", r.Date.Format(domain.DateLayout), r.Mode)
		}
	}

	hourly, err := store.LoadSubwayHourly(ctx)
	if err != nil {
		p.errorf("load hourly: %v", err)
		return p
	}
	for _, h := range hourly {
		if h.Hour < 0 || h.Hour > 23 {
			p.errorf("hourly %s: hour %d out of range", h.Date.Format(domain.DateLayout), h.Hour)
		}
		if _, ok := domain.NormalizeBorough(h.Borough); !ok {
			p.errorf("hourly %s: unknown borough %q", h.Date.Format(domain.DateLayout), h.Borough)
		}
	}
	return p
}

// checkDerived recomputes the derived series and verifies the null-guard
// invariants hold over real data.
func checkDerived(ctx context.Context, store *sqlite.Store) *phase {
	p := &phase{name: "derived invariants"}

	ridership, err := store.LoadRidershipDaily(ctx)
	if err != nil {
		p.errorf("load ridership: %v", err)
		return p
	}
	weather, err := store.LoadWeatherDaily(ctx)
	if err != nil {
		p.errorf("load weather: %v", err)
		return p
	}
	events, err := store.LoadEventsDaily(ctx)
	if err != nil {
		p.errorf("load events: %v", err)
		return p
	}
	hourly, err := store.LoadSubwayHourly(ctx)
	if err != nil {
		p.errorf("load hourly: %v", err)
		return p
	}

	rolling := analytics.AddRollingMetrics(analytics.JoinDaily(ridership, weather, events))
	for _, row := range rolling {
		if row.RidersMA7 == nil {
			p.errorf("rolling %s/%s: ma7 is null", row.Date.Format(domain.DateLayout), row.Mode)
		}
		if row.PctDeltaVs180 != nil && (row.RidersBaseline180 == nil || *row.RidersBaseline180 == 0) {
			p.errorf("rolling %s/%s: pct_delta set without usable baseline", row.Date.Format(domain.DateLayout), row.Mode)
		}
	}

	for _, row := range analytics.RushHourMultipliers(hourly) {
		if row.Multiplier == nil {
			if row.AvgHourly != 0 {
				p.errorf("rush %s/%s: null multiplier with nonzero avg", row.Date.Format(domain.DateLayout), row.Borough)
			}
			continue
		}
		// multiplier * avg must reconstruct the peak
		if got := *row.Multiplier * row.AvgHourly; absDiff(got, float64(row.PeakHourly)) > 1e-6 {
			p.errorf("rush %s/%s: multiplier*avg=%.4f != peak=%d", row.Date.Format(domain.DateLayout), row.Borough, got, row.PeakHourly)
		}
	}

	for _, row := range analytics.WeekendFactors(hourly) {
		if row.Factor != nil && (row.WeekdayAvg == nil || *row.WeekdayAvg == 0) {
			p.errorf("weekend %s/%02d: factor set without weekday average", row.Borough, row.Hour)
		}
	}

	return p
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

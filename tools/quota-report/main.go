// quota-report - prints today's ReelWatch quota usage and trending searches
// Usage: go run ./tools/quota-report [--db PATH] [--json]
// Default: --db ./reelwatch.db
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/onllm-dev/reelwatch/internal/analytics"
	"github.com/onllm-dev/reelwatch/internal/quota"
	"github.com/onllm-dev/reelwatch/internal/store"
)

// PoolReport is one quota pool as of the report time.
type PoolReport struct {
	Pool  string `json:"pool"`
	Date  string `json:"date"`
	Used  int    `json:"used"`
	Limit int    `json:"limit"`
	Left  int    `json:"left"`
}

// Report contains everything quota-report prints.
type Report struct {
	Timestamp time.Time                 `json:"timestamp"`
	DBPath    string                    `json:"db_path"`
	Pools     []PoolReport              `json:"pools"`
	Counted   []string                  `json:"counted_queries"`
	Trending  []analytics.TrendingEntry `json:"trending"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var dbPath string
	var asJSON bool

	flagSet := pflag.NewFlagSet("quota-report", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	flagSet.StringVar(&dbPath, "db", "./reelwatch.db", "SQLite database file path")
	flagSet.BoolVar(&asJSON, "json", false, "print the report as JSON")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return fmt.Errorf("unexpected argument: %s", extra[0])
	}

	db, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	report, err := buildReport(context.Background(), db, dbPath, limitsFromEnv(), time.Now, logger)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	displayReport(out, report)
	return nil
}

// limitsFromEnv reads the same limit variables as the app, falling back to
// the defaults on anything unparseable.
func limitsFromEnv() quota.Limits {
	limits := quota.DefaultLimits
	if v, err := strconv.Atoi(os.Getenv("REELWATCH_CATALOG_LIMIT")); err == nil && v > 0 {
		limits.Catalog = v
	}
	if v, err := strconv.Atoi(os.Getenv("REELWATCH_ANALYTICS_LIMIT")); err == nil && v > 0 {
		limits.Analytics = v
	}
	return limits
}

// buildReport reads the ledger the same way the app does, so a stale day is
// rolled over before it is reported.
func buildReport(ctx context.Context, db *store.Store, dbPath string, limits quota.Limits, now func() time.Time, logger *slog.Logger) (*Report, error) {
	ledger := quota.NewLedger(db, now, logger)
	registry := quota.NewRegistry(db, now, logger)
	governor := quota.NewGovernor(ledger, registry, limits)

	report := &Report{
		Timestamp: now(),
		DBPath:    dbPath,
		Counted:   registry.Items(),
	}
	for _, pool := range quota.Pools {
		b := ledger.ReadBucket(pool)
		report.Pools = append(report.Pools, PoolReport{
			Pool:  string(pool),
			Date:  b.Date,
			Used:  b.Count,
			Limit: governor.Limit(pool),
			Left:  governor.CallsLeft(pool),
		})
	}

	trending, err := analytics.NewSQLiteRecorder(db.DB(), logger).ListTrending(ctx, analytics.DefaultTrendingLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list trending: %w", err)
	}
	report.Trending = trending
	return report, nil
}

func displayReport(out io.Writer, r *Report) {
	fmt.Fprintln(out, "╔════════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(out, "║                  REELWATCH QUOTA REPORT                        ║")
	fmt.Fprintln(out, "╚════════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Database: %s\n\n", r.DBPath)

	fmt.Fprintln(out, "┌────────────────────────────────────────────────────────────────┐")
	fmt.Fprintln(out, "│ DAILY QUOTAS                                                   │")
	fmt.Fprintln(out, "├────────────────────────────────────────────────────────────────┤")
	for _, p := range r.Pools {
		fmt.Fprintf(out, "│  %-10s %s  used: %6d  left: %6d / %-6d      │\n", p.Pool, p.Date, p.Used, p.Left, p.Limit)
	}
	fmt.Fprintln(out, "└────────────────────────────────────────────────────────────────┘")

	fmt.Fprintln(out)
	fmt.Fprintln(out, "┌────────────────────────────────────────────────────────────────┐")
	fmt.Fprintf(out, "│ COUNTED TODAY (%d)%s│\n", len(r.Counted), strings.Repeat(" ", max(63-len("COUNTED TODAY ()")-len(strconv.Itoa(len(r.Counted))), 1)))
	fmt.Fprintln(out, "├────────────────────────────────────────────────────────────────┤")
	for _, q := range r.Counted {
		fmt.Fprintf(out, "│  %-61s │\n", truncate(q, 61))
	}
	fmt.Fprintln(out, "└────────────────────────────────────────────────────────────────┘")

	fmt.Fprintln(out)
	fmt.Fprintln(out, "┌────────────────────────────────────────────────────────────────┐")
	fmt.Fprintln(out, "│ TRENDING SEARCHES                                              │")
	fmt.Fprintln(out, "├────────────────────────────────────────────────────────────────┤")
	for i, e := range r.Trending {
		fmt.Fprintf(out, "│  %d. %-45s %5d searches │\n", i+1, truncate(e.SearchTerm, 45), e.Count)
	}
	fmt.Fprintln(out, "└────────────────────────────────────────────────────────────────┘")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

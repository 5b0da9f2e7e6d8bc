package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/onllm-dev/reelwatch/internal/analytics"
	"github.com/onllm-dev/reelwatch/internal/api"
	"github.com/onllm-dev/reelwatch/internal/config"
	"github.com/onllm-dev/reelwatch/internal/quota"
	"github.com/onllm-dev/reelwatch/internal/search"
	"github.com/onllm-dev/reelwatch/internal/store"
	"github.com/onllm-dev/reelwatch/internal/tui"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse flags and load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.ShowVersion {
		fmt.Printf("ReelWatch v%s\n", version)
		return nil
	}
	if cfg.ShowHelp {
		printHelp()
		return nil
	}

	// Setup logging
	logWriter, err := cfg.LogWriter()
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer func() {
		if closer, ok := logWriter.(io.Closer); ok && !cfg.DebugMode {
			closer.Close()
		}
	}()

	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	printBanner(cfg, version)

	// Open database
	db, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	logger.Info("Database opened", "path", cfg.DBPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create components
	catalog := api.NewCatalogClient(cfg.APIKey, logger, api.WithBaseURL(cfg.CatalogBaseURL))
	recorder, closeRecorder := openRecorder(ctx, cfg, db, logger)
	defer closeRecorder()

	ledger := quota.NewLedger(db, time.Now, logger)
	ledger.SetOnRollover(func(pool quota.Pool, previous quota.Bucket) {
		logger.Info("Daily quota reset", "pool", pool, "previous_date", previous.Date, "previous_count", previous.Count)
	})
	registry := quota.NewRegistry(db, time.Now, logger)
	governor := quota.NewGovernor(ledger, registry, quota.Limits{
		Catalog:   cfg.CatalogLimit,
		Analytics: cfg.AnalyticsLimit,
	})

	orch := search.New(catalog, recorder, governor, search.Options{Debounce: cfg.Debounce}, logger)

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if cfg.DebugMode {
		err = runLineMode(ctx, cancel, orch, os.Stdin, sigChan, cfg.Debounce, logger)
	} else {
		err = runTUI(ctx, cancel, orch, sigChan, logger)
	}

	// Close database
	if cerr := db.Close(); cerr != nil {
		logger.Error("Database close error", "error", cerr)
	}

	logger.Info("Shutdown complete")
	return err
}

// openRecorder picks the analytics backend. Analytics is best effort, so a
// Postgres store that cannot be reached leaves the app running without it.
func openRecorder(ctx context.Context, cfg *config.Config, db *store.Store, logger *slog.Logger) (analytics.Recorder, func()) {
	noop := func() {}

	switch {
	case cfg.AnalyticsDSN == "":
		logger.Info("Analytics using local store")
		return analytics.NewSQLiteRecorder(db.DB(), logger), noop
	case analytics.IsPostgresDSN(cfg.AnalyticsDSN):
		connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
		defer connectCancel()
		rec, err := analytics.OpenPostgres(connectCtx, cfg.AnalyticsDSN, logger)
		if err != nil {
			logger.Warn("Analytics store unavailable, trending disabled", "error", err)
			return nil, noop
		}
		logger.Info("Analytics using PostgreSQL")
		return rec, func() {
			if err := rec.Close(); err != nil {
				logger.Error("Analytics close error", "error", err)
			}
		}
	default:
		logger.Warn("Unsupported analytics DSN, trending disabled")
		return nil, noop
	}
}

// runTUI runs the interactive screen until the user quits or a signal arrives.
func runTUI(ctx context.Context, cancel context.CancelFunc, orch *search.Orchestrator, sigChan <-chan os.Signal, logger *slog.Logger) error {
	model := tui.NewModel(orch, orch.State(), nil)
	program := tea.NewProgram(model, tea.WithAltScreen())

	bridge := tui.NewBridge()
	orch.Subscribe(bridge.Observe)
	go bridge.Run(ctx, program.Send)

	orchDone := make(chan error, 1)
	go func() {
		orchDone <- orch.Run(ctx)
	}()

	uiDone := make(chan error, 1)
	go func() {
		_, err := program.Run()
		uiDone <- err
	}()

	var uiErr error
	select {
	case sig := <-sigChan:
		logger.Info("Received signal, shutting down gracefully", "signal", sig)
		program.Quit()
		uiErr = <-uiDone
	case uiErr = <-uiDone:
		logger.Info("UI closed")
	}

	// Graceful shutdown sequence
	logger.Info("Shutting down...")
	cancel()
	if err := <-orchDone; err != nil {
		logger.Error("Orchestrator stopped with error", "error", err)
	}

	if uiErr != nil {
		return fmt.Errorf("ui error: %w", uiErr)
	}
	return nil
}

// runLineMode treats each input line as the full contents of the search box
// and logs every state change. Each line is given time to settle before the
// next one is typed. It returns when input ends or a signal arrives.
func runLineMode(ctx context.Context, cancel context.CancelFunc, orch *search.Orchestrator, in io.Reader, sigChan <-chan os.Signal, debounce time.Duration, logger *slog.Logger) error {
	orch.Subscribe(func(s search.State) {
		logger.Info("State changed",
			"term", s.SearchTerm,
			"debounced", s.DebouncedTerm,
			"loading", s.Loading,
			"movies", len(s.Movies),
			"top", topTitles(s.Movies, 3),
			"trending", len(s.Trending),
			"error", s.ErrorMessage,
			"catalog_left", s.CatalogLeft,
			"analytics_left", s.AnalyticsLeft,
		)
	})

	orchDone := make(chan error, 1)
	go func() {
		orchDone <- orch.Run(ctx)
	}()

	inputDone := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			orch.Type(scanner.Text())
			if !waitIdle(ctx, orch, debounce) {
				break
			}
		}
		inputDone <- scanner.Err()
	}()

	var inputErr error
	select {
	case sig := <-sigChan:
		logger.Info("Received signal, shutting down gracefully", "signal", sig)
	case inputErr = <-inputDone:
		logger.Info("Input closed")
	}

	logger.Info("Shutting down...")
	cancel()
	if err := <-orchDone; err != nil {
		logger.Error("Orchestrator stopped with error", "error", err)
	}

	if inputErr != nil {
		return fmt.Errorf("read input: %w", inputErr)
	}
	return nil
}

// waitIdle gives the last typed term time to settle and finish loading.
// It reports false if ctx ended first.
func waitIdle(ctx context.Context, orch *search.Orchestrator, debounce time.Duration) bool {
	const poll = 50 * time.Millisecond

	timer := time.NewTimer(debounce + poll)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return false
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for orch.State().Loading {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func topTitles(movies []api.Movie, n int) []string {
	titles := make([]string, 0, n)
	for i := 0; i < len(movies) && i < n; i++ {
		titles = append(titles, movies[i].Title)
	}
	return titles
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func printBanner(cfg *config.Config, version string) {
	analyticsDisplay := "local store"
	if cfg.AnalyticsDSN != "" {
		analyticsDisplay = "PostgreSQL"
	}
	mode := "interactive"
	if cfg.DebugMode {
		mode = "line (debug)"
	}

	fmt.Println()
	fmt.Println("╔══════════════════════════════════════╗")
	fmt.Printf("║  ReelWatch v%-24s ║\n", version)
	fmt.Println("╠══════════════════════════════════════╣")
	fmt.Printf("║  Catalog:   %-24d ║\n", cfg.CatalogLimit)
	fmt.Printf("║  Analytics: %-24d ║\n", cfg.AnalyticsLimit)
	fmt.Printf("║  Debounce:  %-24s ║\n", cfg.Debounce)
	fmt.Printf("║  Database:  %-24s ║\n", cfg.DBPath)
	fmt.Printf("║  Trending:  %-24s ║\n", analyticsDisplay)
	fmt.Printf("║  Mode:      %-24s ║\n", mode)
	fmt.Println("╚══════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("API Key: %s\n", api.RedactAPIKey(cfg.APIKey))
	fmt.Println()
}

func printHelp() {
	fmt.Println("ReelWatch - Quota-aware movie search for the terminal")
	fmt.Println()
	fmt.Println("Usage: reelwatch [OPTIONS]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version          Print version and exit")
	fmt.Println("  --help             Print this help message")
	fmt.Println("  --db PATH          SQLite database file path (default: ./reelwatch.db)")
	fmt.Println("  --debug            Line mode: read queries from stdin, log to stdout")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  TMDB_API_KEY               Required - Your TMDB read access token")
	fmt.Println("  REELWATCH_TMDB_BASE_URL    Catalog API base URL")
	fmt.Println("  REELWATCH_DB_PATH          SQLite database file path")
	fmt.Println("  REELWATCH_ANALYTICS_DSN    postgres:// URL for the trending store")
	fmt.Println("  REELWATCH_CATALOG_LIMIT    Catalog calls allowed per day (default: 200)")
	fmt.Println("  REELWATCH_ANALYTICS_LIMIT  Analytics writes allowed per day (default: 200)")
	fmt.Println("  REELWATCH_DEBOUNCE_MS      Typing quiet period in ms (default: 500)")
	fmt.Println("  REELWATCH_LOG_LEVEL        Log level: debug, info, warn, error")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  reelwatch                          # Interactive search")
	fmt.Println("  printf 'dune\\nmatrix\\n' | reelwatch --debug")
}

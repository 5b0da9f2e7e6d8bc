// Package config handles loading and validation of reelwatch configuration.
// It loads from .env files, environment variables, and CLI flags.
package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	APIKey         string        // TMDB_API_KEY
	CatalogBaseURL string        // REELWATCH_TMDB_BASE_URL
	DBPath         string        // REELWATCH_DB_PATH
	AnalyticsDSN   string        // REELWATCH_ANALYTICS_DSN (empty → SQLite store)
	CatalogLimit   int           // REELWATCH_CATALOG_LIMIT
	AnalyticsLimit int           // REELWATCH_ANALYTICS_LIMIT
	Debounce       time.Duration // REELWATCH_DEBOUNCE_MS (ms → Duration)
	LogLevel       string        // REELWATCH_LOG_LEVEL
	DebugMode      bool          // --debug flag (line mode, log to stdout)
	ShowVersion    bool          // --version / -v
	ShowHelp       bool          // --help / -h
}

// flagValues holds parsed CLI flags.
type flagValues struct {
	db      string
	debug   bool
	version bool
	help    bool
}

// Load reads configuration from .env file, environment variables, and CLI flags.
// Flags take precedence over environment variables.
func Load() (*Config, error) {
	return loadWithArgs(os.Args[1:])
}

// loadWithArgs loads config with specific arguments (for testing).
func loadWithArgs(args []string) (*Config, error) {
	flags := &flagValues{}

	// Parse CLI flags manually to avoid flag.ExitOnError in tests
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--debug":
			flags.debug = true
		case arg == "--version" || arg == "-v":
			flags.version = true
		case arg == "--help" || arg == "-h":
			flags.help = true
		case strings.HasPrefix(arg, "--db="):
			flags.db = strings.TrimPrefix(arg, "--db=")
		case arg == "--db":
			if i+1 < len(args) {
				flags.db = args[i+1]
				i++
			}
		}
	}

	return loadFromEnvAndFlags(flags)
}

// loadFromEnvAndFlags combines environment variables with CLI flags.
func loadFromEnvAndFlags(flags *flagValues) (*Config, error) {
	// Try to load .env file (ignore errors - file is optional)
	_ = godotenv.Load(".env")

	cfg := &Config{
		ShowVersion: flags.version,
		ShowHelp:    flags.help,
		DebugMode:   flags.debug,
	}

	cfg.APIKey = os.Getenv("TMDB_API_KEY")
	cfg.CatalogBaseURL = os.Getenv("REELWATCH_TMDB_BASE_URL")
	cfg.AnalyticsDSN = os.Getenv("REELWATCH_ANALYTICS_DSN")
	cfg.LogLevel = os.Getenv("REELWATCH_LOG_LEVEL")

	if flags.db != "" {
		cfg.DBPath = flags.db
	} else {
		cfg.DBPath = os.Getenv("REELWATCH_DB_PATH")
	}

	var err error
	if cfg.CatalogLimit, err = envInt("REELWATCH_CATALOG_LIMIT"); err != nil {
		return nil, err
	}
	if cfg.AnalyticsLimit, err = envInt("REELWATCH_ANALYTICS_LIMIT"); err != nil {
		return nil, err
	}
	debounceMS, err := envInt("REELWATCH_DEBOUNCE_MS")
	if err != nil {
		return nil, err
	}
	cfg.Debounce = time.Duration(debounceMS) * time.Millisecond

	cfg.applyDefaults()

	// --version and --help must work without credentials.
	if cfg.ShowVersion || cfg.ShowHelp {
		return cfg, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envInt parses an optional integer environment variable. Unset is zero.
func envInt(name string) (int, error) {
	env := os.Getenv(name)
	if env == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(env))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, env)
	}
	return v, nil
}

// applyDefaults sets default values for empty config fields.
func (c *Config) applyDefaults() {
	if c.CatalogBaseURL == "" {
		c.CatalogBaseURL = "https://api.themoviedb.org/3"
	}
	if c.DBPath == "" {
		c.DBPath = "./reelwatch.db"
	}
	if c.CatalogLimit == 0 {
		c.CatalogLimit = 200
	}
	if c.AnalyticsLimit == 0 {
		c.AnalyticsLimit = 200
	}
	if c.Debounce == 0 {
		c.Debounce = 500 * time.Millisecond
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("TMDB_API_KEY is required")
	}

	u, err := url.Parse(c.CatalogBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("REELWATCH_TMDB_BASE_URL must be an http(s) URL, got %q", c.CatalogBaseURL)
	}

	if c.CatalogLimit < 1 || c.CatalogLimit > 100000 {
		return fmt.Errorf("catalog limit must be between 1 and 100000")
	}
	if c.AnalyticsLimit < 1 || c.AnalyticsLimit > 100000 {
		return fmt.Errorf("analytics limit must be between 1 and 100000")
	}

	minDebounce := 50 * time.Millisecond
	maxDebounce := 5 * time.Second
	if c.Debounce < minDebounce {
		return fmt.Errorf("debounce must be at least %v", minDebounce)
	}
	if c.Debounce > maxDebounce {
		return fmt.Errorf("debounce must be at most %v", maxDebounce)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of debug, info, warn, error")
	}

	return nil
}

// String returns a redacted string representation of the config.
func (c *Config) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Config{\n")
	fmt.Fprintf(&sb, "  APIKey: %s,\n", redactAPIKey(c.APIKey))
	fmt.Fprintf(&sb, "  CatalogBaseURL: %s,\n", c.CatalogBaseURL)
	fmt.Fprintf(&sb, "  DBPath: %s,\n", c.DBPath)
	fmt.Fprintf(&sb, "  AnalyticsDSN: %s,\n", redactDSN(c.AnalyticsDSN))
	fmt.Fprintf(&sb, "  CatalogLimit: %d,\n", c.CatalogLimit)
	fmt.Fprintf(&sb, "  AnalyticsLimit: %d,\n", c.AnalyticsLimit)
	fmt.Fprintf(&sb, "  Debounce: %v,\n", c.Debounce)
	fmt.Fprintf(&sb, "  LogLevel: %s,\n", c.LogLevel)
	fmt.Fprintf(&sb, "  DebugMode: %v,\n", c.DebugMode)
	fmt.Fprintf(&sb, "}")
	return sb.String()
}

// redactAPIKey masks the API key for display.
func redactAPIKey(key string) string {
	if key == "" {
		return "(empty)"
	}
	if len(key) < 12 {
		return "***...***"
	}
	return key[:4] + "***...***" + key[len(key)-3:]
}

// redactDSN hides the password in a database URL.
func redactDSN(dsn string) string {
	if dsn == "" {
		return "(store)"
	}
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, hasPass := u.User.Password(); hasPass {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

// LogWriter returns the appropriate log destination based on debug mode.
// In debug mode: returns os.Stdout
// Otherwise: returns a file handle to .reelwatch.log, since the TUI owns the terminal
func (c *Config) LogWriter() (io.Writer, error) {
	if c.DebugMode {
		return os.Stdout, nil
	}

	logPath := filepath.Join(filepath.Dir(c.DBPath), ".reelwatch.log")

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return file, nil
}

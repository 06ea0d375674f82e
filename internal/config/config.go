package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/riskibarqy/cartola-ingest/internal/domain/marketdata"
	"github.com/riskibarqy/cartola-ingest/internal/platform/logging"
)

const (
	BackendREST     = "rest"
	BackendPostgres = "postgres"
)

const (
	DefaultMarketURL = "https://api.cartola.globo.com/atletas/mercado"
	DefaultStatusURL = "https://api.cartola.globo.com/mercado/status"
	DefaultScoresURL = "https://api.cartola.globo.com/atletas/pontuados"
	DefaultUserAgent = "cartola-ingest/1.0"
)

var (
	backendURLKeys = []string{"SUPABASE_URL", "EXPO_PUBLIC_SUPABASE_URL"}
	serviceKeyKeys = []string{"SUPABASE_SERVICE_ROLE_KEY", "SUPABASE_SERVICE_KEY"}
	dbURLKeys      = []string{"DB_URL", "SUPABASE_DB_URL"}
)

// Config stores runtime configuration for one ingest run. It is read once at startup.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	Backend        string
	BackendURL     string
	ServiceKey     string
	DBURL          string
	MarketURL      string
	StatusURL      string
	ScoresURL      string
	UserAgent      string
	UptraceEnabled bool
	UptraceDSN     string
	LogLevel       logging.Level
	LogFormat      string
}

// LoadDotEnv reads KEY=VALUE pairs from the given files into the process environment
// without overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return crerr.Wrapf(err, "load env file %s", path)
		}
	}
	return nil
}

func Load() (Config, error) {
	backend := strings.ToLower(strings.TrimSpace(getEnv("INGEST_BACKEND", BackendREST)))
	switch backend {
	case BackendREST, BackendPostgres:
	default:
		return Config{}, crerr.Wrapf(marketdata.ErrConfiguration,
			"invalid INGEST_BACKEND %q: valid values are %s, %s", backend, BackendREST, BackendPostgres)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, crerr.Wrapf(marketdata.ErrConfiguration, "parse UPTRACE_ENABLED: %v", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, crerr.Wrap(marketdata.ErrConfiguration, "UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	return Config{
		AppEnv:         strings.TrimSpace(getEnv("APP_ENV", "dev")),
		ServiceName:    strings.TrimSpace(getEnv("SERVICE_NAME", "cartola-ingest")),
		ServiceVersion: strings.TrimSpace(getEnv("SERVICE_VERSION", "dev")),
		Backend:        backend,
		BackendURL:     firstURL(backendURLKeys...),
		ServiceKey:     firstEnv(serviceKeyKeys...),
		DBURL:          DatabaseURL(),
		MarketURL:      strings.TrimSpace(getEnv("CARTOLA_MARKET_URL", DefaultMarketURL)),
		StatusURL:      strings.TrimSpace(getEnv("CARTOLA_STATUS_URL", DefaultStatusURL)),
		ScoresURL:      strings.TrimRight(strings.TrimSpace(getEnv("CARTOLA_SCORES_URL", DefaultScoresURL)), "/"),
		UserAgent:      strings.TrimSpace(getEnv("CARTOLA_USER_AGENT", DefaultUserAgent)),
		UptraceEnabled: uptraceEnabled,
		UptraceDSN:     uptraceDSN,
		LogLevel:       logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		LogFormat:      strings.TrimSpace(getEnv("APP_LOG_FORMAT", logging.FormatConsole)),
	}, nil
}

// RequireWriteTarget checks that the selected backend can be written to.
func (c Config) RequireWriteTarget() error {
	switch c.Backend {
	case BackendPostgres:
		if c.DBURL == "" {
			return crerr.Wrapf(marketdata.ErrConfiguration, "missing database URL: set %s", strings.Join(dbURLKeys, " or "))
		}
	default:
		if c.BackendURL == "" {
			return crerr.Wrapf(marketdata.ErrConfiguration, "missing Supabase URL: set %s", strings.Join(backendURLKeys, " or "))
		}
		if c.ServiceKey == "" {
			return crerr.Wrapf(marketdata.ErrConfiguration,
				"missing service key: set %s to bypass RLS for ingest", strings.Join(serviceKeyKeys, " or "))
		}
	}
	return nil
}

// DatabaseURL resolves the direct Postgres connection string without loading the rest
// of the configuration.
func DatabaseURL() string {
	return firstEnv(dbURLKeys...)
}

// RequestTimeout converts the command's timeout flag.
func RequestTimeout(seconds int) time.Duration {
	if seconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(seconds) * time.Second
}

// firstURL returns the first candidate that looks like an absolute URL, falling back to
// the first non-empty one so a malformed value still surfaces in later errors.
func firstURL(keys ...string) string {
	fallback := ""
	for _, key := range keys {
		value := strings.TrimSpace(getEnv(key, ""))
		if value == "" {
			continue
		}
		if strings.Contains(value, "://") {
			return value
		}
		if fallback == "" {
			fallback = value
		}
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(getEnv(key, "")); value != "" {
			return value
		}
	}
	return ""
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

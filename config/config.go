package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// Example ENV:
//
//	SERVER_PORT=8080
//	POSTGRES_HOST=localhost
//	POSTGRES_DB=lookthrough
//	MARKET_PRIMARY_URL=https://query1.finance.yahoo.com
//	MARKET_FALLBACK_URL=https://query2.finance.yahoo.com
//	MARKET_MAX_RETRIES=2
//	MARKET_RETRY_DELAY=1s
//	BREAKDOWN_CACHE_TTL=24h
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Market   MarketConfig
	Exposure ExposureConfig
}

// ServerConfig holds HTTP server settings.
//
// Fields:
//   - Port: TCP port the HTTP server listens on.
//   - RequestTimeout: upper bound for a single request, upstream calls included.
//   - RateLimit/RateBurst: per-client token bucket; RateLimit 0 disables it.
type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
	RateLimit      float64
	RateBurst      int
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Enabled=false runs the service without a database; user-scoped endpoints
// then answer 503.
type PostgresConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// MarketConfig tunes the upstream market-data client.
type MarketConfig struct {
	PrimaryURL  string
	FallbackURL string
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	Timeout     time.Duration
	RateLimit   int // outbound requests per second, 0 = unlimited
	Parallel    int // concurrent upstream calls per request
}

// ExposureConfig configures the look-through aggregator.
type ExposureConfig struct {
	BreakdownCacheTTL time.Duration
	ReferenceDataPath string // empty = embedded tables
}

// AppConfig is the globally accessible configuration instance, populated by LoadConfig.
var AppConfig Config

// LoadConfig initializes the global AppConfig.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// validateConfig terminates the process when a required value is missing
// or out of range.
func LoadConfig() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_REQUEST_TIMEOUT", "30s")
	viper.SetDefault("SERVER_RATE_LIMIT", 10)
	viper.SetDefault("SERVER_RATE_BURST", 20)

	viper.SetDefault("POSTGRES_ENABLED", true)
	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "lookthrough")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	viper.SetDefault("MARKET_PRIMARY_URL", "https://query1.finance.yahoo.com")
	viper.SetDefault("MARKET_FALLBACK_URL", "https://query2.finance.yahoo.com")
	viper.SetDefault("MARKET_MAX_RETRIES", 2)
	viper.SetDefault("MARKET_RETRY_DELAY", "1s")
	viper.SetDefault("MARKET_CACHE_TTL", "60s")
	viper.SetDefault("MARKET_TIMEOUT", "10s")
	viper.SetDefault("MARKET_RATE_LIMIT", 5)
	viper.SetDefault("MARKET_PARALLEL", 8)

	viper.SetDefault("BREAKDOWN_CACHE_TTL", "24h")
	viper.SetDefault("REFERENCE_DATA_PATH", "")

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()

	AppConfig = Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			RequestTimeout: viper.GetDuration("SERVER_REQUEST_TIMEOUT"),
			RateLimit:      viper.GetFloat64("SERVER_RATE_LIMIT"),
			RateBurst:      viper.GetInt("SERVER_RATE_BURST"),
		},
		Postgres: PostgresConfig{
			Enabled:  viper.GetBool("POSTGRES_ENABLED"),
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
		Market: MarketConfig{
			PrimaryURL:  viper.GetString("MARKET_PRIMARY_URL"),
			FallbackURL: viper.GetString("MARKET_FALLBACK_URL"),
			MaxRetries:  viper.GetInt("MARKET_MAX_RETRIES"),
			RetryDelay:  viper.GetDuration("MARKET_RETRY_DELAY"),
			CacheTTL:    viper.GetDuration("MARKET_CACHE_TTL"),
			Timeout:     viper.GetDuration("MARKET_TIMEOUT"),
			RateLimit:   viper.GetInt("MARKET_RATE_LIMIT"),
			Parallel:    viper.GetInt("MARKET_PARALLEL"),
		},
		Exposure: ExposureConfig{
			BreakdownCacheTTL: viper.GetDuration("BREAKDOWN_CACHE_TTL"),
			ReferenceDataPath: viper.GetString("REFERENCE_DATA_PATH"),
		},
	}

	AppConfig.Postgres.URL = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		AppConfig.Postgres.User,
		AppConfig.Postgres.Password,
		AppConfig.Postgres.Host,
		AppConfig.Postgres.Port,
		AppConfig.Postgres.DBName,
		AppConfig.Postgres.SSLMode,
	)

	validateConfig()
}

// problems lists every missing or out-of-range setting.
func problems(c Config) []string {
	var missing []string

	if c.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if c.Postgres.Enabled {
		if c.Postgres.Host == "" {
			missing = append(missing, "POSTGRES_HOST")
		}
		if c.Postgres.Port == 0 {
			missing = append(missing, "POSTGRES_PORT")
		}
		if c.Postgres.User == "" {
			missing = append(missing, "POSTGRES_USER")
		}
		if c.Postgres.Password == "" {
			missing = append(missing, "POSTGRES_PASSWORD")
		}
		if c.Postgres.DBName == "" {
			missing = append(missing, "POSTGRES_DB")
		}
	}
	if c.Market.PrimaryURL == "" {
		missing = append(missing, "MARKET_PRIMARY_URL")
	}
	if c.Market.MaxRetries < 0 {
		missing = append(missing, "MARKET_MAX_RETRIES (>= 0)")
	}
	if c.Market.RetryDelay < 0 {
		missing = append(missing, "MARKET_RETRY_DELAY (>= 0)")
	}
	if c.Market.Timeout <= 0 {
		missing = append(missing, "MARKET_TIMEOUT (> 0)")
	}
	if c.Market.Parallel <= 0 {
		missing = append(missing, "MARKET_PARALLEL (> 0)")
	}
	return missing
}

// validateConfig terminates the application with log.Fatalf when the
// configuration is incomplete.
func validateConfig() {
	if missing := problems(AppConfig); len(missing) > 0 {
		log.Fatalf("invalid configuration, check environment variables: %v\n", missing)
	}
}

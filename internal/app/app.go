package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/lookthrough/config"
	"github.com/guttosm/lookthrough/internal/api"
	"github.com/guttosm/lookthrough/internal/exposure"
	"github.com/guttosm/lookthrough/internal/logger"
	"github.com/guttosm/lookthrough/internal/marketdata"
	"github.com/guttosm/lookthrough/internal/service"
	"github.com/guttosm/lookthrough/internal/storage"
)

// NewMarketClient builds the upstream client from the market settings.
func NewMarketClient(cfg config.MarketConfig) *marketdata.Client {
	opts := []marketdata.ClientOption{
		marketdata.WithRateLimit(cfg.RateLimit),
		marketdata.WithDefaults(
			marketdata.WithMaxRetries(cfg.MaxRetries),
			marketdata.WithRetryDelay(cfg.RetryDelay),
			marketdata.WithCacheTTL(cfg.CacheTTL),
		),
	}
	if cfg.PrimaryURL != "" || cfg.FallbackURL != "" {
		opts = append(opts, marketdata.WithHosts(cfg.PrimaryURL, cfg.FallbackURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, marketdata.WithTimeout(cfg.Timeout))
	}
	return marketdata.NewClient(opts...)
}

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Builds the market-data client and loads the reference tables.
//   - Connects to PostgreSQL when enabled and wires the holdings repository.
//   - Creates the service and HTTP handler layers.
//   - Configures the Gin router and registers health and readiness probes.
//   - Provides a cleanup function to close resources (e.g., DB connection).
func InitializeApp() (*gin.Engine, func(), error) {
	cfg := config.AppConfig
	log := logger.Component("app")

	ref, err := exposure.LoadReferenceFile(cfg.Exposure.ReferenceDataPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load reference data: %w", err)
	}
	funds, stocks := ref.Counts()
	log.Info().Int("funds", funds).Int("stocks", stocks).Msg("reference data loaded")

	var (
		db   *sql.DB
		repo storage.HoldingsRepository
	)
	if cfg.Postgres.Enabled {
		// indirection for unit testing
		db, err = postgresOpener(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		repo = storage.NewHoldingsRepository(db)
	} else {
		log.Warn().Msg("postgres disabled, user portfolios unavailable")
	}

	client := NewMarketClient(cfg.Market)
	market := service.NewMarketService(client, cfg.Market.Parallel)
	exp := service.NewExposureService(ref, client, repo, service.ExposureConfig{
		Parallel: cfg.Market.Parallel,
		CacheTTL: cfg.Exposure.BreakdownCacheTTL,
	})

	handler := api.NewHandler(market, exp)
	router := api.NewRouter(handler, api.RouterConfig{
		RequestTimeout: cfg.Server.RequestTimeout,
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
	})

	checks := map[string]api.Check{}
	if db != nil {
		checks["postgres"] = func(ctx context.Context) error { return db.PingContext(ctx) }
	}
	api.NewHealthHandler(checks).Register(router)

	cleanup := func() {
		if db != nil {
			_ = db.Close()
		}
	}

	return router, cleanup, nil
}

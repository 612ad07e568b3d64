package main

//
//  @title           lookthrough API
//  @version         1.0
//  @description     Market data and ETF look-through sector exposure.
//  @termsOfService  https://github.com/guttosm/lookthrough
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/lookthrough
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        market
//  @tag.description Quotes, history, search, news and fundamentals
//
//  @tag.name        exposure
//  @tag.description Effective sector exposure of a portfolio
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guttosm/lookthrough/config"
	_ "github.com/guttosm/lookthrough/docs" // swagger docs
	"github.com/guttosm/lookthrough/internal/app"
	"github.com/guttosm/lookthrough/internal/exposure"
	"github.com/guttosm/lookthrough/internal/logger"
	"github.com/guttosm/lookthrough/internal/service"
	"github.com/guttosm/lookthrough/internal/storage"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
//
// Parameters:
//   - ctx (context.Context): A context with timeout for graceful shutdown.
//   - server (*http.Server): The HTTP server instance to shut down.
//   - cleanup (func()): Cleanup callback to release resources (e.g., DB connections).
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// writeReport computes the exposure of a stored portfolio and writes its
// markdown summary to w.
func writeReport(ctx context.Context, w io.Writer, svc service.ExposureService, userID string, live bool) error {
	report, err := svc.ForUser(ctx, userID, live)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, report.Summary)
	return err
}

// main is the entry point of the lookthrough service.
//
// Modes (selected via --mode flag):
//   - api:    Starts the REST API (market data and exposure endpoints).
//   - report: Prints the exposure summary of one stored portfolio.
//
// Flags:
//   - --mode: Execution mode ("api" or "report"). Default: "api".
//   - --user: User whose holdings are reported (report mode).
//   - --live: Fetch fund breakdowns upstream (report mode).
//   - --port: Port for the API server. Defaults to value from config (SERVER_PORT).
func main() {
	ctx := context.Background()

	// Load configuration from environment or .env file
	config.LoadConfig()

	// Initialize JSON logger
	logger.Init()

	mode := flag.String("mode", "api", "Mode: api or report")
	user := flag.String("user", "", "User id for report mode")
	live := flag.Bool("live", false, "Fetch fund breakdowns upstream in report mode")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	switch *mode {
	case "report":
		if *user == "" {
			logger.L().Fatal().Msg("--user is required in report mode")
		}
		cfg := config.AppConfig

		db, err := app.InitPostgres(cfg)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("db connect error")
		}
		defer func() { _ = db.Close() }()

		ref, err := exposure.LoadReferenceFile(cfg.Exposure.ReferenceDataPath)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("reference data error")
		}
		svc := service.NewExposureService(ref, app.NewMarketClient(cfg.Market), storage.NewHoldingsRepository(db),
			service.ExposureConfig{Parallel: cfg.Market.Parallel, CacheTTL: cfg.Exposure.BreakdownCacheTTL})

		if err := writeReport(ctx, os.Stdout, svc, *user, *live); err != nil {
			logger.L().Fatal().Err(err).Str("user", *user).Msg("report failed")
		}

	case "api":
		// API mode: start the HTTP server
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port)
		gracefulShutdown(ctx, server, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}

// Command lookthrough queries market data and computes portfolio sector
// exposure from the terminal.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/guttosm/lookthrough/config"
	"github.com/guttosm/lookthrough/internal/app"
	"github.com/guttosm/lookthrough/internal/cli"
	"github.com/guttosm/lookthrough/internal/exposure"
	"github.com/guttosm/lookthrough/internal/logger"
	"github.com/guttosm/lookthrough/internal/service"
)

func main() {
	// The terminal tool never reads stored portfolios.
	_ = os.Setenv("POSTGRES_ENABLED", "false")
	config.LoadConfig()
	logger.InitWithWriter(os.Stderr)
	cfg := config.AppConfig

	ref, err := exposure.LoadReferenceFile(cfg.Exposure.ReferenceDataPath)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("reference data error")
	}
	client := app.NewMarketClient(cfg.Market)
	env := &cli.Env{
		Market: service.NewMarketService(client, cfg.Market.Parallel),
		Exposure: service.NewExposureService(ref, client, nil, service.ExposureConfig{
			Parallel: cfg.Market.Parallel,
			CacheTTL: cfg.Exposure.BreakdownCacheTTL,
		}),
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range cli.Commands(env) {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

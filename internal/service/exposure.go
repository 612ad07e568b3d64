package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/guttosm/lookthrough/internal/cache"
	"github.com/guttosm/lookthrough/internal/domain/models"
	"github.com/guttosm/lookthrough/internal/exposure"
	"github.com/guttosm/lookthrough/internal/logger"
	"github.com/guttosm/lookthrough/internal/marketdata"
	"github.com/guttosm/lookthrough/internal/storage"
)

// ExposureService computes effective sector exposure for a set of holdings.
type ExposureService interface {
	// Compute aggregates holdings using the reference tables. With live set,
	// fund breakdowns and unknown stock sectors are first fetched upstream;
	// anything that cannot be fetched falls back to the reference tables.
	Compute(ctx context.Context, holdings []models.Holding, live bool) (*models.ExposureReport, error)
	// ForUser loads a user's holdings from the database and computes them.
	// When types are given only holdings of those types are considered.
	ForUser(ctx context.Context, userID string, live bool, types ...models.HoldingType) (*models.ExposureReport, error)
}

// ExposureConfig tunes live enrichment.
type ExposureConfig struct {
	Parallel int
	CacheTTL time.Duration
}

const DefaultBreakdownCacheTTL = 24 * time.Hour

type exposureService struct {
	ref        *exposure.ReferenceData
	client     MarketDataClient
	repo       storage.HoldingsRepository
	cfg        ExposureConfig
	breakdowns *cache.TTL[string, models.FundBreakdown]
	sectors    *cache.TTL[string, string]
	log        zerolog.Logger
}

// NewExposureService wires the reference tables with the optional upstream
// client and repository. A nil client disables live mode; a nil repository
// makes ForUser fail with ErrNoRepository.
func NewExposureService(ref *exposure.ReferenceData, client MarketDataClient, repo storage.HoldingsRepository, cfg ExposureConfig) ExposureService {
	if ref == nil {
		ref = exposure.DefaultReference()
	}
	if cfg.Parallel <= 0 {
		cfg.Parallel = DefaultParallel
	}
	if cfg.CacheTTL < 0 {
		cfg.CacheTTL = 0
	}
	return &exposureService{
		ref:        ref,
		client:     client,
		repo:       repo,
		cfg:        cfg,
		breakdowns: cache.New[string, models.FundBreakdown](),
		sectors:    cache.New[string, string](),
		log:        logger.Component("exposure"),
	}
}

func (s *exposureService) ForUser(ctx context.Context, userID string, live bool, types ...models.HoldingType) (*models.ExposureReport, error) {
	if s.repo == nil {
		return nil, ErrNoRepository
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	for _, t := range types {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: unknown holding type %q", ErrInvalidInput, t)
		}
	}

	var (
		holdings []models.Holding
		err      error
	)
	if len(types) == 0 {
		holdings, err = s.repo.ListHoldings(ctx, userID)
	} else {
		holdings, err = s.repo.ListHoldingsByType(ctx, userID, types...)
	}
	if err != nil {
		return nil, fmt.Errorf("load holdings: %w", err)
	}
	if len(holdings) == 0 {
		return nil, fmt.Errorf("holdings for user %s: %w", userID, ErrNotFound)
	}
	return s.Compute(ctx, holdings, live)
}

func (s *exposureService) Compute(ctx context.Context, holdings []models.Holding, live bool) (*models.ExposureReport, error) {
	cleaned, err := validateHoldings(holdings)
	if err != nil {
		return nil, err
	}

	var (
		liveFunds   map[string]models.FundBreakdown
		liveSectors map[string]string
	)
	if live && s.client != nil {
		funds, stocks := s.liveCandidates(cleaned)
		liveFunds = s.fetchBreakdowns(ctx, funds)
		liveSectors = s.fetchSectors(ctx, stocks)
	}

	funds := exposure.Chain(mapBreakdowns(liveFunds), s.ref)
	sectors := exposure.ChainSectors(s.ref, mapSectors(liveSectors))
	exp := exposure.NewAggregator(sectors).ComputeEffectiveExposure(cleaned, funds)

	total := decimal.Zero
	sources := make(map[string]string, len(cleaned))
	for _, h := range cleaned {
		if h.AllocationPercent <= 0 {
			continue
		}
		total = total.Add(decimal.NewFromFloat(h.AllocationPercent))
		sources[h.Ticker] = s.sourceOf(h, liveFunds, liveSectors)
	}

	return &models.ExposureReport{
		Exposure:        exp,
		TotalAllocation: total.Round(2).InexactFloat64(),
		Sources:         sources,
		Summary:         exposure.Summarize(cleaned, exp),
	}, nil
}

func validateHoldings(holdings []models.Holding) ([]models.Holding, error) {
	out := make([]models.Holding, len(holdings))
	for i, h := range holdings {
		h.Ticker = models.NormalizeTicker(h.Ticker)
		if h.Ticker == "" {
			return nil, fmt.Errorf("%w: holding %d has no ticker", ErrInvalidInput, i)
		}
		if !h.HoldingType.Valid() {
			return nil, fmt.Errorf("%w: holding %s has unknown type %q", ErrInvalidInput, h.Ticker, h.HoldingType)
		}
		if math.IsNaN(h.AllocationPercent) || math.IsInf(h.AllocationPercent, 0) {
			return nil, fmt.Errorf("%w: holding %s has a non-finite allocation", ErrInvalidInput, h.Ticker)
		}
		out[i] = h
	}
	return out, nil
}

// liveCandidates lists the funds to look up and the stocks whose sector is
// neither declared nor in the reference table.
func (s *exposureService) liveCandidates(holdings []models.Holding) (funds, stocks []string) {
	for _, h := range holdings {
		if h.AllocationPercent <= 0 {
			continue
		}
		if h.IsFund() {
			funds = append(funds, h.Ticker)
			continue
		}
		if _, ok := h.DeclaredSector(); ok {
			continue
		}
		if _, ok := s.ref.StockSector(h.Ticker); ok {
			continue
		}
		stocks = append(stocks, h.Ticker)
	}
	return uniqueTickers(funds), uniqueTickers(stocks)
}

func (s *exposureService) fetchBreakdowns(ctx context.Context, tickers []string) map[string]models.FundBreakdown {
	return fanOut(ctx, s.cfg.Parallel, tickers, s.breakdowns, s.cfg.CacheTTL, func(ctx context.Context, t string) (models.FundBreakdown, bool) {
		summary, err := s.client.QuoteSummary(ctx, t, marketdata.FundModules)
		if err != nil {
			s.log.Warn().Str("ticker", t).Err(err).Msg("live fund breakdown unavailable")
			return models.FundBreakdown{}, false
		}
		b, ok := marketdata.FundBreakdownFromSummary(summary)
		if !ok {
			s.log.Debug().Str("ticker", t).Msg("no sector weightings upstream")
			return models.FundBreakdown{}, false
		}
		return exposure.Normalize(b), true
	})
}

func (s *exposureService) fetchSectors(ctx context.Context, tickers []string) map[string]string {
	return fanOut(ctx, s.cfg.Parallel, tickers, s.sectors, s.cfg.CacheTTL, func(ctx context.Context, t string) (string, bool) {
		summary, err := s.client.QuoteSummary(ctx, t, marketdata.StockModules)
		if err != nil {
			s.log.Warn().Str("ticker", t).Err(err).Msg("live sector unavailable")
			return "", false
		}
		return marketdata.SectorFromSummary(summary)
	})
}

// fanOut resolves every ticker concurrently, serving and filling c. Tickers
// that fail to resolve are absent from the result.
func fanOut[V any](ctx context.Context, limit int, tickers []string, c *cache.TTL[string, V], ttl time.Duration, fetch func(context.Context, string) (V, bool)) map[string]V {
	out := make(map[string]V, len(tickers))
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(limit)
	for _, t := range tickers {
		if v, ok := c.Get(t); ok {
			mu.Lock()
			out[t] = v
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			v, ok := fetch(ctx, t)
			if !ok {
				return nil
			}
			c.Set(t, v, ttl)
			mu.Lock()
			out[t] = v
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *exposureService) sourceOf(h models.Holding, liveFunds map[string]models.FundBreakdown, liveSectors map[string]string) string {
	if h.IsFund() {
		if _, ok := liveFunds[h.Ticker]; ok {
			return models.SourceLive
		}
		if _, ok := s.ref.FundBreakdown(h.Ticker); ok {
			return models.SourceReference
		}
		return models.SourceMissing
	}
	if _, ok := h.DeclaredSector(); ok {
		return models.SourceDeclared
	}
	if _, ok := s.ref.StockSector(h.Ticker); ok {
		return models.SourceReference
	}
	if _, ok := liveSectors[h.Ticker]; ok {
		return models.SourceLive
	}
	return models.SourceMissing
}

func mapBreakdowns(m map[string]models.FundBreakdown) exposure.BreakdownLookup {
	return exposure.LookupFunc(func(t string) (models.FundBreakdown, bool) {
		b, ok := m[models.NormalizeTicker(t)]
		return b, ok
	})
}

func mapSectors(m map[string]string) exposure.SectorLookup {
	return exposure.SectorFunc(func(t string) (string, bool) {
		s, ok := m[models.NormalizeTicker(t)]
		return s, ok
	})
}

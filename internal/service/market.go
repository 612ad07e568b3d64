package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/guttosm/lookthrough/internal/domain/models"
	"github.com/guttosm/lookthrough/internal/logger"
	"github.com/guttosm/lookthrough/internal/marketdata"
)

// MarketDataClient is the subset of the upstream client used by the services.
type MarketDataClient interface {
	Chart(ctx context.Context, ticker, rng, interval string, opts ...marketdata.FetchOption) (*models.Chart, error)
	QuoteSummary(ctx context.Context, ticker string, modules []string, opts ...marketdata.FetchOption) (*models.QuoteSummary, error)
	Search(ctx context.Context, query string, count int, opts ...marketdata.FetchOption) ([]models.SearchHit, error)
	News(ctx context.Context, query string, count int, opts ...marketdata.FetchOption) ([]models.NewsItem, error)
}

// MarketService exposes quotes, history, search and fundamentals.
type MarketService interface {
	Quote(ctx context.Context, ticker string) (*models.Quote, error)
	// Quotes fetches every ticker concurrently. Failures never affect other
	// tickers: the failed ones are returned, sorted, as missing.
	Quotes(ctx context.Context, tickers []string) (map[string]models.Quote, []string)
	History(ctx context.Context, ticker, rng, interval string) (*models.PriceHistory, error)
	Search(ctx context.Context, query string, count int) ([]models.SearchHit, error)
	News(ctx context.Context, query string, count int) ([]models.NewsItem, error)
	Fundamentals(ctx context.Context, ticker string, modules []string) (*models.QuoteSummary, error)
}

const (
	DefaultRange    = "1mo"
	DefaultInterval = "1d"
	DefaultParallel = 8
	// MaxQuotesPerRequest bounds the fan-out of a single Quotes call.
	MaxQuotesPerRequest = 50
)

// DefaultFundamentalsModules is used when a fundamentals request names none.
var DefaultFundamentalsModules = []string{"price", "summaryDetail", "assetProfile"}

type marketService struct {
	client   MarketDataClient
	parallel int
	log      zerolog.Logger
}

func NewMarketService(client MarketDataClient, parallel int) MarketService {
	if parallel <= 0 {
		parallel = DefaultParallel
	}
	return &marketService{client: client, parallel: parallel, log: logger.Component("market")}
}

func (s *marketService) Quote(ctx context.Context, ticker string) (*models.Quote, error) {
	ticker = models.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, fmt.Errorf("%w: ticker is required", ErrInvalidInput)
	}
	chart, err := s.client.Chart(ctx, ticker, "1d", "1d")
	if err != nil {
		return nil, err
	}
	return quoteFromChart(ticker, chart)
}

func quoteFromChart(ticker string, c *models.Chart) (*models.Quote, error) {
	price := c.Meta.RegularMarketPrice
	if price == nil {
		// some instruments only report closes in the series
		for i := len(c.Points) - 1; i >= 0 && price == nil; i-- {
			price = c.Points[i].Close
		}
	}
	if price == nil {
		return nil, fmt.Errorf("quote %s: %w", ticker, marketdata.ErrNoData)
	}

	q := &models.Quote{Ticker: ticker, Price: *price, PreviousClose: c.Meta.PreviousClose}
	if prev := c.Meta.PreviousClose; prev != nil && *prev != 0 {
		change := *price - *prev
		pct := change / *prev * 100
		q.Change, q.ChangePercent = &change, &pct
	}
	if c.Meta.Currency != nil {
		q.Currency = *c.Meta.Currency
	}
	if c.Meta.ExchangeName != nil {
		q.Exchange = *c.Meta.ExchangeName
	}
	if c.Meta.RegularMarketTime != nil {
		q.MarketTime = time.Unix(*c.Meta.RegularMarketTime, 0).UTC()
	}
	return q, nil
}

func (s *marketService) Quotes(ctx context.Context, tickers []string) (map[string]models.Quote, []string) {
	tickers = uniqueTickers(tickers)
	quotes := make(map[string]models.Quote, len(tickers))
	var (
		mu      sync.Mutex
		missing []string
		g       errgroup.Group
	)
	g.SetLimit(s.parallel)
	for _, t := range tickers {
		g.Go(func() error {
			q, err := s.Quote(ctx, t)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.log.Warn().Str("ticker", t).Err(err).Msg("quote unavailable")
				missing = append(missing, t)
				return nil
			}
			quotes[t] = *q
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(missing)
	return quotes, missing
}

func (s *marketService) History(ctx context.Context, ticker, rng, interval string) (*models.PriceHistory, error) {
	ticker = models.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, fmt.Errorf("%w: ticker is required", ErrInvalidInput)
	}
	if rng == "" {
		rng = DefaultRange
	}
	if interval == "" {
		interval = DefaultInterval
	}
	if !marketdata.ValidRange(rng) {
		return nil, fmt.Errorf("%w: unsupported range %q", ErrInvalidInput, rng)
	}
	if !marketdata.ValidInterval(interval) {
		return nil, fmt.Errorf("%w: unsupported interval %q", ErrInvalidInput, interval)
	}

	chart, err := s.client.Chart(ctx, ticker, rng, interval)
	if err != nil {
		return nil, err
	}
	h := &models.PriceHistory{Ticker: ticker, Range: rng, Interval: interval, Points: chart.Points}
	if h.Points == nil {
		h.Points = []models.PricePoint{}
	}
	if chart.Meta.Currency != nil {
		h.Currency = *chart.Meta.Currency
	}
	return h, nil
}

func (s *marketService) Search(ctx context.Context, query string, count int) ([]models.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	return s.client.Search(ctx, query, count)
}

func (s *marketService) News(ctx context.Context, query string, count int) ([]models.NewsItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	return s.client.News(ctx, query, count)
}

func (s *marketService) Fundamentals(ctx context.Context, ticker string, modules []string) (*models.QuoteSummary, error) {
	ticker = models.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, fmt.Errorf("%w: ticker is required", ErrInvalidInput)
	}
	if len(modules) == 0 {
		modules = DefaultFundamentalsModules
	}
	return s.client.QuoteSummary(ctx, ticker, modules)
}

// uniqueTickers normalizes tickers, dropping blanks and duplicates while
// keeping the first-seen order.
func uniqueTickers(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = models.NormalizeTicker(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

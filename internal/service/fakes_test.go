package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/guttosm/lookthrough/internal/domain/models"
	"github.com/guttosm/lookthrough/internal/marketdata"
)

type fakeClient struct {
	mu        sync.Mutex
	charts    map[string]*models.Chart
	summaries map[string]*models.QuoteSummary
	hits      []models.SearchHit
	news      []models.NewsItem
	calls     map[string]int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		charts:    map[string]*models.Chart{},
		summaries: map[string]*models.QuoteSummary{},
		calls:     map[string]int{},
	}
}

func (f *fakeClient) record(key string) {
	f.mu.Lock()
	f.calls[key]++
	f.mu.Unlock()
}

func (f *fakeClient) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func unavailable(path string) error {
	return &marketdata.FetchError{Path: path, Attempts: 6, LastStatus: 429}
}

func (f *fakeClient) Chart(_ context.Context, ticker, rng, interval string, _ ...marketdata.FetchOption) (*models.Chart, error) {
	f.record("chart:" + ticker)
	if c, ok := f.charts[ticker]; ok {
		return c, nil
	}
	return nil, unavailable(marketdata.ChartPath(ticker, rng, interval))
}

func (f *fakeClient) QuoteSummary(_ context.Context, ticker string, modules []string, _ ...marketdata.FetchOption) (*models.QuoteSummary, error) {
	f.record("summary:" + ticker)
	if s, ok := f.summaries[ticker]; ok {
		return s, nil
	}
	return nil, unavailable(marketdata.QuoteSummaryPath(ticker, modules...))
}

func (f *fakeClient) Search(_ context.Context, query string, count int, _ ...marketdata.FetchOption) ([]models.SearchHit, error) {
	f.record("search:" + query)
	if f.hits == nil {
		return nil, unavailable(marketdata.SearchPath(query, count))
	}
	return f.hits, nil
}

func (f *fakeClient) News(_ context.Context, query string, count int, _ ...marketdata.FetchOption) ([]models.NewsItem, error) {
	f.record("news:" + query)
	if f.news == nil {
		return nil, unavailable(marketdata.NewsPath(query, count))
	}
	return f.news, nil
}

func summaryWith(ticker string, modules map[string]string) *models.QuoteSummary {
	s := &models.QuoteSummary{Ticker: ticker, Modules: map[string]json.RawMessage{}}
	for k, v := range modules {
		s.Modules[k] = json.RawMessage(v)
	}
	return s
}

func fundSummary(ticker string, weights map[string]float64) *models.QuoteSummary {
	entries := ""
	for k, v := range weights {
		if entries != "" {
			entries += ","
		}
		entries += fmt.Sprintf(`{%q:{"raw":%v}}`, k, v)
	}
	return summaryWith(ticker, map[string]string{
		"topHoldings": `{"sectorWeightings":[` + entries + `]}`,
		"quoteType":   `{"longName":"` + ticker + ` Fund"}`,
	})
}

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }
func str(v string) *string   { return &v }

type stubRepo struct {
	holdings []models.Holding
	err      error
	users    []string
	types    []models.HoldingType
}

func (s *stubRepo) ListHoldings(_ context.Context, userID string) ([]models.Holding, error) {
	s.users = append(s.users, userID)
	return s.holdings, s.err
}

func (s *stubRepo) ListHoldingsByType(ctx context.Context, userID string, types ...models.HoldingType) ([]models.Holding, error) {
	s.types = append(s.types, types...)
	var out []models.Holding
	for _, h := range s.holdings {
		for _, t := range types {
			if h.HoldingType == t {
				out = append(out, h)
				break
			}
		}
	}
	s.users = append(s.users, userID)
	return out, s.err
}

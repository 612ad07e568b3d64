package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/guttosm/lookthrough/internal/domain/models"
)

type upstreamError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *upstreamError) Error() string {
	if e.Description == "" {
		return "upstream error " + e.Code
	}
	return fmt.Sprintf("upstream error %s: %s", e.Code, e.Description)
}

// An error envelope means the request was understood but has nothing to return.
func (e *upstreamError) Unwrap() error { return ErrNoData }

type chartEnvelope struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string   `json:"symbol"`
				Currency           *string  `json:"currency"`
				ExchangeName       *string  `json:"exchangeName"`
				InstrumentType     *string  `json:"instrumentType"`
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
				PreviousClose      *float64 `json:"previousClose"`
				ChartPreviousClose *float64 `json:"chartPreviousClose"`
				RegularMarketTime  *int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *upstreamError `json:"error"`
	} `json:"chart"`
}

// ParseChart decodes a chart payload. Missing meta fields stay nil and null
// samples in the series are kept as nil values.
func ParseChart(data []byte) (*models.Chart, error) {
	var env chartEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	if env.Chart.Error != nil {
		return nil, env.Chart.Error
	}
	if len(env.Chart.Result) == 0 {
		return nil, ErrNoData
	}
	r := env.Chart.Result[0]

	out := &models.Chart{
		Meta: models.ChartMeta{
			Symbol:             r.Meta.Symbol,
			Currency:           r.Meta.Currency,
			ExchangeName:       r.Meta.ExchangeName,
			InstrumentType:     r.Meta.InstrumentType,
			RegularMarketPrice: r.Meta.RegularMarketPrice,
			PreviousClose:      r.Meta.PreviousClose,
			RegularMarketTime:  r.Meta.RegularMarketTime,
		},
	}
	if out.Meta.PreviousClose == nil {
		out.Meta.PreviousClose = r.Meta.ChartPreviousClose
	}

	if len(r.Indicators.Quote) == 0 {
		return out, nil
	}
	q := r.Indicators.Quote[0]
	out.Points = make([]models.PricePoint, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		p := models.PricePoint{
			Time:  time.Unix(ts, 0).UTC(),
			Open:  at(q.Open, i),
			High:  at(q.High, i),
			Low:   at(q.Low, i),
			Close: at(q.Close, i),
		}
		if v := at(q.Volume, i); v != nil {
			vol := int64(math.Round(*v))
			p.Volume = &vol
		}
		out.Points = append(out.Points, p)
	}
	return out, nil
}

func at(values []*float64, i int) *float64 {
	if i < 0 || i >= len(values) {
		return nil
	}
	return values[i]
}

type quoteSummaryEnvelope struct {
	QuoteSummary struct {
		Result []map[string]json.RawMessage `json:"result"`
		Error  *upstreamError               `json:"error"`
	} `json:"quoteSummary"`
}

// ParseQuoteSummary decodes a fundamentals payload, keeping each module as raw JSON.
func ParseQuoteSummary(ticker string, data []byte) (*models.QuoteSummary, error) {
	var env quoteSummaryEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode quote summary: %w", err)
	}
	if env.QuoteSummary.Error != nil {
		return nil, env.QuoteSummary.Error
	}
	if len(env.QuoteSummary.Result) == 0 || len(env.QuoteSummary.Result[0]) == 0 {
		return nil, ErrNoData
	}
	return &models.QuoteSummary{Ticker: models.NormalizeTicker(ticker), Modules: env.QuoteSummary.Result[0]}, nil
}

type searchEnvelope struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		Exchange  string `json:"exchange"`
		ExchDisp  string `json:"exchDisp"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
	News []struct {
		Title               string   `json:"title"`
		Publisher           string   `json:"publisher"`
		Link                string   `json:"link"`
		ProviderPublishTime *int64   `json:"providerPublishTime"`
		RelatedTickers      []string `json:"relatedTickers"`
	} `json:"news"`
}

// ParseSearch decodes a search payload into instrument hits and headlines.
// Entries without a symbol (hits) or title (news) are skipped.
func ParseSearch(data []byte) ([]models.SearchHit, []models.NewsItem, error) {
	var env searchEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, fmt.Errorf("decode search: %w", err)
	}

	hits := make([]models.SearchHit, 0, len(env.Quotes))
	for _, q := range env.Quotes {
		if q.Symbol == "" {
			continue
		}
		name := q.LongName
		if name == "" {
			name = q.ShortName
		}
		exch := q.ExchDisp
		if exch == "" {
			exch = q.Exchange
		}
		hits = append(hits, models.SearchHit{Symbol: q.Symbol, Name: name, Exchange: exch, QuoteType: q.QuoteType})
	}

	news := make([]models.NewsItem, 0, len(env.News))
	for _, n := range env.News {
		if n.Title == "" {
			continue
		}
		item := models.NewsItem{Title: n.Title, Publisher: n.Publisher, Link: n.Link, Tickers: n.RelatedTickers}
		if n.ProviderPublishTime != nil {
			item.PublishedAt = time.Unix(*n.ProviderPublishTime, 0).UTC()
		}
		news = append(news, item)
	}
	return hits, news, nil
}

// Chart fetches and decodes the time series for ticker.
func (c *Client) Chart(ctx context.Context, ticker, rng, interval string, opts ...FetchOption) (*models.Chart, error) {
	res := c.FetchJSON(ctx, ChartPath(ticker, rng, interval), opts...)
	if !res.OK() {
		return nil, res.Err
	}
	return ParseChart(res.Data)
}

// QuoteSummary fetches the requested fundamentals modules for ticker.
func (c *Client) QuoteSummary(ctx context.Context, ticker string, modules []string, opts ...FetchOption) (*models.QuoteSummary, error) {
	res := c.FetchJSON(ctx, QuoteSummaryPath(ticker, modules...), opts...)
	if !res.OK() {
		return nil, res.Err
	}
	return ParseQuoteSummary(ticker, res.Data)
}

// Search runs a free-text instrument search.
func (c *Client) Search(ctx context.Context, query string, count int, opts ...FetchOption) ([]models.SearchHit, error) {
	res := c.FetchJSON(ctx, SearchPath(query, count), opts...)
	if !res.OK() {
		return nil, res.Err
	}
	hits, _, err := ParseSearch(res.Data)
	return hits, err
}

// News returns headlines matching query.
func (c *Client) News(ctx context.Context, query string, count int, opts ...FetchOption) ([]models.NewsItem, error) {
	res := c.FetchJSON(ctx, NewsPath(query, count), opts...)
	if !res.OK() {
		return nil, res.Err
	}
	_, news, err := ParseSearch(res.Data)
	return news, err
}

package models

import (
	"encoding/json"
	"time"
)

// ChartMeta is the price metadata of a chart response. Upstream omits fields
// freely, so every value is optional.
type ChartMeta struct {
	Symbol             string   `json:"symbol"`
	Currency           *string  `json:"currency,omitempty"`
	ExchangeName       *string  `json:"exchange_name,omitempty"`
	InstrumentType     *string  `json:"instrument_type,omitempty"`
	RegularMarketPrice *float64 `json:"regular_market_price,omitempty"`
	PreviousClose      *float64 `json:"previous_close,omitempty"`
	RegularMarketTime  *int64   `json:"regular_market_time,omitempty"`
}

// PricePoint is one OHLCV sample. Nulls in the upstream series stay nil.
type PricePoint struct {
	Time   time.Time `json:"time"`
	Open   *float64  `json:"open,omitempty"`
	High   *float64  `json:"high,omitempty"`
	Low    *float64  `json:"low,omitempty"`
	Close  *float64  `json:"close,omitempty"`
	Volume *int64    `json:"volume,omitempty"`
}

// Chart is a decoded time-series response.
type Chart struct {
	Meta   ChartMeta    `json:"meta"`
	Points []PricePoint `json:"points"`
}

// Quote is the latest price snapshot for an instrument.
type Quote struct {
	Ticker        string    `json:"ticker" example:"AAPL"`
	Price         float64   `json:"price" example:"189.84"`
	PreviousClose *float64  `json:"previous_close,omitempty" example:"187.15"`
	Change        *float64  `json:"change,omitempty" example:"2.69"`
	ChangePercent *float64  `json:"change_percent,omitempty" example:"1.44"`
	Currency      string    `json:"currency,omitempty" example:"USD"`
	Exchange      string    `json:"exchange,omitempty" example:"NMS"`
	MarketTime    time.Time `json:"market_time,omitempty"`
}

// PriceHistory is a chart reduced to what presentation layers plot.
type PriceHistory struct {
	Ticker   string       `json:"ticker"`
	Range    string       `json:"range"`
	Interval string       `json:"interval"`
	Currency string       `json:"currency,omitempty"`
	Points   []PricePoint `json:"points"`
}

// SearchHit is an instrument matched by a free-text search.
type SearchHit struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name,omitempty"`
	Exchange  string `json:"exchange,omitempty"`
	QuoteType string `json:"quote_type,omitempty"`
}

// NewsItem is a headline returned by the search endpoint.
type NewsItem struct {
	Title       string    `json:"title"`
	Publisher   string    `json:"publisher,omitempty"`
	Link        string    `json:"link,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	Tickers     []string  `json:"tickers,omitempty"`
}

// QuoteSummary is a multi-module fundamentals response for one ticker.
// Modules stay loosely typed; consumers read them with JSONPath.
type QuoteSummary struct {
	Ticker  string                     `json:"ticker"`
	Modules map[string]json.RawMessage `json:"modules"`
}

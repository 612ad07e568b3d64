package dto

import "github.com/guttosm/lookthrough/internal/domain/models"

// QuotesResponse carries quotes keyed by ticker. Tickers whose fetch failed
// are listed in Missing instead.
type QuotesResponse struct {
	Quotes  map[string]models.Quote `json:"quotes"`
	Missing []string                `json:"missing,omitempty"`
}

// SearchResponse is returned by GET /api/v1/search.
type SearchResponse struct {
	Query   string             `json:"query" example:"apple"`
	Results []models.SearchHit `json:"results"`
}

// NewsResponse is returned by GET /api/v1/news.
type NewsResponse struct {
	Query string            `json:"query" example:"AAPL"`
	News  []models.NewsItem `json:"news"`
}

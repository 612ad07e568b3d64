package marketdata

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/guttosm/lookthrough/internal/domain/models"
)

const (
	defaultSearchCount = 10
	maxSearchCount     = 50
)

var validRanges = map[string]struct{}{
	"1d": {}, "5d": {}, "1mo": {}, "3mo": {}, "6mo": {}, "1y": {},
	"2y": {}, "5y": {}, "10y": {}, "ytd": {}, "max": {},
}

var validIntervals = map[string]struct{}{
	"1m": {}, "2m": {}, "5m": {}, "15m": {}, "30m": {}, "60m": {}, "90m": {},
	"1h": {}, "1d": {}, "5d": {}, "1wk": {}, "1mo": {}, "3mo": {},
}

// ValidRange reports whether r is a chart range the upstream accepts.
func ValidRange(r string) bool {
	_, ok := validRanges[r]
	return ok
}

// ValidInterval reports whether i is a chart interval the upstream accepts.
func ValidInterval(i string) bool {
	_, ok := validIntervals[i]
	return ok
}

// ChartPath builds the time-series path for a ticker.
//
// Example:
//
//	ChartPath("aapl", "1mo", "1d") == "/v8/finance/chart/AAPL?interval=1d&range=1mo"
func ChartPath(ticker, rng, interval string) string {
	q := url.Values{}
	q.Set("range", rng)
	q.Set("interval", interval)
	return "/v8/finance/chart/" + url.PathEscape(models.NormalizeTicker(ticker)) + "?" + q.Encode()
}

// QuoteSummaryPath builds the multi-module fundamentals path. Blank and
// duplicate module names are dropped; order is preserved.
func QuoteSummaryPath(ticker string, modules ...string) string {
	seen := make(map[string]struct{}, len(modules))
	kept := make([]string, 0, len(modules))
	for _, m := range modules {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		kept = append(kept, m)
	}
	q := url.Values{}
	q.Set("modules", strings.Join(kept, ","))
	return "/v10/finance/quoteSummary/" + url.PathEscape(models.NormalizeTicker(ticker)) + "?" + q.Encode()
}

// SearchPath builds a free-text instrument search path returning up to count matches.
func SearchPath(query string, count int) string {
	return searchPath(query, clampCount(count), 0)
}

// NewsPath builds a search path that only asks for headlines.
func NewsPath(query string, count int) string {
	return searchPath(query, 0, clampCount(count))
}

func searchPath(query string, quotes, news int) string {
	q := url.Values{}
	q.Set("q", strings.TrimSpace(query))
	q.Set("quotesCount", strconv.Itoa(quotes))
	q.Set("newsCount", strconv.Itoa(news))
	return "/v1/finance/search?" + q.Encode()
}

func clampCount(n int) int {
	if n <= 0 {
		return defaultSearchCount
	}
	return min(n, maxSearchCount)
}

package marketdata

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return b
}

func TestParseChart(t *testing.T) {
	c, err := ParseChart(readFixture(t, "chart_aapl.json"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Meta.Symbol != "AAPL" || c.Meta.RegularMarketPrice == nil || *c.Meta.RegularMarketPrice != 189.84 {
		t.Fatalf("unexpected meta: %+v", c.Meta)
	}
	if c.Meta.PreviousClose == nil || *c.Meta.PreviousClose != 187.15 {
		t.Fatalf("previous close should fall back to chartPreviousClose")
	}
	if len(c.Points) != 3 {
		t.Fatalf("want 3 points, got %d", len(c.Points))
	}
	p := c.Points[1]
	if p.Open != nil || p.Low != nil || p.Volume != nil {
		t.Fatalf("nulls must stay nil: %+v", p)
	}
	if p.Close == nil || *p.Close != 190.29 || !p.Time.Equal(time.Unix(1716989400, 0)) {
		t.Fatalf("unexpected point: %+v", p)
	}
	if v := c.Points[0].Volume; v == nil || *v != 53068000 {
		t.Fatalf("unexpected volume %v", v)
	}
}

func TestParseChart_Errors(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"upstream error", `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`},
		{"empty result", `{"chart":{"result":[],"error":null}}`},
		{"missing chart", `{}`},
		{"not json", `nope`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseChart([]byte(tc.body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
	if _, err := ParseChart([]byte(cases[0].body)); !errors.Is(err, ErrNoData) {
		t.Fatalf("upstream error envelope should match ErrNoData, got %v", err)
	}
	if _, err := ParseChart([]byte(`{"chart":{"result":[]}}`)); !errors.Is(err, ErrNoData) {
		t.Fatalf("want ErrNoData, got %v", err)
	}
}

func TestParseChart_MetaOnly(t *testing.T) {
	c, err := ParseChart([]byte(`{"chart":{"result":[{"meta":{"symbol":"X"}}]}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Meta.Currency != nil || c.Meta.RegularMarketPrice != nil || len(c.Points) != 0 {
		t.Fatalf("absent fields must stay empty: %+v", c)
	}
}

func TestParseQuoteSummary(t *testing.T) {
	s, err := ParseQuoteSummary("spy", readFixture(t, "summary_spy.json"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Ticker != "SPY" || len(s.Modules) != 3 {
		t.Fatalf("unexpected summary: ticker=%s modules=%d", s.Ticker, len(s.Modules))
	}
	if _, err := ParseQuoteSummary("x", []byte(`{"quoteSummary":{"result":null,"error":{"code":"Not Found"}}}`)); err == nil {
		t.Fatalf("expected upstream error")
	}
	if _, err := ParseQuoteSummary("x", []byte(`{"quoteSummary":{"result":[{}]}}`)); !errors.Is(err, ErrNoData) {
		t.Fatalf("want ErrNoData, got %v", err)
	}
}

func TestParseSearch(t *testing.T) {
	hits, news, err := ParseSearch(readFixture(t, "search_apple.json"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(hits) != 2 || hits[0].Symbol != "AAPL" || hits[0].Exchange != "NASDAQ" || hits[1].Name != "APPLE CDR" {
		t.Fatalf("unexpected hits: %+v", hits)
	}
	if len(news) != 1 || news[0].Publisher != "Reuters" || news[0].PublishedAt.Unix() != 1717000000 {
		t.Fatalf("unexpected news: %+v", news)
	}
}

func TestClient_TypedAccessors(t *testing.T) {
	chart := newUpstream(t, string(readFixture(t, "chart_aapl.json")), http.StatusOK)
	c, _ := newTestClient(chart.srv.URL)
	got, err := c.Chart(context.Background(), "AAPL", "5d", "1d")
	if err != nil || got.Meta.Symbol != "AAPL" {
		t.Fatalf("chart: %v %+v", err, got)
	}

	search := newUpstream(t, string(readFixture(t, "search_apple.json")), http.StatusOK)
	c, _ = newTestClient(search.srv.URL)
	hits, err := c.Search(context.Background(), "apple", 5)
	if err != nil || len(hits) != 2 {
		t.Fatalf("search: %v %+v", err, hits)
	}
	news, err := c.News(context.Background(), "AAPL", 5)
	if err != nil || len(news) != 1 {
		t.Fatalf("news: %v %+v", err, news)
	}

	summary := newUpstream(t, string(readFixture(t, "summary_spy.json")), http.StatusOK)
	c, _ = newTestClient(summary.srv.URL)
	s, err := c.QuoteSummary(context.Background(), "SPY", FundModules)
	if err != nil || s.Ticker != "SPY" {
		t.Fatalf("summary: %v %+v", err, s)
	}

	down := newUpstream(t, `{}`, http.StatusInternalServerError)
	c, _ = newTestClient(down.srv.URL)
	if _, err := c.Chart(context.Background(), "AAPL", "5d", "1d", WithMaxRetries(0)); !errors.Is(err, ErrAllEndpointsFailed) {
		t.Fatalf("want exhausted error, got %v", err)
	}
}

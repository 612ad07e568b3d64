package exposure

import (
	"strings"
	"testing"

	"github.com/guttosm/lookthrough/internal/domain/models"
)

func TestSorted_WeightDescThenName(t *testing.T) {
	rows := Sorted(models.Exposure{"B": 10, "A": 10, "C": 20, "D": 1})
	got := make([]string, len(rows))
	for i, r := range rows {
		got[i] = r.Sector
	}
	if strings.Join(got, ",") != "C,A,B,D" {
		t.Fatalf("order %v", got)
	}
}

func TestSummarize(t *testing.T) {
	holdings := []models.Holding{
		{Ticker: "aapl", AllocationPercent: 20, HoldingType: models.HoldingTypeStock},
		{Ticker: "SPY", AllocationPercent: 30, HoldingType: models.HoldingTypeETF},
		{Ticker: "ZERO", AllocationPercent: 0, HoldingType: models.HoldingTypeStock},
	}
	e := models.Exposure{"Technology": 29.3, "Financials": 3.9}
	out := Summarize(holdings, e)

	for _, want := range []string{
		"| AAPL | stock | 20.00% | - |",
		"| SPY | etf | 30.00% | look-through |",
		"Total allocation: 50.00%",
		"| Technology | 29.30% |\n| Financials | 3.90% |",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "ZERO") {
		t.Fatalf("zero allocation listed:\n%s", out)
	}
	if out != Summarize(holdings, e) {
		t.Fatalf("summary is not deterministic")
	}
	if !strings.Contains(Summarize(nil, nil), "No exposure.") {
		t.Fatalf("empty summary")
	}
}

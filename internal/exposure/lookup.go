package exposure

import (
	"github.com/shopspring/decimal"

	"github.com/guttosm/lookthrough/internal/domain/models"
)

// BreakdownLookup resolves a fund ticker to its sector breakdown.
type BreakdownLookup interface {
	FundBreakdown(ticker string) (models.FundBreakdown, bool)
}

// SectorLookup resolves a stock ticker to its sector.
type SectorLookup interface {
	StockSector(ticker string) (string, bool)
}

// LookupFunc adapts a function to BreakdownLookup.
type LookupFunc func(ticker string) (models.FundBreakdown, bool)

func (f LookupFunc) FundBreakdown(ticker string) (models.FundBreakdown, bool) {
	return f(ticker)
}

// SectorFunc adapts a function to SectorLookup.
type SectorFunc func(ticker string) (string, bool)

func (f SectorFunc) StockSector(ticker string) (string, bool) {
	return f(ticker)
}

// Chain returns a lookup that asks each lookup in order; the first hit wins.
// Nil entries are ignored.
func Chain(lookups ...BreakdownLookup) BreakdownLookup {
	return LookupFunc(func(ticker string) (models.FundBreakdown, bool) {
		for _, l := range lookups {
			if l == nil {
				continue
			}
			if b, ok := l.FundBreakdown(ticker); ok {
				return b, true
			}
		}
		return models.FundBreakdown{}, false
	})
}

// ChainSectors is Chain for sector lookups.
func ChainSectors(lookups ...SectorLookup) SectorLookup {
	return SectorFunc(func(ticker string) (string, bool) {
		for _, l := range lookups {
			if l == nil {
				continue
			}
			if s, ok := l.StockSector(ticker); ok {
				return s, true
			}
		}
		return "", false
	})
}

// Normalize rescales a breakdown so its weights sum to 100. A breakdown with
// no positive weight is returned unchanged.
func Normalize(b models.FundBreakdown) models.FundBreakdown {
	total := decimal.Zero
	for _, w := range b.Sectors {
		if positive(w) {
			total = total.Add(decimal.NewFromFloat(w))
		}
	}
	if total.IsZero() {
		return b
	}

	scaled := make(map[string]float64, len(b.Sectors))
	for name, w := range b.Sectors {
		if !positive(w) {
			continue
		}
		scaled[name] = decimal.NewFromFloat(w).Mul(hundred).Div(total).InexactFloat64()
	}
	out := models.NewFundBreakdown(scaled)
	out.Name, out.Exchange, out.Category = b.Name, b.Exchange, b.Category
	return out
}

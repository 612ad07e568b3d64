// Package exposure computes a portfolio's effective sector exposure by looking
// through fund holdings into their sector breakdowns.
package exposure

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/guttosm/lookthrough/internal/domain/models"
)

var hundred = decimal.NewFromInt(100)

// Aggregator turns holdings into sector exposure. The zero value treats
// every undeclared stock as "Other".
type Aggregator struct {
	sectors SectorLookup
}

// NewAggregator returns an aggregator that falls back to sectors for stocks
// without a declared sector.
func NewAggregator(sectors SectorLookup) *Aggregator {
	return &Aggregator{sectors: sectors}
}

// ComputeEffectiveExposure distributes each holding's allocation across
// sectors and rounds the totals half-up to two decimals.
//
// Funds contribute allocation * weight / 100 per sector of their breakdown,
// without renormalisation; a fund lookup miss sends the whole allocation to
// "Other". Stocks use their declared sector, then the reference table, then
// "Other". Holdings whose allocation is not a positive finite number are
// skipped, as are such breakdown weights. Overlapping funds are counted once
// per holding.
func (a *Aggregator) ComputeEffectiveExposure(holdings []models.Holding, lookup BreakdownLookup) models.Exposure {
	acc := make(map[string]decimal.Decimal)
	for _, h := range holdings {
		if !positive(h.AllocationPercent) {
			continue
		}
		alloc := decimal.NewFromFloat(h.AllocationPercent)

		if h.IsFund() {
			b, ok := models.FundBreakdown{}, false
			if lookup != nil {
				b, ok = lookup.FundBreakdown(h.Ticker)
			}
			if !ok {
				acc[models.SectorOther] = acc[models.SectorOther].Add(alloc)
				continue
			}
			for sector, w := range b.Sectors {
				if !positive(w) {
					continue
				}
				share := alloc.Mul(decimal.NewFromFloat(w)).Div(hundred)
				acc[sector] = acc[sector].Add(share)
			}
			continue
		}

		sector := a.stockSector(h)
		acc[sector] = acc[sector].Add(alloc)
	}

	out := make(models.Exposure, len(acc))
	for sector, v := range acc {
		out[sector] = v.Round(2).InexactFloat64()
	}
	return out
}

func (a *Aggregator) stockSector(h models.Holding) string {
	if s, ok := h.DeclaredSector(); ok {
		return s
	}
	if a != nil && a.sectors != nil {
		if s, ok := a.sectors.StockSector(h.Ticker); ok && s != "" {
			return s
		}
	}
	return models.SectorOther
}

// positive reports whether v is a finite number above zero. NaN fails the
// comparison on its own.
func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

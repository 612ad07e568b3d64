package models

import "strings"

// HoldingType determines how a holding is treated by the exposure aggregator.
type HoldingType string

const (
	HoldingTypeStock HoldingType = "stock"
	HoldingTypeETF   HoldingType = "etf"
)

// Valid reports whether t is one of the known holding types.
func (t HoldingType) Valid() bool {
	return t == HoldingTypeStock || t == HoldingTypeETF
}

// Holding represents a position the user has recorded.
//
// Fields:
//   - Ticker: instrument identifier, may carry an exchange suffix (e.g. "XIU.TO").
//   - AllocationPercent: caller-declared share of the portfolio (0-100); the
//     allocations of a portfolio are not required to sum to 100.
//   - HoldingType: "stock" or "etf".
//   - Sector: optional; only meaningful for stocks.
type Holding struct {
	Ticker            string      `json:"ticker" example:"AAPL"`
	AllocationPercent float64     `json:"allocation_percent" example:"20"`
	HoldingType       HoldingType `json:"holding_type" example:"stock"`
	Sector            *string     `json:"sector,omitempty" example:"Technology"`
}

// IsFund reports whether the holding is a pooled vehicle whose exposure is
// looked through.
func (h Holding) IsFund() bool {
	return h.HoldingType == HoldingTypeETF
}

// DeclaredSector returns the holding's own sector when one is set.
func (h Holding) DeclaredSector() (string, bool) {
	if h.Sector == nil {
		return "", false
	}
	s := strings.TrimSpace(*h.Sector)
	return s, s != ""
}

// NormalizeTicker upper-cases and trims a ticker so lookups are stable.
func NormalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

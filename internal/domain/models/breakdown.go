package models

import "math"

// SectorOther collects allocation that cannot be attributed to a known sector.
const SectorOther = "Other"

// FundBreakdown describes how a fund's value is distributed across sectors.
//
// Sector weights are percentages and need not sum to exactly 100. Zero
// weights are never stored; use NewFundBreakdown to build one.
type FundBreakdown struct {
	Sectors  map[string]float64 `json:"sectors"`
	Name     string             `json:"name,omitempty"`
	Exchange string             `json:"exchange,omitempty"`
	Category string             `json:"category,omitempty"`
}

// NewFundBreakdown copies weights, dropping zero and negative entries.
func NewFundBreakdown(weights map[string]float64) FundBreakdown {
	sectors := make(map[string]float64, len(weights))
	for name, w := range weights {
		if name == "" || !(w > 0) || math.IsInf(w, 1) {
			continue
		}
		sectors[name] = w
	}
	return FundBreakdown{Sectors: sectors}
}

// Total returns the sum of all sector weights.
func (b FundBreakdown) Total() float64 {
	var sum float64
	for _, w := range b.Sectors {
		sum += w
	}
	return sum
}

// Exposure maps a sector name to a non-negative percentage of the portfolio.
type Exposure map[string]float64

// Total returns the sum of all exposure values.
func (e Exposure) Total() float64 {
	var sum float64
	for _, v := range e {
		sum += v
	}
	return sum
}

// Breakdown source labels reported per fund or stock in an ExposureReport.
const (
	SourceDeclared  = "declared"
	SourceReference = "reference"
	SourceLive      = "live"
	SourceMissing   = "missing"
)

// ExposureReport is the result of an exposure computation together with the
// provenance of the data used for each holding.
type ExposureReport struct {
	Exposure        Exposure          `json:"exposure"`
	TotalAllocation float64           `json:"total_allocation"`
	Sources         map[string]string `json:"sources"`
	Summary         string            `json:"summary"`
}

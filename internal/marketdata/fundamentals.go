package marketdata

import (
	"encoding/json"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"github.com/guttosm/lookthrough/internal/domain/models"
)

// Modules requested when looking a fund or a stock through.
var (
	FundModules  = []string{"topHoldings", "quoteType", "fundProfile"}
	StockModules = []string{"assetProfile", "summaryProfile"}
)

// sectorWeightingKeys maps the upstream sector-weighting keys to the sector
// names used by the reference tables.
var sectorWeightingKeys = map[string]string{
	"technology":             "Technology",
	"financial_services":     "Financials",
	"healthcare":             "Healthcare",
	"consumer_cyclical":      "Consumer Cyclical",
	"consumer_defensive":     "Consumer Defensive",
	"communication_services": "Communication Services",
	"industrials":            "Industrials",
	"energy":                 "Energy",
	"utilities":              "Utilities",
	"realestate":             "Real Estate",
	"basic_materials":        "Basic Materials",
}

// profileSectors maps asset-profile sector names that differ from ours.
var profileSectors = map[string]string{
	"financial services": "Financials",
	"financial":          "Financials",
	"health care":        "Healthcare",
	"consumer cyclical":  "Consumer Cyclical",
	"consumer defensive": "Consumer Defensive",
	"real estate":        "Real Estate",
	"basic materials":    "Basic Materials",
	"communication":      "Communication Services",
}

var hundred = decimal.NewFromInt(100)

// CanonicalSector maps an upstream sector label onto the names used by the
// reference tables. Unknown labels are returned trimmed.
func CanonicalSector(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if s, ok := sectorWeightingKeys[strings.ToLower(name)]; ok {
		return s
	}
	if s, ok := profileSectors[strings.ToLower(name)]; ok {
		return s
	}
	return name
}

// document turns the module map into a generic tree JSONPath can walk.
// Modules that fail to decode are left out.
func document(s *models.QuoteSummary) map[string]any {
	doc := make(map[string]any, len(s.Modules))
	for name, raw := range s.Modules {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		doc[name] = v
	}
	return doc
}

// lookup evaluates a JSONPath expression, treating any error as absence.
func lookup(doc map[string]any, path string) (any, bool) {
	v, err := jsonpath.Get(path, doc)
	if err != nil || v == nil {
		return nil, false
	}
	// jsonpath may wrap a single answer in a list
	if list, ok := v.([]any); ok && len(list) == 1 {
		if _, nested := list[0].([]any); !nested {
			return list[0], true
		}
	}
	return v, true
}

func lookupString(doc map[string]any, paths ...string) string {
	for _, p := range paths {
		if v, ok := lookup(doc, p); ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// number reads either a bare number or an upstream {"raw": x, "fmt": "..."} pair.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case map[string]any:
		if raw, ok := n["raw"].(float64); ok {
			return raw, true
		}
	}
	return 0, false
}

// FundBreakdownFromSummary extracts a fund's sector weights from the
// topHoldings module. Weights arrive as fractions and are converted to
// percentages; zero weights are dropped. The second result is false when the
// summary carries no usable sector data.
func FundBreakdownFromSummary(s *models.QuoteSummary) (models.FundBreakdown, bool) {
	if s == nil {
		return models.FundBreakdown{}, false
	}
	doc := document(s)

	v, ok := lookup(doc, "$.topHoldings.sectorWeightings")
	if !ok {
		return models.FundBreakdown{}, false
	}
	entries, ok := v.([]any)
	if !ok {
		if single, isMap := v.(map[string]any); isMap {
			entries = []any{single}
		}
	}

	weights := make(map[string]decimal.Decimal)
	for _, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		for key, val := range m {
			frac, ok := number(val)
			if !ok || frac <= 0 {
				continue
			}
			name := CanonicalSector(key)
			weights[name] = weights[name].Add(decimal.NewFromFloat(frac).Mul(hundred))
		}
	}

	pct := make(map[string]float64, len(weights))
	for name, w := range weights {
		pct[name] = w.InexactFloat64()
	}
	b := models.NewFundBreakdown(pct)
	if len(b.Sectors) == 0 {
		return models.FundBreakdown{}, false
	}
	b.Name = lookupString(doc, "$.quoteType.longName", "$.quoteType.shortName")
	b.Exchange = lookupString(doc, "$.quoteType.exchange")
	b.Category = lookupString(doc, "$.fundProfile.categoryName")
	return b, true
}

// SectorFromSummary returns the canonical sector of a stock from its profile modules.
func SectorFromSummary(s *models.QuoteSummary) (string, bool) {
	if s == nil {
		return "", false
	}
	sector := CanonicalSector(lookupString(document(s), "$.assetProfile.sector", "$.summaryProfile.sector"))
	return sector, sector != ""
}

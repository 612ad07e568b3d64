package exposure

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/guttosm/lookthrough/internal/domain/models"
)

//go:embed data/reference.json
var defaultReference []byte

type referenceFile struct {
	Funds map[string]struct {
		Name     string             `json:"name"`
		Exchange string             `json:"exchange"`
		Category string             `json:"category"`
		Sectors  map[string]float64 `json:"sectors"`
	} `json:"funds"`
	Stocks map[string]string `json:"stocks"`
}

// ReferenceData holds the static fund breakdown and stock sector tables.
// It is immutable after construction and safe for concurrent use.
type ReferenceData struct {
	funds  map[string]models.FundBreakdown
	stocks map[string]string
}

// ParseReference builds reference tables from their JSON form. Ticker keys
// are upper-cased; entries with blank tickers or sectors are skipped.
func ParseReference(data []byte) (*ReferenceData, error) {
	var f referenceFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode reference data: %w", err)
	}

	ref := &ReferenceData{
		funds:  make(map[string]models.FundBreakdown, len(f.Funds)),
		stocks: make(map[string]string, len(f.Stocks)),
	}
	for ticker, fund := range f.Funds {
		key := models.NormalizeTicker(ticker)
		b := models.NewFundBreakdown(fund.Sectors)
		if key == "" || len(b.Sectors) == 0 {
			continue
		}
		b.Name, b.Exchange, b.Category = fund.Name, fund.Exchange, fund.Category
		ref.funds[key] = b
	}
	for ticker, sector := range f.Stocks {
		key := models.NormalizeTicker(ticker)
		sector = strings.TrimSpace(sector)
		if key == "" || sector == "" {
			continue
		}
		ref.stocks[key] = sector
	}
	return ref, nil
}

// DefaultReference returns the tables compiled into the binary.
func DefaultReference() *ReferenceData {
	ref, err := ParseReference(defaultReference)
	if err != nil {
		panic(fmt.Sprintf("embedded reference data: %v", err))
	}
	return ref
}

// LoadReferenceFile reads reference tables from path. An empty path yields
// the embedded defaults.
func LoadReferenceFile(path string) (*ReferenceData, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultReference(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference data: %w", err)
	}
	return ParseReference(data)
}

// FundBreakdown returns a copy of the stored breakdown for ticker.
// The lookup is exact after upper-casing.
func (r *ReferenceData) FundBreakdown(ticker string) (models.FundBreakdown, bool) {
	if r == nil {
		return models.FundBreakdown{}, false
	}
	b, ok := r.funds[models.NormalizeTicker(ticker)]
	if !ok {
		return models.FundBreakdown{}, false
	}
	out := models.NewFundBreakdown(b.Sectors)
	out.Name, out.Exchange, out.Category = b.Name, b.Exchange, b.Category
	return out, true
}

// StockSector returns the reference sector for ticker.
func (r *ReferenceData) StockSector(ticker string) (string, bool) {
	if r == nil {
		return "", false
	}
	s, ok := r.stocks[models.NormalizeTicker(ticker)]
	return s, ok
}

// Counts reports how many funds and stocks the tables hold.
func (r *ReferenceData) Counts() (funds, stocks int) {
	if r == nil {
		return 0, 0
	}
	return len(r.funds), len(r.stocks)
}

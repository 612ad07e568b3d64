package exposure

import (
	"fmt"
	"sort"
	"strings"

	"github.com/guttosm/lookthrough/internal/domain/models"
)

// SectorWeight is one row of a sorted exposure.
type SectorWeight struct {
	Sector string
	Weight float64
}

// Sorted returns exposure rows by weight descending, ties broken by name.
func Sorted(e models.Exposure) []SectorWeight {
	rows := make([]SectorWeight, 0, len(e))
	for s, w := range e {
		rows = append(rows, SectorWeight{Sector: s, Weight: w})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Weight != rows[j].Weight {
			return rows[i].Weight > rows[j].Weight
		}
		return rows[i].Sector < rows[j].Sector
	})
	return rows
}

// Summarize renders holdings and their exposure as a markdown block. The
// output depends only on its inputs.
func Summarize(holdings []models.Holding, e models.Exposure) string {
	var sb strings.Builder

	sb.WriteString("## Holdings\n\n")
	sb.WriteString("| Ticker | Type | Allocation | Sector |\n")
	sb.WriteString("|---|---|---:|---|\n")
	var total float64
	for _, h := range holdings {
		if h.AllocationPercent <= 0 {
			continue
		}
		total += h.AllocationPercent
		sector := "-"
		if s, ok := h.DeclaredSector(); ok {
			sector = s
		} else if h.IsFund() {
			sector = "look-through"
		}
		fmt.Fprintf(&sb, "| %s | %s | %.2f%% | %s |\n", models.NormalizeTicker(h.Ticker), h.HoldingType, h.AllocationPercent, sector)
	}
	fmt.Fprintf(&sb, "\nTotal allocation: %.2f%%\n", total)

	sb.WriteString("\n## Effective sector exposure\n\n")
	rows := Sorted(e)
	if len(rows) == 0 {
		sb.WriteString("No exposure.\n")
		return sb.String()
	}
	sb.WriteString("| Sector | Exposure |\n")
	sb.WriteString("|---|---:|\n")
	for _, r := range rows {
		fmt.Fprintf(&sb, "| %s | %.2f%% |\n", r.Sector, r.Weight)
	}
	return sb.String()
}

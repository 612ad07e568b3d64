package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/guttosm/lookthrough/internal/domain/models"
)

type exposureCmd struct {
	env  *Env
	file string
	live bool
	raw  bool
}

func (*exposureCmd) Name() string     { return "exposure" }
func (*exposureCmd) Synopsis() string { return "compute the effective sector exposure of a portfolio" }
func (*exposureCmd) Usage() string {
	return `lookthrough exposure -f holdings.json [-live] [-md]

  Looks through the funds of the portfolio into their sectors. The file holds
  either a list of holdings or an object with a "holdings" list:

    [{"ticker": "SPY", "allocation_percent": 30, "holding_type": "etf"}]
`
}

func (c *exposureCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "", "holdings file (JSON)")
	f.BoolVar(&c.live, "live", false, "fetch fund breakdowns upstream before using the reference tables")
	f.BoolVar(&c.raw, "md", false, "print raw markdown instead of rendering it")
}

func (c *exposureCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		fmt.Fprintln(os.Stderr, "Error: -f is required")
		return subcommands.ExitUsageError
	}
	data, err := os.ReadFile(c.file)
	if err != nil {
		return failf("read holdings: %v", err)
	}
	holdings, err := parseHoldings(data)
	if err != nil {
		return failf("%v", err)
	}
	report, err := c.env.Exposure.Compute(ctx, holdings, c.live)
	if err != nil {
		return failf("%v", err)
	}
	if c.raw {
		fmt.Fprintln(c.env.out(), report.Summary)
		return subcommands.ExitSuccess
	}
	c.env.printMarkdown(report.Summary)
	return subcommands.ExitSuccess
}

// parseHoldings accepts a bare list of holdings or {"holdings": [...]}.
func parseHoldings(data []byte) ([]models.Holding, error) {
	data = bytes.TrimSpace(data)
	var holdings []models.Holding
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &holdings); err != nil {
			return nil, fmt.Errorf("decode holdings: %w", err)
		}
		return holdings, nil
	}
	var wrapped struct {
		Holdings []models.Holding `json:"holdings"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode holdings: %w", err)
	}
	if wrapped.Holdings == nil {
		return nil, errors.New("decode holdings: no holdings list")
	}
	return wrapped.Holdings, nil
}

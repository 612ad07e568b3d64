package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/subcommands"

	"github.com/guttosm/lookthrough/internal/domain/models"
)

type quoteCmd struct {
	env *Env
}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "display the latest quote of one or more tickers" }
func (*quoteCmd) Usage() string {
	return `lookthrough quote <ticker>...

  Fetches the latest quote of each ticker. Tickers that cannot be fetched are
  listed after the table.
`
}

func (*quoteCmd) SetFlags(*flag.FlagSet) {}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one ticker is required")
		return subcommands.ExitUsageError
	}
	quotes, missing := c.env.Market.Quotes(ctx, f.Args())
	if len(quotes) == 0 {
		return failf("no quote available for %s", strings.Join(missing, ", "))
	}
	c.env.printMarkdown(quotesMarkdown(quotes, missing))
	return subcommands.ExitSuccess
}

func quotesMarkdown(quotes map[string]models.Quote, missing []string) string {
	tickers := make([]string, 0, len(quotes))
	for t := range quotes {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	var b strings.Builder
	b.WriteString("| Ticker | Price | Change | Change % |\n|---|---:|---:|---:|\n")
	for _, t := range tickers {
		q := quotes[t]
		fmt.Fprintf(&b, "| %s | %.2f %s | %s | %s |\n", t, q.Price, q.Currency, signed(q.Change, ""), signed(q.ChangePercent, "%"))
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, "\nUnavailable: %s\n", strings.Join(missing, ", "))
	}
	return b.String()
}

func signed(v *float64, unit string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%+.2f%s", *v, unit)
}

type searchCmd struct {
	env   *Env
	count int
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search instruments by name or symbol" }
func (*searchCmd) Usage() string {
	return `lookthrough search [-n count] <query>

  Lists instruments matching the query.
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.count, "n", 10, "maximum number of results")
}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	query := strings.TrimSpace(strings.Join(f.Args(), " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "Error: a query is required")
		return subcommands.ExitUsageError
	}
	hits, err := c.env.Market.Search(ctx, query, c.count)
	if err != nil {
		return failf("%v", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## Results for %q\n\n", query)
	if len(hits) == 0 {
		b.WriteString("No match.\n")
	} else {
		b.WriteString("| Symbol | Name | Exchange | Type |\n|---|---|---|---|\n")
		for _, h := range hits {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", h.Symbol, h.Name, h.Exchange, h.QuoteType)
		}
	}
	c.env.printMarkdown(b.String())
	return subcommands.ExitSuccess
}

type historyCmd struct {
	env      *Env
	rng      string
	interval string
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display the closing prices of a ticker" }
func (*historyCmd) Usage() string {
	return `lookthrough history [-range 1mo] [-interval 1d] <ticker>

  Prints the price series of a ticker.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.rng, "range", "1mo", "chart range (1d,5d,1mo,3mo,6mo,1y,2y,5y,10y,ytd,max)")
	f.StringVar(&c.interval, "interval", "1d", "sample interval")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one ticker is required")
		return subcommands.ExitUsageError
	}
	h, err := c.env.Market.History(ctx, f.Arg(0), c.rng, c.interval)
	if err != nil {
		return failf("%v", err)
	}
	c.env.printMarkdown(historyMarkdown(h))
	return subcommands.ExitSuccess
}

func historyMarkdown(h *models.PriceHistory) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s (%s, %s)\n\n", h.Ticker, h.Range, h.Interval)
	b.WriteString("| Date | Close | Volume |\n|---|---:|---:|\n")
	for _, p := range h.Points {
		if p.Close == nil {
			continue
		}
		vol := "-"
		if p.Volume != nil {
			vol = fmt.Sprintf("%d", *p.Volume)
		}
		fmt.Fprintf(&b, "| %s | %.2f | %s |\n", p.Time.Format("2006-01-02 15:04"), *p.Close, vol)
	}
	return b.String()
}

// Package cli implements the lookthrough terminal commands on top of the
// market and exposure services.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/guttosm/lookthrough/internal/service"
)

// Env carries what every command needs.
type Env struct {
	Market   service.MarketService
	Exposure service.ExposureService
	Out      io.Writer
	// Style is the glamour style used to render markdown; empty means auto.
	Style string
}

func (e *Env) out() io.Writer {
	if e.Out == nil {
		return os.Stdout
	}
	return e.Out
}

// Commands returns the commands to register on a commander.
func Commands(env *Env) []subcommands.Command {
	return []subcommands.Command{
		&quoteCmd{env: env},
		&searchCmd{env: env},
		&historyCmd{env: env},
		&exposureCmd{env: env},
	}
}

// printMarkdown renders md for the terminal. If rendering fails the raw
// markdown is printed instead.
func (e *Env) printMarkdown(md string) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(100)}
	if e.Style != "" {
		opts = append(opts, glamour.WithStandardStyle(e.Style))
	} else {
		opts = append(opts, glamour.WithAutoStyle())
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Fprint(e.out(), out)
			return
		}
	}
	fmt.Fprint(e.out(), md)
}

func failf(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitFailure
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"trailfee/internal/spreadsheet"
	"trailfee/pkg/trailfee"
)

// flatCmd holds the flags for the 'flat' subcommand.
type flatCmd struct {
	outputFlags
	holdings string
	nav      string
	bps      string
	asOf     string
}

func (*flatCmd) Name() string     { return "flat" }
func (*flatCmd) Synopsis() string { return "apply one rate to holdings valued at their latest NAV" }
func (*flatCmd) Usage() string {
	return `trailfee flat -holdings <file> -nav <file> [-bps 60] [-as-of <date>] [-o trail_fees.xlsx]

  Sums the lots of each (ISIN, currency, month end), values them at the
  latest NAV known for the ISIN and applies one rate in basis points.
  Input files are .xlsx (first sheet) or .csv.
`
}

func (c *flatCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.holdings, "holdings", "", "holdings file with isin, currency, units, month_end")
	f.StringVar(&c.nav, "nav", "", "valuations file with isin, nav, month_end")
	f.StringVar(&c.bps, "bps", trailfee.DefaultFlatBps.String(), "annual rate in basis points, 0 to 200 in steps of 0.5")
	f.StringVar(&c.asOf, "as-of", "", "ignore valuations dated after this day")
	c.outputFlags.set(f)
}

func (c *flatCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.holdings == "" || c.nav == "" {
		fmt.Fprintln(os.Stderr, "Error: -holdings and -nav are required")
		return subcommands.ExitUsageError
	}
	bps, err := trailfee.ParseAmount(c.bps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -bps: %v\n", err)
		return subcommands.ExitUsageError
	}
	asOf, err := trailfee.ParsePeriod(c.asOf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -as-of: %v\n", err)
		return subcommands.ExitUsageError
	}

	in := trailfee.Input{Strategy: trailfee.StrategyFlat, FlatBps: bps.Decimal, AsOf: asOf}
	if in.Holdings, err = spreadsheet.ReadFile(trailfee.TableHoldings, c.holdings); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading holdings: %v\n", err)
		return subcommands.ExitFailure
	}
	if in.Valuations, err = spreadsheet.ReadFile(trailfee.TableValuations, c.nav); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading valuations: %v\n", err)
		return subcommands.ExitFailure
	}
	return c.outputFlags.run(in)
}

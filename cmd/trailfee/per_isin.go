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

// perISINCmd holds the flags for the 'per-isin' subcommand.
type perISINCmd struct {
	outputFlags
	holdings string
	nav      string
	rates    string
}

func (*perISINCmd) Name() string     { return "per-isin" }
func (*perISINCmd) Synopsis() string { return "apply each ISIN's own rate to holdings valued at the same month end" }
func (*perISINCmd) Usage() string {
	return `trailfee per-isin -holdings <file> -nav <file> -rates <file> [-o trail_fees.xlsx]

  Values each holding at the NAV of the same ISIN and month end and
  applies the rate of the ISIN from the rates file.
  Input files are .xlsx (first sheet) or .csv.
`
}

func (c *perISINCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.holdings, "holdings", "", "holdings file with isin, fund_name, units, currency, month_end")
	f.StringVar(&c.nav, "nav", "", "valuations file with isin, nav, month_end")
	f.StringVar(&c.rates, "rates", "", "rates file with isin, bps")
	c.outputFlags.set(f)
}

func (c *perISINCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.holdings == "" || c.nav == "" || c.rates == "" {
		fmt.Fprintln(os.Stderr, "Error: -holdings, -nav and -rates are required")
		return subcommands.ExitUsageError
	}

	in := trailfee.Input{Strategy: trailfee.StrategyPerISIN}
	var err error
	if in.Holdings, err = spreadsheet.ReadFile(trailfee.TableHoldings, c.holdings); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading holdings: %v\n", err)
		return subcommands.ExitFailure
	}
	if in.Valuations, err = spreadsheet.ReadFile(trailfee.TableValuations, c.nav); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading valuations: %v\n", err)
		return subcommands.ExitFailure
	}
	if in.Rates, err = spreadsheet.ReadFile(trailfee.TableRates, c.rates); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading rates: %v\n", err)
		return subcommands.ExitFailure
	}
	return c.outputFlags.run(in)
}

package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"trailfee/internal/logging"
	"trailfee/internal/spreadsheet"
	"trailfee/pkg/trailfee"
)

const missingCell = "n/a"

// outputFlags are shared by the calculation subcommands.
type outputFlags struct {
	out     string
	plain   bool
	verbose bool
}

func (o *outputFlags) set(f *flag.FlagSet) {
	f.StringVar(&o.out, "o", "", "write the xlsx export to this file")
	f.BoolVar(&o.plain, "plain", false, "print raw markdown instead of rendering it")
	f.BoolVar(&o.verbose, "v", false, "log calculation details to stderr")
}

func (o *outputFlags) run(in trailfee.Input) subcommands.ExitStatus {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	if err := calculate(in, o.out, o.plain, logging.NewWriterLogger(os.Stderr, level), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// calculate runs in, prints the report to w and writes the export to out
// when set.
func calculate(in trailfee.Input, out string, plain bool, logger *slog.Logger, w io.Writer) error {
	core := trailfee.New(trailfee.Options{Logger: logger, Exporter: spreadsheet.NewExporter()})
	calc := core.Calculate
	if out != "" {
		calc = core.CalculateAndExport
	}

	res, err := calc(in)
	if err != nil {
		return err
	}

	md := reportMarkdown(res.Result)
	if plain {
		_, err = io.WriteString(w, md)
	} else {
		err = printMarkdown(w, md)
	}
	if err != nil {
		return err
	}

	if out != "" {
		if err := os.WriteFile(out, res.Export, 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintf(w, "\nExport written to %s\n", out)
	}
	return nil
}

func printMarkdown(w io.Writer, md string) error {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(160))
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	rendered, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	_, err = io.WriteString(w, rendered)
	return err
}

// reportMarkdown renders the report as a markdown table followed by the
// warnings, if any.
func reportMarkdown(res *trailfee.Result) string {
	var b strings.Builder
	rep := res.Report

	fmt.Fprintf(&b, "# %s (%s)\n\n", rep.Sheet, res.Strategy)
	if len(rep.Records) == 0 {
		b.WriteString("No holdings.\n")
	} else {
		b.WriteString("| " + strings.Join(rep.Labels(), " | ") + " |\n")
		b.WriteString("|")
		for _, col := range rep.Columns {
			if col.Kind == trailfee.KindText || col.Kind == trailfee.KindDate {
				b.WriteString(":---|")
			} else {
				b.WriteString("---:|")
			}
		}
		b.WriteString("\n")
		for _, rec := range rep.Records {
			cells := make([]string, len(rep.Columns))
			for i, col := range rep.Columns {
				cells[i] = formatCell(col, col.Value(rec), rec.Currency)
			}
			b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		}
	}

	if len(res.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range res.Warnings {
			if w.ISIN != "" {
				fmt.Fprintf(&b, "- **%s** %s: %s\n", w.ISIN, w.Code, w.Message)
			} else {
				fmt.Fprintf(&b, "- %s: %s\n", w.Code, w.Message)
			}
		}
	}
	return b.String()
}

func formatCell(col trailfee.Column, value any, currency string) string {
	switch v := value.(type) {
	case nil:
		return missingCell
	case string:
		if v == "" {
			return missingCell
		}
		return strings.ReplaceAll(v, "|", "\\|")
	case trailfee.Amount:
		if col.Kind == trailfee.KindMoney {
			return v.StringFixed(int32(trailfee.CurrencyFraction(currency)))
		}
		return v.String()
	case trailfee.Period:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

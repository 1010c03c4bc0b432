package trailfee

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Exporter serializes a report into a downloadable document.
type Exporter interface {
	Export(r *Report) ([]byte, error)
}

// Options controls Core initialization.
type Options struct {
	Logger *slog.Logger
	// Exporter produces the export buffer for CalculateAndExport.
	Exporter Exporter
}

// Core runs calculations with logging and export attached. It holds no
// per-run state and is safe for concurrent use.
type Core struct {
	logger   *slog.Logger
	exporter Exporter
}

// Output is a Result together with its run id and export buffer.
type Output struct {
	*Result
	RunID  string
	Export []byte
}

// New creates a Core from opts.
func New(opts Options) *Core {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Core{logger: logger, exporter: opts.Exporter}
}

// Logger returns the logger the core writes to.
func (c *Core) Logger() *slog.Logger {
	return c.logger
}

// Calculate runs the pipeline over in. Output.Export is nil.
func (c *Core) Calculate(in Input) (*Output, error) {
	return c.run(in, false)
}

// CalculateAndExport runs the pipeline and serializes the report with the
// configured exporter. Export failures are ErrCodeProcessing errors.
func (c *Core) CalculateAndExport(in Input) (*Output, error) {
	if c.exporter == nil {
		return nil, NewError(ErrCodeInternal, "no exporter configured")
	}
	return c.run(in, true)
}

func (c *Core) run(in Input, export bool) (*Output, error) {
	runID := uuid.NewString()
	start := time.Now()
	logger := c.logger.With("run_id", runID, "strategy", string(in.Strategy))
	logger.Debug("calculation started",
		"holdings_rows", len(in.Holdings.Rows),
		"valuation_rows", len(in.Valuations.Rows),
		"rate_rows", len(in.Rates.Rows),
	)

	res, err := Calculate(in)
	if err != nil {
		logger.Warn("calculation rejected", "code", string(CodeOf(err)), "err", err)
		return nil, err
	}

	out := &Output{Result: res, RunID: runID}
	if export {
		data, err := c.exporter.Export(res.Report)
		if err != nil {
			logger.Error("export failed", "err", err)
			return nil, WrapError(ErrCodeProcessing, "export report", err)
		}
		out.Export = data
	}

	missing := 0
	for _, r := range res.Records {
		if r.Commission == nil {
			missing++
		}
	}
	logger.Info("calculation finished",
		"rows", len(res.Records),
		"rows_without_fee", missing,
		"warnings", len(res.Warnings),
		"export_bytes", len(out.Export),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

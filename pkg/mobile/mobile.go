package mobile

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"trailfee/internal/logging"
	"trailfee/internal/spreadsheet"
	"trailfee/pkg/trailfee"
)

// Core wraps the trail fee core for gomobile bindings. Requests and
// responses cross the binding as JSON strings.
type Core struct {
	core   *trailfee.Core
	writer *logging.DailyWriter
}

// NewCore creates a core that logs to the given directory. An empty
// directory discards logs.
func NewCore(logDir string) (*Core, error) {
	var (
		out    io.Writer = io.Discard
		writer *logging.DailyWriter
	)
	if logDir != "" {
		var err error
		if writer, err = logging.NewDailyWriter(logDir, 0); err != nil {
			return nil, err
		}
		out = writer
	}
	return &Core{
		core: trailfee.New(trailfee.Options{
			Logger:   logging.NewWriterLogger(out, slog.LevelInfo),
			Exporter: spreadsheet.NewExporter(),
		}),
		writer: writer,
	}, nil
}

// Close releases the log file, if any.
func (c *Core) Close() error {
	if c == nil {
		return nil
	}
	return c.writer.Close()
}

// SettingsJSON returns the rate limits and the columns each strategy reads.
func (c *Core) SettingsJSON() (string, error) {
	required := make(map[trailfee.Strategy]map[string][]string, len(trailfee.Strategies))
	for _, s := range trailfee.Strategies {
		required[s] = trailfee.RequiredColumns(s)
	}
	return marshalJSON(settingsPayload{
		Strategies:      trailfee.Strategies,
		DefaultBps:      trailfee.Amount{Decimal: trailfee.DefaultFlatBps},
		MinBps:          trailfee.Amount{Decimal: trailfee.MinFlatBps},
		MaxBps:          trailfee.Amount{Decimal: trailfee.MaxFlatBps},
		StepBps:         trailfee.Amount{Decimal: trailfee.FlatBpsStep},
		RequiredColumns: required,
	})
}

// CalculateJSON runs a calculation described by requestJSON. Failures
// are returned as an error payload rather than a Go error so callers can
// read the code and details.
func (c *Core) CalculateJSON(requestJSON string) (string, error) {
	var req calculationRequest
	if err := json.Unmarshal([]byte(requestJSON), &req); err != nil {
		return marshalJSON(errorPayloadFor(trailfee.WrapError(trailfee.ErrCodeInvalidInput, "decode request", err)))
	}

	in := trailfee.Input{
		Strategy:   req.Strategy,
		Holdings:   req.Holdings,
		Valuations: req.Valuations,
		Rates:      req.Rates,
		FlatBps:    trailfee.DefaultFlatBps,
		AsOf:       req.AsOf,
	}
	if req.Bps != nil {
		in.FlatBps = req.Bps.Decimal
	}

	calc := c.core.Calculate
	if req.IncludeExport {
		calc = c.core.CalculateAndExport
	}
	out, err := calc(in)
	if err != nil {
		return marshalJSON(errorPayloadFor(err))
	}
	resp := calculationResponse{
		RunID:    out.RunID,
		Strategy: out.Strategy,
		Report:   out.Report,
		Warnings: out.Warnings,
	}
	if req.IncludeExport {
		resp.Export = out.Export
		resp.ExportName = trailfee.ExportFileName
	}
	return marshalJSON(resp)
}

func marshalJSON(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func errorPayloadFor(err error) errorPayload {
	p := errorPayload{ErrorCode: trailfee.CodeOf(err), Message: err.Error()}
	var schema *trailfee.SchemaError
	var cells *trailfee.CellErrors
	switch {
	case errors.As(err, &schema):
		p.MissingColumns = schema.Missing
	case errors.As(err, &cells):
		p.Cells = cells.Cells
		p.Truncated = cells.Truncated
	}
	return p
}

type calculationRequest struct {
	Strategy      trailfee.Strategy `json:"strategy"`
	Holdings      trailfee.Table    `json:"holdings"`
	Valuations    trailfee.Table    `json:"valuations"`
	Rates         trailfee.Table    `json:"rates"`
	Bps           *trailfee.Amount  `json:"bps"`
	AsOf          trailfee.Period   `json:"as_of"`
	IncludeExport bool              `json:"include_export"`
}

type calculationResponse struct {
	RunID      string             `json:"run_id"`
	Strategy   trailfee.Strategy  `json:"strategy"`
	Report     *trailfee.Report   `json:"report"`
	Warnings   []trailfee.Warning `json:"warnings"`
	Export     []byte             `json:"export,omitempty"`
	ExportName string             `json:"export_name,omitempty"`
}

type errorPayload struct {
	ErrorCode      trailfee.ErrorCode   `json:"error_code"`
	Message        string               `json:"error"`
	MissingColumns map[string][]string  `json:"missing_columns,omitempty"`
	Cells          []trailfee.CellError `json:"cells,omitempty"`
	Truncated      bool                 `json:"truncated,omitempty"`
}

type settingsPayload struct {
	Strategies      []trailfee.Strategy                      `json:"strategies"`
	DefaultBps      trailfee.Amount                          `json:"default_bps"`
	MinBps          trailfee.Amount                          `json:"min_bps"`
	MaxBps          trailfee.Amount                          `json:"max_bps"`
	StepBps         trailfee.Amount                          `json:"step_bps"`
	RequiredColumns map[trailfee.Strategy]map[string][]string `json:"required_columns"`
}

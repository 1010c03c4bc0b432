package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"trailfee/internal/spreadsheet"
	"trailfee/pkg/trailfee"
)

const (
	runIDHeader = "X-Run-ID"
	xlsxType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Multipart form fields.
const (
	fieldHoldings   = "holdings"
	fieldValuations = "valuations"
	fieldRates      = "rates"
	fieldBps        = "bps"
	fieldAsOf       = "as_of"
)

type settingsResponse struct {
	DefaultBps      trailfee.Amount                           `json:"default_bps"`
	MinBps          trailfee.Amount                           `json:"min_bps"`
	MaxBps          trailfee.Amount                           `json:"max_bps"`
	BpsStep         trailfee.Amount                           `json:"bps_step"`
	MaxUploadBytes  int64                                     `json:"max_upload_bytes"`
	Extensions      []string                                  `json:"extensions"`
	RequiredColumns map[trailfee.Strategy]map[string][]string `json:"required_columns"`
}

type calculationResponse struct {
	RunID    string             `json:"run_id"`
	Strategy trailfee.Strategy  `json:"strategy"`
	Report   *trailfee.Report   `json:"report"`
	Warnings []trailfee.Warning `json:"warnings"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) settings(w http.ResponseWriter, r *http.Request) {
	required := make(map[trailfee.Strategy]map[string][]string, len(trailfee.Strategies))
	for _, s := range trailfee.Strategies {
		required[s] = trailfee.RequiredColumns(s)
	}
	writeJSON(w, http.StatusOK, settingsResponse{
		DefaultBps:      trailfee.Amount{Decimal: h.defaultBps()},
		MinBps:          trailfee.Amount{Decimal: trailfee.MinFlatBps},
		MaxBps:          trailfee.Amount{Decimal: trailfee.MaxFlatBps},
		BpsStep:         trailfee.Amount{Decimal: trailfee.FlatBpsStep},
		MaxUploadBytes:  h.opts.MaxUploadBytes,
		Extensions:      spreadsheet.Extensions,
		RequiredColumns: required,
	})
}

// calculate handles one multipart submission for strategy. With export set
// the workbook is returned as an attachment, otherwise the report as JSON.
func (h *handler) calculate(strategy trailfee.Strategy, export bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := h.parseInput(w, r, strategy)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeErrorResponse(w, r, http.StatusRequestEntityTooLarge,
					fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit))
				return
			}
			writeErrorResponse(w, r, http.StatusBadRequest, err)
			return
		}

		calc := h.core.Calculate
		if export {
			calc = h.core.CalculateAndExport
		}
		out, err := calc(in)
		if err != nil {
			writeErrorResponse(w, r, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set(runIDHeader, out.RunID)

		if !export {
			writeJSON(w, http.StatusOK, calculationResponse{
				RunID:    out.RunID,
				Strategy: out.Strategy,
				Report:   out.Report,
				Warnings: out.Warnings,
			})
			return
		}
		w.Header().Set("Content-Type", xlsxType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", trailfee.ExportFileName))
		w.Header().Set("Content-Length", strconv.Itoa(len(out.Export)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out.Export)
	}
}

func (h *handler) parseInput(w http.ResponseWriter, r *http.Request, strategy trailfee.Strategy) (trailfee.Input, error) {
	in := trailfee.Input{Strategy: strategy}

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return in, err
		}
		return in, trailfee.WrapError(trailfee.ErrCodeInvalidInput, "expected a multipart form upload", err)
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	var err error
	if in.Holdings, err = readUpload(r, fieldHoldings, trailfee.TableHoldings); err != nil {
		return in, err
	}
	if in.Valuations, err = readUpload(r, fieldValuations, trailfee.TableValuations); err != nil {
		return in, err
	}

	switch strategy {
	case trailfee.StrategyPerISIN:
		if in.Rates, err = readUpload(r, fieldRates, trailfee.TableRates); err != nil {
			return in, err
		}
	case trailfee.StrategyFlat:
		in.FlatBps = h.defaultBps()
		if raw := strings.TrimSpace(r.FormValue(fieldBps)); raw != "" {
			bps, err := trailfee.ParseAmount(raw)
			if err != nil {
				return in, trailfee.NewError(trailfee.ErrCodeInvalidInput, fmt.Sprintf("bps %q is not a number", raw))
			}
			in.FlatBps = bps.Decimal
		}
		asOf, err := trailfee.ParsePeriod(r.FormValue(fieldAsOf))
		if err != nil {
			return in, trailfee.WrapError(trailfee.ErrCodeInvalidInput, "invalid as_of", err)
		}
		in.AsOf = asOf
	}
	return in, nil
}

func readUpload(r *http.Request, field, table string) (trailfee.Table, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return trailfee.Table{}, trailfee.NewError(trailfee.ErrCodeInvalidInput, fmt.Sprintf("%s file is required", field))
		}
		return trailfee.Table{}, trailfee.WrapError(trailfee.ErrCodeProcessing, fmt.Sprintf("read %s upload", field), err)
	}
	defer file.Close()
	return spreadsheet.ReadTable(table, header.Filename, file)
}

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"trailfee/pkg/trailfee"
)

// ErrorResponse represents an error API response with structured information.
type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// schemaDetails lists missing columns per table.
type schemaDetails struct {
	Missing map[string][]string `json:"missing_columns"`
}

type cellDetails struct {
	Cells     []trailfee.CellError `json:"cells"`
	Truncated bool                 `json:"truncated,omitempty"`
}

// writeErrorResponse writes an error response. Structured errors take their
// HTTP status from their code; other errors use httpStatus.
func writeErrorResponse(w http.ResponseWriter, r *http.Request, httpStatus int, err error) {
	response := ErrorResponse{
		Code:    httpStatus,
		Message: err.Error(),
	}

	var tfErr *trailfee.Error
	if errors.As(err, &tfErr) {
		response.ErrorCode = string(tfErr.Code)
		httpStatus = mapErrorCodeToHTTPStatus(tfErr.Code)
		response.Code = httpStatus
	}
	response.Details = errorDetails(err)
	if r != nil {
		response.RequestID = middleware.GetReqID(r.Context())
	}

	setErrorMessage(w, response.Message)
	writeJSON(w, httpStatus, response)
}

func errorDetails(err error) any {
	var schemaErr *trailfee.SchemaError
	if errors.As(err, &schemaErr) {
		return schemaDetails{Missing: schemaErr.Missing}
	}
	var cellErrs *trailfee.CellErrors
	if errors.As(err, &cellErrs) {
		return cellDetails{Cells: cellErrs.Cells, Truncated: cellErrs.Truncated}
	}
	return nil
}

// mapErrorCodeToHTTPStatus maps business error codes to HTTP status codes.
func mapErrorCodeToHTTPStatus(code trailfee.ErrorCode) int {
	switch code {
	case trailfee.ErrCodeSchema, trailfee.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case trailfee.ErrCodeProcessing:
		return http.StatusUnprocessableEntity
	case trailfee.ErrCodeUnsupported:
		return http.StatusUnsupportedMediaType
	case trailfee.ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

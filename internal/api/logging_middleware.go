package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"trailfee/pkg/trailfee"
)

// statusRecorder remembers the status, size and error message of a response
// so the request log can report them after the handler returns.
type statusRecorder struct {
	middleware.WrapResponseWriter
	errorMessage string
}

func (w *statusRecorder) SetErrorMessage(message string) {
	w.errorMessage = message
}

// requestAttrs are the fields shared by the request and panic logs.
func requestAttrs(r *http.Request) []any {
	route := ""
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		route = rctx.RoutePattern()
	}
	return []any{
		"request_id", middleware.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"route", route,
		"export", strings.HasSuffix(r.URL.Path, "/export"),
		"remote_ip", r.RemoteAddr,
		"user_agent", r.UserAgent(),
	}
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// requestLoggingMiddleware logs one line per request. Calculation requests
// carry the run id the core assigned, so request and run logs can be joined.
func requestLoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{WrapResponseWriter: middleware.NewWrapResponseWriter(w, r.ProtoMajor)}

			next.ServeHTTP(rec, r)

			status := rec.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := append(requestAttrs(r),
				"status", status,
				"content_length", r.ContentLength,
				"bytes", rec.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
			if runID := rec.Header().Get(runIDHeader); runID != "" {
				fields = append(fields, "run_id", runID)
			}
			if rec.errorMessage != "" {
				fields = append(fields, "error_message", rec.errorMessage)
			}
			logger.Log(r.Context(), levelForStatus(status), "http request completed", fields...)
		})
	}
}

// recoveryLoggingMiddleware turns a handler panic into an INTERNAL_ERROR
// response unless the handler already started writing.
func recoveryLoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				logger.Error("panic recovered", append(requestAttrs(r),
					"panic", fmt.Sprint(recovered),
					"stack", string(debug.Stack()),
				)...)

				if sw, ok := w.(interface{ Status() int }); ok && sw.Status() != 0 {
					return
				}
				writeErrorResponse(w, r, http.StatusInternalServerError,
					trailfee.NewError(trailfee.ErrCodeInternal, "internal server error"))
			}()

			next.ServeHTTP(w, r)
		})
	}
}

package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"

	"trailfee/pkg/trailfee"
)

// DefaultMaxUploadBytes bounds one multipart request when Options leaves it unset.
const DefaultMaxUploadBytes = 32 << 20

// Options configures the router.
type Options struct {
	// MaxUploadBytes bounds the whole multipart body of one request.
	MaxUploadBytes int64
	// DefaultBps is used by the flat endpoints when the form has no bps.
	// Nil means trailfee.DefaultFlatBps.
	DefaultBps *decimal.Decimal
	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string
}

// NewRouter builds the HTTP API router. Request and panic logs go to the
// core's logger.
func NewRouter(core *trailfee.Core, opts Options) http.Handler {
	logger := slog.Default()
	if core != nil {
		logger = core.Logger()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLoggingMiddleware(logger))
	r.Use(recoveryLoggingMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition", runIDHeader},
	}))

	h := &handler{core: core, opts: opts}

	r.Get("/api/health", h.health)
	r.Get("/api/settings", h.settings)

	// Commissions
	r.Route("/api/commissions", func(r chi.Router) {
		r.Post("/flat", h.calculate(trailfee.StrategyFlat, false))
		r.Post("/flat/export", h.calculate(trailfee.StrategyFlat, true))
		r.Post("/per-isin", h.calculate(trailfee.StrategyPerISIN, false))
		r.Post("/per-isin/export", h.calculate(trailfee.StrategyPerISIN, true))
	})

	return r
}

type handler struct {
	core *trailfee.Core
	opts Options
}

func (h *handler) defaultBps() decimal.Decimal {
	if h.opts.DefaultBps == nil {
		return trailfee.DefaultFlatBps
	}
	return *h.opts.DefaultBps
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// setErrorMessage hands the message to the request logger, if present.
func setErrorMessage(w http.ResponseWriter, message string) {
	if lw, ok := w.(interface{ SetErrorMessage(string) }); ok {
		lw.SetErrorMessage(message)
	}
}

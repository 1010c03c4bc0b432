package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"trailfee/internal/api"
	"trailfee/internal/config"
	"trailfee/internal/logging"
	"trailfee/internal/spreadsheet"
	"trailfee/pkg/trailfee"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if err := applyFlags(cfg, flag.CommandLine, os.Args[1:]); err != nil {
		slog.Error("invalid flags", "err", err)
		os.Exit(2)
	}

	if cfg.LogDir == "" {
		if dir, err := config.DefaultLogDir(); err == nil {
			cfg.LogDir = dir
		}
	}
	logger, writer, err := logging.NewLogger(cfg.LogDir, slog.LevelInfo, cfg.LogRetentionDays)
	if err != nil {
		slog.Error("failed to initialize logger", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error("failed to close log writer", "err", err)
		}
	}()

	server := newServer(cfg, logger)

	logger.Info("server starting",
		"addr", server.Addr,
		"log_dir", cfg.LogDir,
		"max_upload_bytes", cfg.MaxUploadBytes,
		"default_bps", cfg.DefaultBps.String(),
	)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop

	logger.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}
}

// applyFlags lets command line flags override host, port and log dir.
func applyFlags(cfg *config.Config, fs *flag.FlagSet, args []string) error {
	fs.StringVar(&cfg.Host, "host", cfg.Host, "Host to bind the server to")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "Port to run the server on")
	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Directory for daily log files (default: per-user log dir)")
	return fs.Parse(args)
}

func newServer(cfg *config.Config, logger *slog.Logger) *http.Server {
	core := trailfee.New(trailfee.Options{
		Logger:   logger,
		Exporter: spreadsheet.NewExporter(),
	})
	handler := api.NewRouter(core, api.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		DefaultBps:     &cfg.DefaultBps,
		AllowedOrigins: cfg.CORSOrigins,
	})
	handler = middleware.Compress(5)(handler)

	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

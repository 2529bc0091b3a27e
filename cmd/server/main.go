package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tendant/portfolio-content/pkg/portfolio/api"
	"github.com/tendant/portfolio-content/pkg/portfolio/config"
)

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	cfg, err := config.Load(config.WithEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.ServerConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	rt, err := cfg.BuildService(ctx, logger, reg)
	if err != nil {
		return fmt.Errorf("failed to build service: %w", err)
	}
	defer rt.Close()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, rt, reg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Portfolio content server starting",
			"port", cfg.Port,
			"env", cfg.Environment,
			"database", cfg.DatabaseType,
			"storage", cfg.Storage.Type,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server exiting")
	return nil
}

// newRouter wires middleware, the API, asset streaming and metrics.
func newRouter(cfg *config.ServerConfig, rt *config.Runtime, reg *prometheus.Registry, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	httpLogger := httplog.NewLogger("portfolio-content", httplog.Options{
		JSON:     !cfg.IsDevelopment(),
		LogLevel: cfg.SlogLevel(),
		Concise:  true,
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(httpLogger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	handler := api.NewHandler(rt.Service, api.Config{
		PublicPathPrefix: cfg.PublicPathPrefix,
		MaxUploadBytes:   cfg.MaxUploadBytes,
		Logger:           logger,
	})
	handler.Mount(r)

	if cfg.EnableMetrics {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}

	return r
}

// newLogger uses tint in development and JSON everywhere else.
func newLogger(cfg *config.ServerConfig) *slog.Logger {
	if cfg.IsDevelopment() {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      cfg.SlogLevel(),
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

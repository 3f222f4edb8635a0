// Package server runs the hub API with graceful shutdown.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/api"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/app"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/config"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/observability"
)

// New wires the application and returns the HTTP server plus the app to close after it.
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*http.Server, *app.App, error) {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	router := api.NewRouter(logger, a.Service, api.Config{
		ServiceName:    cfg.Observability.ServiceName,
		RequestTimeout: cfg.Server.RequestTimeout,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		UploadsDir:     cfg.Uploads.Dir,
		MaxUploadBytes: cfg.Uploads.MaxBytes,
		Integrations:   a.Status,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return srv, a, nil
}

// Run serves until SIGINT, SIGTERM or ctx is done, then shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config, logger *observability.Logger) error {
	srv, a, err := New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to release resources")
		}
	}()

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("uploads", cfg.Uploads.Dir).
		Msg("Starting hub API")

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var runErr error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	case <-ctx.Done():
		logger.Info().Msg("Context cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
	return runErr
}

// Package main provides the hub API server entrypoint.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/config"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/observability"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/server"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	if err := server.Run(context.Background(), cfg, logger); err != nil {
		logger.Error().Err(err).Msg("Server exited")
		os.Exit(1)
	}
}

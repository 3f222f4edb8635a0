// Package api assembles the HTTP surface of the hub.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/api/handlers"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/api/middleware"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/observability"
)

// Service is everything the handlers call.
type Service interface {
	handlers.InvoiceService
	handlers.TranslationService
}

// Config holds router settings.
type Config struct {
	ServiceName    string
	RequestTimeout time.Duration
	AllowedOrigins []string
	UploadsDir     string
	MaxUploadBytes int64
	// Integrations is reported by /health.
	Integrations any
}

// NewRouter creates the API router with all routes configured.
func NewRouter(logger *observability.Logger, service Service, cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}

	spooler := handlers.NewSpooler(cfg.UploadsDir, cfg.MaxUploadBytes)
	healthHandler := handlers.NewHealthHandler(cfg.ServiceName, cfg.Integrations)
	invoiceHandler := handlers.NewInvoiceHandler(logger, service, spooler)
	translationHandler := handlers.NewTranslationHandler(logger, service, spooler)

	r.Get("/health", healthHandler.Health)

	r.Post("/uploadInvoice", invoiceHandler.Upload)
	r.Post("/confirmInvoice", invoiceHandler.Confirm)
	r.Route("/jobs/{jobId}", func(r chi.Router) {
		r.Get("/", invoiceHandler.Job)
		r.Get("/corrections", invoiceHandler.Corrections)
	})

	r.Post("/translateFile", translationHandler.Translate)

	return r
}

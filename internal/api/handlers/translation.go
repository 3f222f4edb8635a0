package handlers

import (
	"context"
	"mime"
	"net/http"
	"strconv"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/domain"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/observability"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/pipeline"
)

// TranslationService is the translation side of the pipeline.
type TranslationService interface {
	TranslateDocument(ctx context.Context, req pipeline.TranslateRequest) (*domain.Document, error)
}

// TranslationHandler handles document translation requests.
type TranslationHandler struct {
	logger  *observability.Logger
	service TranslationService
	spooler *Spooler
}

// NewTranslationHandler creates a new translation handler.
func NewTranslationHandler(logger *observability.Logger, service TranslationService, spooler *Spooler) *TranslationHandler {
	return &TranslationHandler{logger: logger, service: service, spooler: spooler}
}

// Translate handles POST /translateFile. Form fields: file, sourceLang,
// targetLang and outputFormat ("pdf" converts Office results).
func (h *TranslationHandler) Translate(w http.ResponseWriter, r *http.Request) {
	upload, fields, err := h.spooler.Receive(w, r)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}

	doc, err := h.service.TranslateDocument(r.Context(), pipeline.TranslateRequest{
		Upload:       upload,
		SourceLang:   fields["sourceLang"],
		TargetLang:   fields["targetLang"],
		OutputFormat: fields["outputFormat"],
	})
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	if doc.Kind != "json" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
	}
	if doc.Pages > 0 {
		w.Header().Set("X-Page-Count", strconv.Itoa(doc.Pages))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Data)
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/domain"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/observability"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/pipeline"
)

// maxConfirmBody bounds the JSON body of a confirmation.
const maxConfirmBody = 4 << 20

// InvoiceService is the extraction side of the pipeline.
type InvoiceService interface {
	ExtractInvoice(ctx context.Context, upload domain.Upload) (*domain.ExtractionResult, error)
	ConfirmInvoice(ctx context.Context, req pipeline.ConfirmRequest) (*pipeline.ConfirmResult, error)
	JobResult(ctx context.Context, jobID string) (*domain.ExtractionResult, error)
	Corrections(ctx context.Context, jobID string) ([]domain.CorrectionRecord, error)
}

// InvoiceHandler handles invoice extraction and correction requests.
type InvoiceHandler struct {
	logger  *observability.Logger
	service InvoiceService
	spooler *Spooler
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(logger *observability.Logger, service InvoiceService, spooler *Spooler) *InvoiceHandler {
	return &InvoiceHandler{logger: logger, service: service, spooler: spooler}
}

// Upload handles POST /uploadInvoice. The body is the extraction result as the
// service returned it; the job id travels in X-Job-Id.
func (h *InvoiceHandler) Upload(w http.ResponseWriter, r *http.Request) {
	upload, _, err := h.spooler.Receive(w, r)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}

	result, err := h.service.ExtractInvoice(r.Context(), upload)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}

	w.Header().Set("X-Job-Id", result.JobID)
	w.Header().Set("X-Job-Status", string(result.Status))
	writeRawJSON(w, http.StatusOK, result.Payload)
}

// Confirm handles POST /confirmInvoice.
func (h *InvoiceHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req pipeline.ConfirmRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxConfirmBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.service.ConfirmInvoice(r.Context(), req)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Job handles GET /jobs/{jobId}.
func (h *InvoiceHandler) Job(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.JobResult(r.Context(), chi.URLParam(r, "jobId"))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CorrectionHistoryDTO is the response of GET /jobs/{jobId}/corrections.
type CorrectionHistoryDTO struct {
	JobID   string                    `json:"jobId"`
	Records []domain.CorrectionRecord `json:"records"`
}

// Corrections handles GET /jobs/{jobId}/corrections.
func (h *InvoiceHandler) Corrections(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	records, err := h.service.Corrections(r.Context(), jobID)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	if records == nil {
		records = []domain.CorrectionRecord{}
	}
	writeJSON(w, http.StatusOK, CorrectionHistoryDTO{JobID: jobID, Records: records})
}

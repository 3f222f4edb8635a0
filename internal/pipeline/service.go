// Package pipeline composes the remote service clients into the hub's
// user-facing operations.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/auth"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/cache"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/conversion"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/corrections"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/domain"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/observability"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/sniff"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/translation"
)

// OutputPDF asks TranslateDocument to convert Office results to PDF.
const OutputPDF = "pdf"

// Extractor is the extraction service surface the pipeline needs.
type Extractor interface {
	Submit(ctx context.Context, token string, upload domain.Upload, opts domain.JobOptions) (string, error)
	GetJob(ctx context.Context, token, jobID string) (*domain.Job, error)
	WaitForJob(ctx context.Context, token, jobID string) (*domain.Job, error)
	UpdateExtraction(ctx context.Context, token, jobID string, extraction json.RawMessage) error
	Confirm(ctx context.Context, token, jobID string) error
}

// Translator translates one uploaded document.
type Translator interface {
	Translate(ctx context.Context, upload domain.Upload, opts translation.Options) ([]byte, error)
}

// Converter turns an Office document into PDF.
type Converter interface {
	Enabled() bool
	Convert(ctx context.Context, data []byte, fileName string) (*conversion.Result, error)
}

// Options are the per-deployment defaults.
type Options struct {
	ClientID     string
	DocumentType string
	SchemaName   string
	Translation  translation.Options
}

// Deps are the collaborators of a Service. Translator, Converter, Corrections
// and Results may be nil; the matching operations then degrade or fail with a
// configuration error.
type Deps struct {
	Tokens      auth.TokenSource
	Extractor   Extractor
	Translator  Translator
	Converter   Converter
	Corrections corrections.Store
	Results     *cache.JobResults
	Logger      *observability.Logger
}

// Service runs the extraction and translation pipelines.
type Service struct {
	tokens      auth.TokenSource
	extractor   Extractor
	translator  Translator
	converter   Converter
	corrections corrections.Store
	results     *cache.JobResults
	opts        Options
	now         func() time.Time
	logger      *observability.Logger
}

// NewService creates a Service.
func NewService(deps Deps, opts Options) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = observability.Nop()
	}
	return &Service{
		tokens:      deps.Tokens,
		extractor:   deps.Extractor,
		translator:  deps.Translator,
		converter:   deps.Converter,
		corrections: deps.Corrections,
		results:     deps.Results,
		opts:        opts,
		now:         time.Now,
		logger:      logger.WithOperation("pipeline"),
	}
}

// ExtractInvoice submits the upload as an extraction job and waits for it.
// The upload file is removed whatever the outcome.
func (s *Service) ExtractInvoice(ctx context.Context, upload domain.Upload) (*domain.ExtractionResult, error) {
	defer removeUpload(s.logger, upload)

	if upload.Path == "" {
		return nil, domain.ErrMissingFile
	}

	logger := s.logger.WithContext(ctx)
	start := s.now()

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	opts := domain.JobOptions{
		ClientID:     s.opts.ClientID,
		DocumentType: s.opts.DocumentType,
		SchemaName:   s.opts.SchemaName,
		ReceivedDate: s.now().Format("2006-01-02"),
	}
	jobID, err := s.extractor.Submit(ctx, token, upload, opts)
	if err != nil {
		return nil, err
	}

	job, err := s.extractor.WaitForJob(ctx, token, jobID)
	if err != nil {
		return nil, jobError(jobID, job, err)
	}

	result := &domain.ExtractionResult{JobID: jobID, Status: job.Status, Payload: job.Result()}
	if err := s.results.Put(ctx, result); err != nil {
		logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to cache job result")
	}

	logger.Info().
		Str("job_id", jobID).
		Str("file", upload.FileName).
		Dur("took", s.now().Sub(start)).
		Msg("Invoice extracted")
	return result, nil
}

// ConfirmRequest carries the user's corrections for a job.
type ConfirmRequest struct {
	JobID      string          `json:"jobId"`
	Extraction json.RawMessage `json:"extraction,omitempty"`
	// Confirm defaults to true when omitted.
	Confirm *bool `json:"confirm,omitempty"`
}

// ConfirmResult is what ConfirmInvoice reports back.
type ConfirmResult struct {
	JobID     string                   `json:"jobId"`
	Status    string                   `json:"status"`
	Confirmed bool                     `json:"confirmed"`
	Record    *domain.CorrectionRecord `json:"record,omitempty"`
}

// ConfirmInvoice pushes corrected fields, confirms the job and records the change locally.
func (s *Service) ConfirmInvoice(ctx context.Context, req ConfirmRequest) (*ConfirmResult, error) {
	if strings.TrimSpace(req.JobID) == "" {
		return nil, domain.ValidationError("jobId is required", nil)
	}
	hasFields := len(req.Extraction) > 0 && string(req.Extraction) != "null"
	if hasFields && !json.Valid(req.Extraction) {
		return nil, domain.ValidationError("extraction must be valid JSON", nil)
	}
	confirm := req.Confirm == nil || *req.Confirm
	if !hasFields && !confirm {
		return nil, domain.ValidationError("nothing to do: no extraction and confirm is false", nil)
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	status := "UPDATED"
	if hasFields {
		if err := s.extractor.UpdateExtraction(ctx, token, req.JobID, req.Extraction); err != nil {
			return nil, err
		}
	}
	if confirm {
		if err := s.extractor.Confirm(ctx, token, req.JobID); err != nil {
			return nil, err
		}
		status = "CONFIRMED"
	}

	// The remote copy changed; the next read goes upstream.
	if err := s.results.Forget(ctx, req.JobID); err != nil {
		s.logger.Warn().Err(err).Str("job_id", req.JobID).Msg("Failed to drop cached job result")
	}

	out := &ConfirmResult{JobID: req.JobID, Status: status, Confirmed: confirm}
	if s.corrections != nil {
		var fields json.RawMessage
		if hasFields {
			fields = req.Extraction
		}
		record, err := s.corrections.Append(ctx, req.JobID, fields, confirm)
		if err != nil {
			// Upstream already accepted the change, so the local history is best effort.
			s.logger.WithContext(ctx).Error().Err(err).Str("job_id", req.JobID).Msg("Failed to record correction")
		} else {
			out.Record = record
		}
	}

	s.logger.WithContext(ctx).Info().
		Str("job_id", req.JobID).
		Str("status", status).
		Bool("fields", hasFields).
		Msg("Invoice corrections applied")
	return out, nil
}

// Corrections returns the local correction history of a job.
func (s *Service) Corrections(ctx context.Context, jobID string) ([]domain.CorrectionRecord, error) {
	if s.corrections == nil {
		return nil, nil
	}
	return s.corrections.History(ctx, jobID)
}

// JobResult answers from the cache, falling back to the extraction service.
func (s *Service) JobResult(ctx context.Context, jobID string) (*domain.ExtractionResult, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, domain.ValidationError("job id is required", nil)
	}

	cached, err := s.results.Get(ctx, jobID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Job result cache read failed")
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	job, err := s.extractor.GetJob(ctx, token, jobID)
	if err != nil {
		return nil, err
	}

	result := &domain.ExtractionResult{JobID: jobID, Status: job.Status, Payload: job.Result()}
	if job.Status == domain.JobStatusDone {
		if err := s.results.Put(ctx, result); err != nil {
			s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to cache job result")
		}
	}
	return result, nil
}

// TranslateRequest is one translation call.
type TranslateRequest struct {
	Upload       domain.Upload
	SourceLang   string
	TargetLang   string
	OutputFormat string
}

// TranslateDocument translates the upload and, when PDF output is requested and
// the service answered with an Office document, converts it. The upload file is
// removed whatever the outcome.
func (s *Service) TranslateDocument(ctx context.Context, req TranslateRequest) (*domain.Document, error) {
	defer removeUpload(s.logger, req.Upload)

	if req.Upload.Path == "" {
		return nil, domain.ErrMissingFile
	}
	if s.translator == nil {
		return nil, domain.ConfigError("translation service not configured", domain.ErrMissingCredentials)
	}

	logger := s.logger.WithContext(ctx)

	opts := s.opts.Translation
	if req.SourceLang != "" {
		opts.SourceLang = req.SourceLang
	}
	if req.TargetLang != "" {
		opts.TargetLang = req.TargetLang
	}

	data, err := s.translator.Translate(ctx, req.Upload, opts)
	if err != nil {
		var payload *domain.PayloadError
		if errors.As(err, &payload) {
			// Relayed to the caller as it came.
			logger.Warn().Str("file", req.Upload.FileName).Msg("Unexpected translation payload, relaying raw JSON")
			return &domain.Document{
				Data:        payload.Raw,
				FileName:    baseName(req.Upload.FileName) + ".json",
				ContentType: "application/json",
				Kind:        "json",
			}, nil
		}
		return nil, err
	}

	kind := sniff.Detect(data)
	doc := &domain.Document{
		Data:        data,
		FileName:    baseName(req.Upload.FileName) + kind.Extension(),
		ContentType: kind.ContentType(),
		Kind:        string(kind),
	}

	if strings.EqualFold(req.OutputFormat, OutputPDF) && kind == sniff.KindOffice {
		if s.converter == nil || !s.converter.Enabled() {
			return nil, domain.ConfigError("pdf output requested but conversion is not configured", domain.ErrMissingCredentials)
		}
		converted, err := s.converter.Convert(ctx, data, doc.FileName)
		if err != nil {
			return nil, err
		}
		doc.Data = converted.Data
		doc.Pages = converted.Pages
		doc.Kind = string(sniff.KindPDF)
		doc.ContentType = sniff.KindPDF.ContentType()
		doc.FileName = baseName(req.Upload.FileName) + sniff.KindPDF.Extension()
	}

	logger.Info().
		Str("file", req.Upload.FileName).
		Str("source", opts.SourceLang).
		Str("target", opts.TargetLang).
		Str("kind", doc.Kind).
		Int("bytes", len(doc.Data)).
		Msg("Document translated")
	return doc, nil
}

// jobError attaches the last job body to polling failures so it reaches the caller.
func jobError(jobID string, job *domain.Job, err error) error {
	if job != nil && len(job.Raw) > 0 && errors.Is(err, domain.ErrJobFailed) {
		return fmt.Errorf("%w: %w", err, &domain.PayloadError{Service: "extraction", Raw: job.Raw})
	}
	if errors.Is(err, domain.ErrJobTimeout) {
		return domain.TimeoutError(fmt.Sprintf("extraction job %s did not finish", jobID), err)
	}
	return err
}

func removeUpload(logger *observability.Logger, upload domain.Upload) {
	if upload.Path == "" {
		return
	}
	if err := os.Remove(upload.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Err(err).Str("path", upload.Path).Msg("Failed to remove upload")
	}
}

func baseName(fileName string) string {
	name := filepath.Base(fileName)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "document"
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

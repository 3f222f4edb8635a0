// Package extraction talks to the remote document extraction service.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/domain"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/httpclient"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/jobs"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/observability"
)

const jobsPath = "/document/jobs"

// Client submits documents as asynchronous jobs and reads them back.
// Every method takes the bearer token acquired for the current request.
type Client struct {
	baseURL string
	http    *httpclient.Client
	poller  *jobs.Poller
	logger  *observability.Logger
}

// NewClient creates an extraction client for baseURL.
func NewClient(baseURL string, http *httpclient.Client, poller *jobs.Poller, logger *observability.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    http,
		poller:  poller,
		logger:  logger.WithService("extraction"),
	}
}

// NewJobOptions builds the options part with today's date as received date.
func NewJobOptions(clientID, documentType, schemaName string, now time.Time) domain.JobOptions {
	return domain.JobOptions{
		ClientID:     clientID,
		DocumentType: documentType,
		SchemaName:   schemaName,
		ReceivedDate: now.Format("2006-01-02"),
	}
}

type submitResponse struct {
	ID     string           `json:"id"`
	Status domain.JobStatus `json:"status"`
}

// Submit uploads the file with its options and returns the new job id.
func (c *Client) Submit(ctx context.Context, token string, upload domain.Upload, opts domain.JobOptions) (string, error) {
	optionsJSON, err := json.Marshal(opts)
	if err != nil {
		return "", domain.ValidationError("encode job options", err)
	}

	body, contentType, err := httpclient.MultipartBody(
		map[string]string{"options": string(optionsJSON)},
		httpclient.FilePart{
			Field:       "file",
			FileName:    upload.FileName,
			ContentType: upload.ContentType,
			Path:        upload.Path,
		},
	)
	if err != nil {
		return "", domain.IOError("build job upload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+jobsPath, body)
	if err != nil {
		return "", domain.UpstreamError("build submit request", err)
	}
	req.Header.Set("Content-Type", contentType)
	httpclient.Bearer(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", domain.UpstreamError("submit extraction job", err)
	}

	var out submitResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil || out.ID == "" {
		return "", domain.UpstreamError("submit extraction job", &domain.PayloadError{Service: "extraction", Raw: resp.Body})
	}

	c.logger.Info().Str("job_id", out.ID).Str("file", upload.FileName).Str("status", string(out.Status)).Msg("Extraction job submitted")
	return out.ID, nil
}

// GetJob reads the current state of a job.
func (c *Client) GetJob(ctx context.Context, token, jobID string) (*domain.Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jobURL(jobID), nil)
	if err != nil {
		return nil, domain.UpstreamError("build job request", err)
	}
	httpclient.Bearer(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	var job domain.Job
	if err := json.Unmarshal(resp.Body, &job); err != nil {
		return nil, &domain.PayloadError{Service: "extraction", Raw: resp.Body}
	}
	job.Raw = resp.Body
	if job.ID == "" {
		job.ID = jobID
	}
	return &job, nil
}

// WaitForJob polls the job until it is DONE or FAILED or the attempts run out.
func (c *Client) WaitForJob(ctx context.Context, token, jobID string) (*domain.Job, error) {
	return c.poller.Poll(ctx, jobID, func(ctx context.Context) (*domain.Job, error) {
		return c.GetJob(ctx, token, jobID)
	})
}

// UpdateExtraction replaces the extracted fields of a job with corrected values.
func (c *Client) UpdateExtraction(ctx context.Context, token, jobID string, extraction json.RawMessage) error {
	payload, err := json.Marshal(map[string]json.RawMessage{"extraction": extraction})
	if err != nil {
		return domain.ValidationError("encode corrected extraction", err)
	}
	return c.post(ctx, token, c.jobURL(jobID), payload, "update extraction")
}

// Confirm marks the job's extraction as confirmed.
func (c *Client) Confirm(ctx context.Context, token, jobID string) error {
	return c.post(ctx, token, c.jobURL(jobID)+"/confirm", nil, "confirm job")
}

func (c *Client) post(ctx context.Context, token, target string, payload []byte, what string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return domain.UpstreamError("build "+what+" request", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	httpclient.Bearer(req, token)

	if _, err := c.http.Do(req); err != nil {
		return domain.UpstreamError(what, err)
	}
	c.logger.Info().Str("url", target).Msg(what + " accepted")
	return nil
}

func (c *Client) jobURL(jobID string) string {
	return fmt.Sprintf("%s%s/%s", c.baseURL, jobsPath, url.PathEscape(jobID))
}

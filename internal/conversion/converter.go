// Package conversion turns Office documents into PDF through an external REST
// conversion API (auth, start, upload, process, download).
package conversion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/domain"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/httpclient"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/observability"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/sniff"
)

const defaultTool = "officepdf"

// Step names the stage of the choreography an error came from.
type Step string

const (
	StepAuth     Step = "auth"
	StepStart    Step = "start"
	StepUpload   Step = "upload"
	StepProcess  Step = "process"
	StepDownload Step = "download"
	StepValidate Step = "validate"
)

// Result is a converted document.
type Result struct {
	Data  []byte
	Pages int
}

// Converter runs the five-step conversion choreography.
type Converter struct {
	baseURL   string
	publicKey string
	tool      string
	http      *httpclient.Client
	pdfConfig *model.Configuration
	logger    *observability.Logger
}

// NewConverter creates a converter against baseURL authenticated with publicKey.
func NewConverter(baseURL, publicKey, tool string, http *httpclient.Client, logger *observability.Logger) *Converter {
	if tool == "" {
		tool = defaultTool
	}
	return &Converter{
		baseURL:   strings.TrimRight(baseURL, "/"),
		publicKey: publicKey,
		tool:      tool,
		http:      http,
		pdfConfig: model.NewDefaultConfiguration(),
		logger:    logger.WithService("conversion"),
	}
}

// Enabled reports whether a public key is configured.
func (c *Converter) Enabled() bool {
	return c.publicKey != ""
}

type task struct {
	token  string
	server string
	id     string
}

// Convert uploads data and returns the converted, validated PDF.
func (c *Converter) Convert(ctx context.Context, data []byte, fileName string) (*Result, error) {
	if !c.Enabled() {
		return nil, domain.ConfigError("conversion public key not configured", domain.ErrMissingCredentials)
	}
	start := time.Now()

	token, err := c.authenticate(ctx)
	if err != nil {
		return nil, stepError(StepAuth, err)
	}

	t, err := c.start(ctx, token)
	if err != nil {
		return nil, stepError(StepStart, err)
	}

	serverFile, err := c.upload(ctx, t, data, fileName)
	if err != nil {
		return nil, stepError(StepUpload, err)
	}

	if err := c.process(ctx, t, serverFile, fileName); err != nil {
		return nil, stepError(StepProcess, err)
	}

	pdf, err := c.download(ctx, t)
	if err != nil {
		return nil, stepError(StepDownload, err)
	}

	pages, err := c.validate(pdf)
	if err != nil {
		return nil, stepError(StepValidate, err)
	}

	c.logger.Info().
		Str("task", t.id).
		Int("pages", pages).
		Int("bytes", len(pdf)).
		Dur("took", time.Since(start)).
		Msg("Document converted to PDF")

	return &Result{Data: pdf, Pages: pages}, nil
}

func (c *Converter) authenticate(ctx context.Context) (string, error) {
	payload, _ := json.Marshal(map[string]string{"public_key": c.publicKey})
	var out struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/v1/auth", "", payload, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", domain.ErrUnexpectedPayload
	}
	return out.Token, nil
}

func (c *Converter) start(ctx context.Context, token string) (*task, error) {
	resp, err := c.http.DoWithRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/start/"+url.PathEscape(c.tool), nil)
		if err != nil {
			return nil, err
		}
		httpclient.Bearer(req, token)
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Server string `json:"server"`
		Task   string `json:"task"`
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil || out.Server == "" || out.Task == "" {
		return nil, &domain.PayloadError{Service: "conversion", Raw: resp.Body}
	}
	return &task{token: token, server: c.serverURL(out.Server), id: out.Task}, nil
}

func (c *Converter) upload(ctx context.Context, t *task, data []byte, fileName string) (string, error) {
	body, contentType, err := httpclient.MultipartBody(
		map[string]string{"task": t.id},
		httpclient.FilePart{Field: "file", FileName: fileName, Data: data},
	)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.server+"/v1/upload", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	httpclient.Bearer(req, t.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}

	var out struct {
		ServerFilename string `json:"server_filename"`
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil || out.ServerFilename == "" {
		return "", &domain.PayloadError{Service: "conversion", Raw: resp.Body}
	}
	return out.ServerFilename, nil
}

type processFile struct {
	ServerFilename string `json:"server_filename"`
	Filename       string `json:"filename"`
}

type processRequest struct {
	Task  string        `json:"task"`
	Tool  string        `json:"tool"`
	Files []processFile `json:"files"`
}

func (c *Converter) process(ctx context.Context, t *task, serverFile, fileName string) error {
	payload, err := json.Marshal(processRequest{
		Task:  t.id,
		Tool:  c.tool,
		Files: []processFile{{ServerFilename: serverFile, Filename: fileName}},
	})
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPost, t.server+"/v1/process", t.token, payload, nil)
}

func (c *Converter) download(ctx context.Context, t *task) ([]byte, error) {
	resp, err := c.http.DoWithRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.server+"/v1/download/"+url.PathEscape(t.id), nil)
		if err != nil {
			return nil, err
		}
		httpclient.Bearer(req, t.token)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// validate checks the signature and structure of the downloaded PDF and counts its pages.
func (c *Converter) validate(data []byte) (int, error) {
	if kind := sniff.Detect(data); kind != sniff.KindPDF {
		return 0, fmt.Errorf("downloaded file is %s, not pdf", kind)
	}
	pages, err := api.PageCount(bytes.NewReader(data), c.pdfConfig)
	if err != nil {
		return 0, fmt.Errorf("invalid PDF: %w", err)
	}
	return pages, nil
}

func (c *Converter) doJSON(ctx context.Context, method, target, token string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		httpclient.Bearer(req, token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &domain.PayloadError{Service: "conversion", Raw: resp.Body}
	}
	return nil
}

// serverURL adds the base URL scheme to a bare host returned by the start step.
func (c *Converter) serverURL(server string) string {
	if strings.Contains(server, "://") {
		return strings.TrimRight(server, "/")
	}
	scheme := "https"
	if u, err := url.Parse(c.baseURL); err == nil && u.Scheme != "" {
		scheme = u.Scheme
	}
	return scheme + "://" + strings.TrimRight(server, "/")
}

func stepError(step Step, err error) error {
	return domain.ConversionError(fmt.Sprintf("%s step failed", step), err)
}

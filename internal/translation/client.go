// Package translation submits documents to the remote document translation service.
package translation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/auth"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/domain"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/httpclient"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/observability"
)

// apiKeyHeader is the header the sandbox gateway expects.
const apiKeyHeader = "APIKey"

// Options are the per-call translation parameters.
type Options struct {
	SourceLang string
	TargetLang string
	StrictMode bool
	Model      string
}

// Client calls the translation endpoint either with an OAuth2 bearer token or
// with a sandbox API key.
type Client struct {
	endpoint string
	tokens   auth.TokenSource
	apiKey   string
	http     *httpclient.Client
	logger   *observability.Logger
}

// NewOAuthClient authenticates every call with a token from tokens.
func NewOAuthClient(endpoint string, tokens auth.TokenSource, http *httpclient.Client, logger *observability.Logger) *Client {
	return &Client{endpoint: endpoint, tokens: tokens, http: http, logger: logger.WithService("translation")}
}

// NewSandboxClient authenticates with a fixed API key header.
func NewSandboxClient(endpoint, apiKey string, http *httpclient.Client, logger *observability.Logger) *Client {
	return &Client{endpoint: endpoint, apiKey: apiKey, http: http, logger: logger.WithService("translation")}
}

// envelope is the JSON shape carrying a base64 encoded document.
type envelope struct {
	Data     *string `json:"data"`
	Encoding string  `json:"encoding"`
}

// Translate uploads the file and returns the translated document bytes.
// A base64 JSON envelope is decoded; a binary body is returned as is; any other
// JSON answer is returned as a *domain.PayloadError holding the raw body.
func (c *Client) Translate(ctx context.Context, upload domain.Upload, opts Options) ([]byte, error) {
	body, contentType, err := httpclient.MultipartBody(nil, httpclient.FilePart{
		Field:       "file",
		FileName:    upload.FileName,
		ContentType: upload.ContentType,
		Path:        upload.Path,
	})
	if err != nil {
		return nil, domain.IOError("build translation upload", err)
	}

	target, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, domain.ConfigError("translation endpoint", err)
	}
	q := target.Query()
	q.Set("sourceLanguage", opts.SourceLang)
	q.Set("targetLanguage", opts.TargetLang)
	q.Set("strictMode", strconv.FormatBool(opts.StrictMode))
	if opts.Model != "" {
		q.Set("model", opts.Model)
	}
	target.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), body)
	if err != nil {
		return nil, domain.UpstreamError("build translation request", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json, application/octet-stream")

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		httpclient.Bearer(req, token)
	} else {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	c.logger.Info().
		Str("file", upload.FileName).
		Str("source", opts.SourceLang).
		Str("target", opts.TargetLang).
		Msg("Translating document")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.UpstreamError("translate document", err)
	}

	return decode(resp.Body)
}

func decode(body []byte) ([]byte, error) {
	if !json.Valid(body) {
		return body, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Data != nil && *env.Data != "" && env.Encoding == "base64" {
		data, err := decodeBase64(*env.Data)
		if err != nil {
			return nil, domain.UpstreamError("decode translated document", err)
		}
		return data, nil
	}

	return nil, &domain.PayloadError{Service: "translation", Raw: body}
}

// decodeBase64 accepts padded and unpadded standard base64.
func decodeBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); rawErr == nil {
		return raw, nil
	}
	return nil, err
}

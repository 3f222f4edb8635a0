// Package httpclient is the outbound HTTP layer shared by the remote service clients.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/domain"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/observability"
)

const (
	defaultTimeout = 45 * time.Second
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 10 * time.Second
)

// Config holds outbound HTTP settings.
type Config struct {
	Timeout time.Duration
	// MaxRetries is the number of extra attempts DoWithRetry makes. Zero disables retries.
	MaxRetries int
	// InitialBackoff overrides the first retry delay. Tests shrink it.
	InitialBackoff time.Duration
}

// Client executes requests against one remote service and turns non-2xx
// answers into domain.RemoteError values.
type Client struct {
	service    string
	httpClient *http.Client
	maxRetries int
	initial    time.Duration
	logger     *observability.Logger
}

// Response is a fully read upstream answer.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// New creates a client for the named service.
func New(service string, httpClient *http.Client, cfg Config, logger *observability.Logger) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxRetries := max(cfg.MaxRetries, 0)
	initial := cfg.InitialBackoff
	if initial <= 0 {
		initial = initialBackoff
	}
	return &Client{
		service:    service,
		httpClient: httpClient,
		maxRetries: maxRetries,
		initial:    initial,
		logger:     logger.WithService(service),
	}
}

// HTTP exposes the underlying client, e.g. for the OAuth2 token exchange.
func (c *Client) HTTP() *http.Client {
	return c.httpClient
}

// Do sends req once and reads the whole body.
func (c *Client) Do(req *http.Request) (*Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", req.Method).Str("url", req.URL.Redacted()).Msg("Request failed")
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", c.service, err)
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.Redacted()).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("Request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.RemoteError{Service: c.service, StatusCode: resp.StatusCode, Body: body}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// DoWithRetry sends requests built by newReq, retrying transport errors and
// retryable status codes with exponential backoff. Only use it for idempotent calls.
func (c *Client) DoWithRetry(ctx context.Context, newReq func(ctx context.Context) (*http.Request, error)) (*Response, error) {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.initial
	expBackoff.MaxInterval = maxBackoff

	attempt := 0
	operation := func() (*Response, error) {
		attempt++
		req, err := newReq(ctx)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		resp, err := c.Do(req)
		if err == nil {
			return resp, nil
		}
		if remote, ok := err.(*domain.RemoteError); ok && !ShouldRetry(remote.StatusCode) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(uint(c.maxRetries+1)), // #nosec G115 -- includes the initial attempt
		backoff.WithNotify(func(err error, d time.Duration) {
			c.logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", d).Msg("Retrying request")
		}),
	)
}

// ShouldRetry reports whether a status code is worth another attempt.
func ShouldRetry(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// Bearer sets the Authorization header.
func Bearer(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
}

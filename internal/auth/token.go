// Package auth acquires bearer tokens through the OAuth2 client-credentials grant.
package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/credentials"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/domain"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/observability"
)

// TokenSource hands out a bearer token for one request lifecycle.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenAcquirer exchanges client credentials for a bearer token. Every call is a
// fresh exchange; nothing is cached between calls.
type TokenAcquirer struct {
	service    string
	cfg        clientcredentials.Config
	httpClient *http.Client
	logger     *observability.Logger
}

// NewTokenAcquirer creates an acquirer for one service binding.
func NewTokenAcquirer(service string, creds credentials.ServiceCredentials, httpClient *http.Client, logger *observability.Logger) *TokenAcquirer {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TokenAcquirer{
		service: service,
		cfg: clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     creds.TokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		httpClient: httpClient,
		logger:     logger.WithService(service),
	}
}

// Token performs one client-credentials exchange.
func (a *TokenAcquirer) Token(ctx context.Context) (string, error) {
	start := time.Now()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)

	tok, err := a.cfg.Token(ctx)
	if err != nil {
		var retrieve *oauth2.RetrieveError
		if errors.As(err, &retrieve) && retrieve.Response != nil {
			err = &domain.RemoteError{
				Service:    a.service + " token endpoint",
				StatusCode: retrieve.Response.StatusCode,
				Body:       retrieve.Body,
			}
		}
		a.logger.Warn().Err(err).Dur("took", time.Since(start)).Msg("Token exchange failed")
		return "", domain.AuthError("acquire "+a.service+" token", err)
	}

	a.logger.Debug().Dur("took", time.Since(start)).Msg("Token acquired")
	return tok.AccessToken, nil
}

// StaticToken returns a fixed token. Used for API-key style services and tests.
type StaticToken string

// Token returns the fixed value.
func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

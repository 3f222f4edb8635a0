package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error types for domain-specific errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeUpstream   ErrorType = "upstream"
	ErrorTypeConversion ErrorType = "conversion"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeIO         ErrorType = "io"
)

var (
	ErrMissingFile        = errors.New("missing file")
	ErrMissingCredentials = errors.New("missing service credentials")
	ErrJobFailed          = errors.New("extraction job failed")
	ErrJobTimeout         = errors.New("extraction job did not finish in time")
	ErrUnexpectedPayload  = errors.New("unexpected response payload")
)

// DomainError represents a domain-specific error with context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

func ConfigError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

func AuthError(message string, err error) *DomainError {
	return NewError(ErrorTypeAuth, message, err)
}

func UpstreamError(message string, err error) *DomainError {
	return NewError(ErrorTypeUpstream, message, err)
}

func ConversionError(message string, err error) *DomainError {
	return NewError(ErrorTypeConversion, message, err)
}

func TimeoutError(message string, err error) *DomainError {
	return NewError(ErrorTypeTimeout, message, err)
}

func IOError(message string, err error) *DomainError {
	return NewError(ErrorTypeIO, message, err)
}

// RemoteError is a non-2xx answer from one of the remote services, body kept verbatim.
type RemoteError struct {
	Service    string
	StatusCode int
	Body       []byte
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Detail())
}

// Detail renders the upstream body: compact JSON when it parses, trimmed text otherwise.
func (e *RemoteError) Detail() string {
	if len(e.Body) == 0 {
		return http.StatusText(e.StatusCode)
	}
	var buf bytes.Buffer
	if json.Valid(e.Body) && json.Compact(&buf, e.Body) == nil {
		return buf.String()
	}
	return strings.TrimSpace(string(e.Body))
}

// ErrorDetail returns the most specific caller-facing message for err.
func ErrorDetail(err error) string {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Detail()
	}
	var payload *PayloadError
	if errors.As(err, &payload) {
		return string(payload.Raw)
	}
	return err.Error()
}

// PayloadError carries a well-formed but unexpected response so it can be relayed as is.
type PayloadError struct {
	Service string
	Raw     []byte
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, ErrUnexpectedPayload)
}

func (e *PayloadError) Unwrap() error {
	return ErrUnexpectedPayload
}

// HTTPStatus maps an error to the status code the relay answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrMissingFile):
		return http.StatusBadRequest
	case errors.Is(err, ErrJobTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrJobFailed), errors.Is(err, ErrUnexpectedPayload):
		return http.StatusBadGateway
	}

	var de *DomainError
	if errors.As(err, &de) {
		switch de.Type {
		case ErrorTypeValidation:
			return http.StatusBadRequest
		case ErrorTypeTimeout:
			return http.StatusGatewayTimeout
		case ErrorTypeAuth, ErrorTypeUpstream, ErrorTypeConversion:
			return http.StatusBadGateway
		}
	}

	var remote *RemoteError
	if errors.As(err, &remote) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

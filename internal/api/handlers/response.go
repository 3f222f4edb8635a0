// Package handlers provides the HTTP handlers of the hub API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/domain"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/observability"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeRawJSON sends an upstream JSON document unchanged.
func writeRawJSON(w http.ResponseWriter, status int, raw []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(raw)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" && detail != message {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}

// fail maps err onto the error envelope and logs it.
func fail(w http.ResponseWriter, r *http.Request, logger *observability.Logger, err error) {
	status := domain.HTTPStatus(err)
	message := errorMessage(err, status)
	detail := domain.ErrorDetail(err)

	evt := logger.WithContext(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		evt = logger.WithContext(r.Context()).Error()
	}
	evt.Err(err).Int("status", status).Str("path", r.URL.Path).Msg(message)

	writeError(w, status, message, detail)
}

func errorMessage(err error, status int) string {
	switch {
	case errors.Is(err, domain.ErrMissingFile):
		return "missing file"
	case errors.Is(err, domain.ErrJobFailed):
		return "extraction job failed"
	case errors.Is(err, domain.ErrJobTimeout):
		return "extraction job timed out"
	}
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	var remote *domain.RemoteError
	if errors.As(err, &remote) {
		return remote.Service + " request failed"
	}
	return http.StatusText(status)
}

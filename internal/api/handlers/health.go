package handlers

import (
	"net/http"
)

// HealthHandler reports liveness and which integrations are configured.
type HealthHandler struct {
	service      string
	integrations any
}

// NewHealthHandler creates a health handler. integrations is rendered as is.
func NewHealthHandler(service string, integrations any) *HealthHandler {
	return &HealthHandler{service: service, integrations: integrations}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"service":      h.service,
		"integrations": h.integrations,
	})
}

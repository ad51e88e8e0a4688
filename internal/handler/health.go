package handler

import (
	"net/http"

	"github.com/seazone-ai/sia/internal/llm"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	gateway *llm.Gateway
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(gateway *llm.Gateway) *HealthHandler {
	return &HealthHandler{gateway: gateway}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready. The service can take traffic as soon as at
// least one model provider is configured; NATS is optional and never
// gates readiness.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.gateway == nil || !h.gateway.HasProvider() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "no model provider configured",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

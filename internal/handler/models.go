package handler

import (
	"net/http"

	"github.com/seazone-ai/sia/internal/llm"
)

// ModelsHandler serves the model catalog.
type ModelsHandler struct{}

// NewModelsHandler creates a new models handler.
func NewModelsHandler() *ModelsHandler {
	return &ModelsHandler{}
}

type modelEntry struct {
	llm.ModelInfo
	Pricing *llm.Pricing `json:"pricing,omitempty"`
	Default bool         `json:"default,omitempty"`
}

// List handles GET /api/v1/models
func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	entries := make([]modelEntry, 0, len(llm.AvailableModels))
	for _, info := range llm.AvailableModels {
		entry := modelEntry{
			ModelInfo: info,
			Default:   info.ID == llm.DefaultModel,
		}
		if pricing, ok := llm.PricingFor(info.ID); ok {
			entry.Pricing = &pricing
		}
		entries = append(entries, entry)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"models": entries,
	})
}

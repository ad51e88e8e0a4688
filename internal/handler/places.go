package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seazone-ai/sia/internal/places"
)

// PlacesHandler proxies address autocomplete and place details.
type PlacesHandler struct {
	client *places.Client
}

// NewPlacesHandler creates a new places handler. client may be nil when
// the Places API key is not configured.
func NewPlacesHandler(client *places.Client) *PlacesHandler {
	return &PlacesHandler{client: client}
}

// Suggest handles GET /api/v1/places/suggest?query=
func (h *PlacesHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		writeError(w, http.StatusServiceUnavailable, "places search not configured")
		return
	}
	suggestions := h.client.Suggest(r.Context(), r.URL.Query().Get("query"))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
	})
}

// Details handles GET /api/v1/places/{placeID}
func (h *PlacesHandler) Details(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		writeError(w, http.StatusServiceUnavailable, "places search not configured")
		return
	}
	placeID := chi.URLParam(r, "placeID")
	if placeID == "" {
		writeError(w, http.StatusBadRequest, "placeID is required")
		return
	}

	details, err := h.client.Details(r.Context(), placeID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to fetch place details")
		return
	}
	writeJSON(w, http.StatusOK, details)
}

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seazone-ai/sia/internal/middleware"
	"github.com/seazone-ai/sia/internal/model"
	"github.com/seazone-ai/sia/internal/service"
	"github.com/seazone-ai/sia/internal/session"
	"github.com/seazone-ai/sia/pkg/logger"
)

// SessionHandler handles session lifecycle endpoints.
type SessionHandler struct {
	sessions *session.Manager
	turns    *service.TurnService
	logger   *logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessions *session.Manager, turns *service.TurnService, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		turns:    turns,
		logger:   log,
	}
}

// Create handles POST /api/v1/sessions. The body may carry a partial
// settings override; an empty body uses the defaults.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var override *model.Settings
	if r.ContentLength > 0 {
		override = &model.Settings{}
		if err := json.NewDecoder(r.Body).Decode(override); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	sess := h.sessions.Create(override)
	writeJSON(w, http.StatusCreated, sess.View())
}

// Get handles GET /api/v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.resolve(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

// UpdateSettings handles PUT /api/v1/sessions/{id}. The body is the
// full settings bundle; partial updates go through Create defaults.
func (h *SessionHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.resolve(w, r)
	if !ok {
		return
	}

	var settings model.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if settings.Model == "" {
		writeError(w, http.StatusBadRequest, "model is required")
		return
	}

	if err := sess.UpdateSettings(settings); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

// Delete handles DELETE /api/v1/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateSessionID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.sessions.Delete(id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reset handles POST /api/v1/sessions/{id}/reset
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if err := h.turns.Reset(sess.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

// resolve validates the path id and loads the session.
func (h *SessionHandler) resolve(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateSessionID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	sess, err := h.sessions.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return sess, true
}

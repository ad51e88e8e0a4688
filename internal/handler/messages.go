package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/seazone-ai/sia/internal/middleware"
	"github.com/seazone-ai/sia/internal/model"
	"github.com/seazone-ai/sia/internal/service"
	"github.com/seazone-ai/sia/internal/session"
	"github.com/seazone-ai/sia/pkg/logger"
	"github.com/seazone-ai/sia/pkg/metrics"
)

// MessageHandler handles message edit and delete endpoints.
type MessageHandler struct {
	sessions *session.Manager
	turns    *service.TurnService
	logger   *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(sessions *session.Manager, turns *service.TurnService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		sessions: sessions,
		turns:    turns,
		logger:   log,
	}
}

// Edit handles PUT /api/v1/sessions/{id}/messages/{messageID}
// Editing a user message replays the conversation from that point and
// streams the regenerated turn as SSE. Editing an assistant message is
// a plain replacement and answers with the updated session as JSON.
func (h *MessageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	sessionID, messageID, ok := h.ids(w, r)
	if !ok {
		return
	}

	var req model.EditMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageContent(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, canStream := w.(http.Flusher)
	started := false
	sink := func(ev model.StreamEvent) error {
		if !started {
			started = true
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.Header().Set("X-Accel-Buffering", "no")
			metrics.IncrementSSEConnections()
		}
		return sendSSEEvent(w, flusher, string(ev.Type), ev)
	}
	defer func() {
		if started {
			metrics.DecrementSSEConnections()
		}
	}()

	if !canStream {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	regenerated, err := h.turns.EditMessage(r.Context(), sessionID, messageID, req.Text, sink)
	if err != nil {
		if !started {
			writeDomainError(w, err)
			return
		}
		h.logger.Warn("regeneration ended with error",
			zap.String("session_id", sessionID),
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		return
	}

	if !regenerated {
		sess, err := h.sessions.Get(sessionID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess.View())
	}
}

// Delete handles DELETE /api/v1/sessions/{id}/messages/{messageID}
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID, messageID, ok := h.ids(w, r)
	if !ok {
		return
	}
	if err := h.turns.DeleteMessage(sessionID, messageID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MessageHandler) ids(w http.ResponseWriter, r *http.Request) (sessionID, messageID string, ok bool) {
	sessionID = chi.URLParam(r, "id")
	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", "", false
	}
	messageID = chi.URLParam(r, "messageID")
	if err := middleware.ValidateMessageID(messageID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", "", false
	}
	return sessionID, messageID, true
}

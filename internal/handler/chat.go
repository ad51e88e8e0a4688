package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/seazone-ai/sia/internal/middleware"
	"github.com/seazone-ai/sia/internal/model"
	"github.com/seazone-ai/sia/internal/service"
	"github.com/seazone-ai/sia/pkg/logger"
	"github.com/seazone-ai/sia/pkg/metrics"
)

// ChatHandler streams conversation turns over SSE.
type ChatHandler struct {
	turns  *service.TurnService
	logger *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(turns *service.TurnService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{turns: turns, logger: log}
}

// Send handles POST /api/v1/sessions/{id}/messages
// The response is an SSE stream of normalized turn events. Errors that
// occur before the first event (unknown session, turn in flight) come
// back as plain JSON instead.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageContent(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.stream(w, r, sessionID, func(sink func(model.StreamEvent) error) error {
		return h.turns.Send(r.Context(), sessionID, req.Text, sink)
	})
}

// SendLocation handles POST /api/v1/sessions/{id}/location
// The side channel used when the user picks an address from the
// assisted search; runs a full turn like Send.
func (h *ChatHandler) SendLocation(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var sel model.PlaceSelection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if sel.FormattedAddress == "" {
		writeError(w, http.StatusBadRequest, "formatted_address is required")
		return
	}

	h.stream(w, r, sessionID, func(sink func(model.StreamEvent) error) error {
		return h.turns.SendLocation(r.Context(), sessionID, sel, sink)
	})
}

// stream runs a turn and relays its events as SSE frames. Headers are
// written lazily on the first event so pre-stream failures can still be
// reported with a proper status code.
func (h *ChatHandler) stream(w http.ResponseWriter, r *http.Request, sessionID string, run func(func(model.StreamEvent) error) error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

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

	if err := run(sink); err != nil {
		if !started {
			writeDomainError(w, err)
			return
		}
		// The stream already carries an error event for in-turn failures.
		h.logger.Warn("turn ended with error",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
}

func (h *ChatHandler) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateSessionID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return id, true
}

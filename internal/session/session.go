// Package session holds in-memory conversation state. Sessions are the
// unit of isolation: one history, one settings bundle, one active turn
// at a time. Nothing is persisted; a restart clears everything.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seazone-ai/sia/internal/model"
	"github.com/seazone-ai/sia/pkg/logger"
	"github.com/seazone-ai/sia/pkg/metrics"
)

var (
	// ErrSessionNotFound is returned when a session id does not resolve.
	ErrSessionNotFound = errors.New("session not found")
	// ErrMessageNotFound is returned when a message id does not resolve
	// within a session.
	ErrMessageNotFound = errors.New("message not found")
	// ErrTurnInFlight is returned when a mutating operation arrives while
	// a turn is already streaming on the session.
	ErrTurnInFlight = errors.New("turn already in progress")
)

// Session is a single conversation. All mutation goes through methods;
// the mutex serializes them against the streaming turn.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	settings   model.Settings
	messages   []*model.Message
	aggregates Aggregates
	turnActive bool
}

// View is the read-side projection of a session.
type View struct {
	ID         string           `json:"id"`
	CreatedAt  time.Time        `json:"created_at"`
	Settings   model.Settings   `json:"settings"`
	Messages   []*model.Message `json:"messages"`
	Aggregates Aggregates       `json:"aggregates"`
}

// View returns a consistent snapshot for serialization. Messages are
// copied, so the snapshot stays stable while later edits mutate the
// history in place.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]*model.Message, len(s.messages))
	for i, m := range s.messages {
		msgs[i] = m.Clone()
	}
	return View{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		Settings:   s.settings,
		Messages:   msgs,
		Aggregates: s.aggregates,
	}
}

// Settings returns the current settings bundle.
func (s *Session) Settings() model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings replaces the settings bundle. Rejected mid-turn so a
// streaming turn never observes a settings change.
func (s *Session) UpdateSettings(settings model.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.turnActive {
		return ErrTurnInFlight
	}
	s.settings = settings
	return nil
}

// BeginTurn marks the session busy. A session runs at most one turn at
// a time; concurrent attempts fail fast instead of queueing.
func (s *Session) BeginTurn() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.turnActive {
		return ErrTurnInFlight
	}
	s.turnActive = true
	return nil
}

// EndTurn releases the busy flag and recomputes aggregates from the
// final history.
func (s *Session) EndTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turnActive = false
	s.aggregates = Reduce(s.messages, s.settings.Model)
}

// AppendUser appends a user message holding a single text part.
func (s *Session) AppendUser(text string) *model.Message {
	msg := &model.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Role:      model.RoleUser,
		Parts:     []model.Part{model.TextPart(text)},
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	metrics.MessagesTotal.WithLabelValues(string(model.RoleUser)).Inc()
	return msg
}

// NewAssistantMessage builds an empty assistant message for the turn
// loop to fill in as events arrive. The loop mutates it without holding
// the session lock, so it joins the history via AppendAssistant only
// once the turn settles; snapshots never observe a message mid-write.
func NewAssistantMessage() *model.Message {
	return &model.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Role:      model.RoleAssistant,
		CreatedAt: time.Now().UTC(),
	}
}

// AppendAssistant commits a turn's assistant message to the history.
func (s *Session) AppendAssistant(msg *model.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	metrics.MessagesTotal.WithLabelValues(string(model.RoleAssistant)).Inc()
}

// History returns a copy of the message slice for use as turn context.
func (s *Session) History() []*model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]*model.Message, len(s.messages))
	copy(msgs, s.messages)
	return msgs
}

// Aggregates returns the derived state from the last reduction.
func (s *Session) Aggregates() Aggregates {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aggregates
}

// EditMessage rewrites a message's text and reports its role so the
// caller can decide whether to regenerate.
//
// Editing a user message keeps the message itself (same id, same
// timestamp), replaces its text and discards everything after it. The
// session comes back marked busy so the caller can regenerate from that
// point with no window for a competing turn to slip in; the caller owns
// the matching EndTurn. Editing an assistant message replaces its text
// in place and keeps its tool invocation parts, since their results
// already shaped later context.
func (s *Session) EditMessage(msgID, text string) (model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.turnActive {
		return "", ErrTurnInFlight
	}

	idx := s.indexOf(msgID)
	if idx < 0 {
		return "", ErrMessageNotFound
	}
	msg := s.messages[idx]

	switch msg.Role {
	case model.RoleUser:
		msg.Parts = []model.Part{model.TextPart(text)}
		s.messages = s.messages[:idx+1]
		s.turnActive = true
		return model.RoleUser, nil

	case model.RoleAssistant:
		parts := make([]model.Part, 0, len(msg.Parts))
		replaced := false
		for _, p := range msg.Parts {
			if p.Type == model.PartText {
				if !replaced {
					parts = append(parts, model.TextPart(text))
					replaced = true
				}
				continue
			}
			parts = append(parts, p)
		}
		if !replaced {
			parts = append(parts, model.TextPart(text))
		}
		msg.Parts = parts
		s.aggregates = Reduce(s.messages, s.settings.Model)
		return model.RoleAssistant, nil

	default:
		return "", ErrMessageNotFound
	}
}

// DeleteMessage removes a single message from the history.
func (s *Session) DeleteMessage(msgID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.turnActive {
		return ErrTurnInFlight
	}
	idx := s.indexOf(msgID)
	if idx < 0 {
		return ErrMessageNotFound
	}
	s.messages = append(s.messages[:idx], s.messages[idx+1:]...)
	s.aggregates = Reduce(s.messages, s.settings.Model)
	return nil
}

// TruncateAfterLastUser removes trailing assistant messages so the last
// user message becomes the tail, ready for regeneration. Returns the
// text of that user message, or ErrMessageNotFound when the history has
// no user message.
func (s *Session) TruncateAfterLastUser() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.turnActive {
		return "", ErrTurnInFlight
	}
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == model.RoleUser {
			s.messages = s.messages[:i+1]
			return s.messages[i].TextContent(), nil
		}
	}
	return "", ErrMessageNotFound
}

// Reset clears the history and all derived state. Settings survive.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.turnActive {
		return ErrTurnInFlight
	}
	s.messages = nil
	s.aggregates = Aggregates{}
	return nil
}

// indexOf locates a message by id. Caller holds the lock.
func (s *Session) indexOf(msgID string) int {
	for i, m := range s.messages {
		if m.ID == msgID {
			return i
		}
	}
	return -1
}

// Manager owns the session table.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	defaults model.Settings
	logger   *logger.Logger
}

// NewManager creates a session manager. New sessions start from the
// given default settings.
func NewManager(defaults model.Settings, log *logger.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		defaults: defaults,
		logger:   log,
	}
}

// Create registers a new session. Zero fields in the override fall back
// to the manager defaults.
func (m *Manager) Create(override *model.Settings) *Session {
	settings := m.defaults
	if override != nil {
		if override.Model != "" {
			settings.Model = override.Model
		}
		if override.Temperature > 0 {
			settings.Temperature = override.Temperature
		}
		if override.TopP > 0 {
			settings.TopP = override.TopP
		}
		if override.MaxTokens > 0 {
			settings.MaxTokens = override.MaxTokens
		}
		if override.SystemPrompt != "" {
			settings.SystemPrompt = override.SystemPrompt
		}
	}

	s := &Session{
		ID:        uuid.Must(uuid.NewV7()).String(),
		CreatedAt: time.Now().UTC(),
		settings:  settings,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	metrics.SessionsActive.Inc()
	m.logger.Info("session created",
		zap.String("session_id", s.ID),
		zap.String("model", settings.Model),
	)
	return s
}

// Get resolves a session by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete removes a session. Fails while a turn is streaming on it.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.mu.Lock()
	busy := s.turnActive
	s.mu.Unlock()
	if busy {
		return ErrTurnInFlight
	}
	delete(m.sessions, id)
	metrics.SessionsActive.Dec()
	return nil
}

// List returns all live sessions in unspecified order.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Package service coordinates sessions, the turn loop and the lead
// outbox behind the HTTP handlers.
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/seazone-ai/sia/internal/llm"
	"github.com/seazone-ai/sia/internal/model"
	"github.com/seazone-ai/sia/internal/orchestrator"
	"github.com/seazone-ai/sia/internal/places"
	"github.com/seazone-ai/sia/internal/session"
	"github.com/seazone-ai/sia/pkg/logger"
	"github.com/seazone-ai/sia/pkg/metrics"
)

// LeadPublisher pushes qualified leads to the outbox. Implementations
// must tolerate being called on every qualification; delivery is
// best-effort and never blocks a turn.
type LeadPublisher interface {
	PublishLead(ctx context.Context, sessionID string, record model.QualificationRecord) error
}

// TurnService runs conversation turns against a session.
type TurnService struct {
	sessions  *session.Manager
	loop      *orchestrator.Loop
	publisher LeadPublisher
	logger    *logger.Logger
}

// NewTurnService creates the turn service. publisher may be nil when the
// outbox is disabled.
func NewTurnService(sessions *session.Manager, loop *orchestrator.Loop, publisher LeadPublisher, log *logger.Logger) *TurnService {
	return &TurnService{
		sessions:  sessions,
		loop:      loop,
		publisher: publisher,
		logger:    log,
	}
}

// Send appends a user message and streams one full turn to the sink.
// Returns ErrTurnInFlight when the session is already streaming.
func (s *TurnService) Send(ctx context.Context, sessionID, text string, sink llm.EventSink) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	if err := sess.BeginTurn(); err != nil {
		return err
	}
	sess.AppendUser(text)
	return s.runTurn(ctx, sess, sink)
}

// SendLocation encodes an address selection into the template message
// and runs it as a regular turn. This is the side channel the address
// picker uses after requestLocation fires.
func (s *TurnService) SendLocation(ctx context.Context, sessionID string, sel model.PlaceSelection, sink llm.EventSink) error {
	return s.Send(ctx, sessionID, places.SelectionMessage(sel), sink)
}

// EditMessage rewrites a message. Editing a user message replays the
// conversation from that point: the message keeps its identity with the
// new text, everything after it is discarded and a fresh turn streams
// to the sink. Editing an assistant message is a plain text replacement
// and streams nothing; the returned flag tells the handler which
// happened.
func (s *TurnService) EditMessage(ctx context.Context, sessionID, msgID, text string, sink llm.EventSink) (regenerated bool, err error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return false, err
	}
	// A user edit atomically truncates and claims the turn slot.
	role, err := sess.EditMessage(msgID, text)
	if err != nil {
		return false, err
	}
	if role != model.RoleUser {
		return false, nil
	}
	return true, s.runTurn(ctx, sess, sink)
}

// DeleteMessage removes a message and recomputes derived state.
func (s *TurnService) DeleteMessage(sessionID, msgID string) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	return sess.DeleteMessage(msgID)
}

// Reset clears the session history and aggregates.
func (s *TurnService) Reset(sessionID string) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	return sess.Reset()
}

// runTurn drives the loop on a session already marked busy. The history
// must already end at the triggering user message. The assistant message
// stays private to the loop until it settles, then joins the history.
func (s *TurnService) runTurn(ctx context.Context, sess *session.Session, sink llm.EventSink) error {
	prev := sess.Aggregates().Qualification

	history := sess.History()
	assistant := session.NewAssistantMessage()

	runErr := s.loop.Run(ctx, sess.Settings(), history, assistant, sink)
	sess.AppendAssistant(assistant)
	sess.EndTurn()

	s.publishIfQualified(ctx, sess, prev)
	return runErr
}

// publishIfQualified pushes the lead when this turn produced a
// qualification record that differs from the previous one. Publish
// failures are logged and swallowed; the conversation outcome does not
// depend on the outbox.
func (s *TurnService) publishIfQualified(ctx context.Context, sess *session.Session, prev *model.QualificationRecord) {
	cur := sess.Aggregates().Qualification
	if cur == nil {
		return
	}
	if prev != nil && *prev == *cur {
		return
	}

	metrics.QualificationsTotal.WithLabelValues(string(cur.NextStep)).Inc()
	s.logger.Info("qualification recorded",
		zap.String("session_id", sess.ID),
		zap.String("next_step", string(cur.NextStep)),
		zap.Bool("lead_qualified", cur.LeadQualified),
	)

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLead(ctx, sess.ID, *cur); err != nil {
		s.logger.Warn("lead publish failed",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
	}
}

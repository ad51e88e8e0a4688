package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/seazone-ai/sia/internal/model"
	"github.com/seazone-ai/sia/pkg/metrics"
)

const (
	// StreamName is the qualified leads stream.
	StreamName = "LEADS"

	// SubjectPrefix is the prefix for all lead subjects.
	SubjectPrefix = "leads"
)

// LeadEnvelope is the published record plus delivery metadata.
type LeadEnvelope struct {
	SessionID   string                    `json:"session_id"`
	SubmittedAt time.Time                 `json:"submitted_at"`
	Record      model.QualificationRecord `json:"record"`
}

// Outbox publishes qualification records to the leads stream.
type Outbox struct {
	client *Client
}

// NewOutbox creates an outbox on an established client.
func NewOutbox(client *Client) *Outbox {
	return &Outbox{client: client}
}

// EnsureStream creates the leads stream when it does not exist yet.
func (o *Outbox) EnsureStream(ctx context.Context) error {
	js := o.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      365 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Qualified land leads produced by the Sia agent",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// LeadSubject returns the subject for a session's lead records.
func LeadSubject(sessionID string) string {
	return fmt.Sprintf("%s.qualified.%s", SubjectPrefix, sessionID)
}

// PublishLead publishes a qualification record for a session.
func (o *Outbox) PublishLead(ctx context.Context, sessionID string, record model.QualificationRecord) error {
	env := LeadEnvelope{
		SessionID:   sessionID,
		SubmittedAt: time.Now().UTC(),
		Record:      record,
	}

	data, err := json.Marshal(env)
	if err != nil {
		metrics.LeadsPublishedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to marshal lead: %w", err)
	}

	ack, err := o.client.JetStream().Publish(ctx, LeadSubject(sessionID), data)
	if err != nil {
		metrics.LeadsPublishedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to publish lead: %w", err)
	}

	metrics.LeadsPublishedTotal.WithLabelValues("success").Inc()
	o.client.logger.Info("lead published",
		zap.String("session_id", sessionID),
		zap.Uint64("sequence", ack.Sequence),
	)
	return nil
}

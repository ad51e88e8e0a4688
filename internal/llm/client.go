// Package llm provides the model gateway: provider selection and
// streaming adapters that normalize provider events at the boundary.
package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/seazone-ai/sia/internal/model"
	"github.com/seazone-ai/sia/internal/tool"
)

// EventSink receives normalized stream events in arrival order.
type EventSink func(model.StreamEvent) error

// StepRequest describes one generation step: the full history so far,
// the enabled tools and the sampling parameters.
type StepRequest struct {
	Model       string
	System      string
	Messages    []*model.Message
	Tools       []tool.Definition
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// StepResult reports how a generation step ended.
type StepResult struct {
	FinishReason string
	Usage        model.TokenUsage
}

// Client is the interface for LLM providers. StreamStep runs a single
// generation step, emitting normalized events to the sink as they arrive.
type Client interface {
	// StreamStep streams one generation step.
	StreamStep(ctx context.Context, req *StepRequest, sink EventSink) (*StepResult, error)

	// Name returns the provider name.
	Name() string

	// Models returns the model ids this provider serves.
	Models() []string
}

// ErrProviderUnavailable indicates the resolved provider was not
// configured (missing API key at startup).
var ErrProviderUnavailable = errors.New("llm provider not configured")

// Gateway dispatches model ids to providers by identifier prefix.
type Gateway struct {
	openAI Client
	google Client
}

// NewGateway builds a gateway over the configured providers. Either
// client may be nil when its API key is absent.
func NewGateway(openAI, google Client) *Gateway {
	return &Gateway{openAI: openAI, google: google}
}

// Resolve selects the provider for a model id. gpt-* and o* route to
// OpenAI, gemini-* to Google; unknown prefixes default to OpenAI.
func (g *Gateway) Resolve(modelID string) (Client, error) {
	if strings.HasPrefix(modelID, "gemini-") {
		if g.google == nil {
			return nil, ErrProviderUnavailable
		}
		return g.google, nil
	}
	if g.openAI == nil {
		return nil, ErrProviderUnavailable
	}
	return g.openAI, nil
}

// HasProvider reports whether at least one provider is configured.
func (g *Gateway) HasProvider() bool {
	return g.openAI != nil || g.google != nil
}

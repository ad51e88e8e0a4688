package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seazone-ai/sia/internal/llm"
	"github.com/seazone-ai/sia/internal/model"
	"github.com/seazone-ai/sia/internal/region"
	"github.com/seazone-ai/sia/internal/tool"
	"github.com/seazone-ai/sia/pkg/logger"
)

// scriptedClient plays back one scripted step per StreamStep call. When
// the script runs out the last step repeats.
type scriptedClient struct {
	steps    []func(req *llm.StepRequest, sink llm.EventSink) (*llm.StepResult, error)
	requests []*llm.StepRequest
}

func (c *scriptedClient) StreamStep(ctx context.Context, req *llm.StepRequest, sink llm.EventSink) (*llm.StepResult, error) {
	c.requests = append(c.requests, req)
	i := len(c.requests) - 1
	if i >= len(c.steps) {
		i = len(c.steps) - 1
	}
	return c.steps[i](req, sink)
}

func (c *scriptedClient) Name() string     { return "scripted" }
func (c *scriptedClient) Models() []string { return nil }

func textStep(text string, usage model.TokenUsage) func(*llm.StepRequest, llm.EventSink) (*llm.StepResult, error) {
	return func(req *llm.StepRequest, sink llm.EventSink) (*llm.StepResult, error) {
		for _, delta := range []string{text[:len(text)/2], text[len(text)/2:]} {
			if err := sink(model.StreamEvent{Type: model.EventTextDelta, Delta: delta}); err != nil {
				return nil, err
			}
		}
		return &llm.StepResult{FinishReason: model.FinishStop, Usage: usage}, nil
	}
}

func toolStep(callID, name, args string) func(*llm.StepRequest, llm.EventSink) (*llm.StepResult, error) {
	return func(req *llm.StepRequest, sink llm.EventSink) (*llm.StepResult, error) {
		if err := sink(model.StreamEvent{Type: model.EventToolCallStart, ToolName: name, ToolCallID: callID}); err != nil {
			return nil, err
		}
		if err := sink(model.StreamEvent{
			Type:       model.EventToolCallInput,
			ToolName:   name,
			ToolCallID: callID,
			Input:      json.RawMessage(args),
		}); err != nil {
			return nil, err
		}
		return &llm.StepResult{FinishReason: model.FinishToolCalls, Usage: model.TokenUsage{Prompt: 10, Completion: 5, Total: 15}}, nil
	}
}

type eventLog struct {
	events []model.StreamEvent
}

func (l *eventLog) sink(ev model.StreamEvent) error {
	l.events = append(l.events, ev)
	return nil
}

func (l *eventLog) types() []model.StreamEventType {
	out := make([]model.StreamEventType, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Type)
	}
	return out
}

func newTestLoop(client llm.Client) *Loop {
	return NewLoop(
		llm.NewGateway(client, nil),
		tool.NewRegistry(region.DefaultCatalog()),
		logger.NewNop(),
		DefaultMaxSteps,
	)
}

func settings() model.Settings {
	return model.Settings{
		Model:                     "gpt-4.1",
		Temperature:               0.4,
		EnableValidateLocation:    true,
		EnableSubmitQualification: true,
	}
}

func userMessage(text string) *model.Message {
	return &model.Message{ID: "u1", Role: model.RoleUser, Parts: []model.Part{model.TextPart(text)}}
}

func TestRunTextOnly(t *testing.T) {
	client := &scriptedClient{steps: []func(*llm.StepRequest, llm.EventSink) (*llm.StepResult, error){
		textStep("Olá! Sou a Sia.", model.TokenUsage{Prompt: 20, Completion: 8, Total: 28}),
	}}
	loop := newTestLoop(client)

	assistant := &model.Message{ID: "a1", Role: model.RoleAssistant}
	log := &eventLog{}

	err := loop.Run(context.Background(), settings(), []*model.Message{userMessage("oi")}, assistant, log.sink)
	require.NoError(t, err)

	require.Len(t, client.requests, 1)
	assert.Equal(t, "Olá! Sou a Sia.", assistant.TextContent())
	require.Len(t, assistant.Parts, 1)

	require.NotNil(t, assistant.Usage)
	assert.Equal(t, 28, assistant.Usage.Total)

	types := log.types()
	assert.Equal(t, model.EventUsage, types[len(types)-2])
	assert.Equal(t, model.EventDone, types[len(types)-1])
}

func TestRunToolRoundTrip(t *testing.T) {
	client := &scriptedClient{steps: []func(*llm.StepRequest, llm.EventSink) (*llm.StepResult, error){
		toolStep("call_1", tool.NameValidateLocation, `{"bairro":"centro","cidade":"Florianópolis"}`),
		textStep("Bairro aprovado, vamos continuar.", model.TokenUsage{Prompt: 30, Completion: 10, Total: 40}),
	}}
	loop := newTestLoop(client)

	assistant := &model.Message{ID: "a1", Role: model.RoleAssistant}
	log := &eventLog{}

	err := loop.Run(context.Background(), settings(), []*model.Message{userMessage("é no centro de Florianópolis")}, assistant, log.sink)
	require.NoError(t, err)
	require.Len(t, client.requests, 2)

	// step two sees the in-progress assistant message with the tool result
	secondStepMsgs := client.requests[1].Messages
	require.Len(t, secondStepMsgs, 2)
	assert.Equal(t, model.RoleAssistant, secondStepMsgs[1].Role)

	inv := assistant.Invocation("call_1")
	require.NotNil(t, inv)
	assert.Equal(t, model.InvocationDone, inv.State)

	var result tool.ValidationResult
	require.NoError(t, json.Unmarshal(inv.Output, &result))
	assert.True(t, result.Allowed)

	// accumulated across both steps
	require.NotNil(t, assistant.Usage)
	assert.Equal(t, 55, assistant.Usage.Total)

	assert.Contains(t, log.types(), model.EventToolResult)
	assert.Contains(t, log.types(), model.EventStepFinish)
}

func TestRunStepCeiling(t *testing.T) {
	// a model that never stops calling tools must be cut off at the
	// ceiling without an error
	client := &scriptedClient{}
	client.steps = []func(*llm.StepRequest, llm.EventSink) (*llm.StepResult, error){
		func(req *llm.StepRequest, sink llm.EventSink) (*llm.StepResult, error) {
			callID := "call_" + string(rune('a'+len(client.requests)))
			return toolStep(callID, tool.NameValidateLocation, `{"bairro":"centro","cidade":"Florianópolis"}`)(req, sink)
		},
	}
	loop := newTestLoop(client)

	assistant := &model.Message{ID: "a1", Role: model.RoleAssistant}
	log := &eventLog{}

	err := loop.Run(context.Background(), settings(), []*model.Message{userMessage("oi")}, assistant, log.sink)
	require.NoError(t, err)

	assert.Len(t, client.requests, DefaultMaxSteps)
	assert.Equal(t, model.EventDone, log.types()[len(log.types())-1])

	// every requested call still got executed
	for _, p := range assistant.Parts {
		if p.Type == model.PartToolInvocation {
			assert.Equal(t, model.InvocationDone, p.State)
		}
	}
}

func TestRunToolErrorFeedsBack(t *testing.T) {
	client := &scriptedClient{steps: []func(*llm.StepRequest, llm.EventSink) (*llm.StepResult, error){
		// cidade missing, schema validation fails
		toolStep("call_1", tool.NameValidateLocation, `{"bairro":"centro"}`),
		textStep("Qual é a cidade do terreno?", model.TokenUsage{}),
	}}
	loop := newTestLoop(client)

	assistant := &model.Message{ID: "a1", Role: model.RoleAssistant}
	log := &eventLog{}

	err := loop.Run(context.Background(), settings(), []*model.Message{userMessage("oi")}, assistant, log.sink)
	require.NoError(t, err)
	require.Len(t, client.requests, 2)

	inv := assistant.Invocation("call_1")
	require.NotNil(t, inv)
	assert.Equal(t, model.InvocationDone, inv.State)

	var out map[string]string
	require.NoError(t, json.Unmarshal(inv.Output, &out))
	assert.Contains(t, out["error"], "cidade")
}

func TestRunTransportError(t *testing.T) {
	transportErr := errors.New("connection reset")
	client := &scriptedClient{steps: []func(*llm.StepRequest, llm.EventSink) (*llm.StepResult, error){
		func(req *llm.StepRequest, sink llm.EventSink) (*llm.StepResult, error) {
			if err := sink(model.StreamEvent{Type: model.EventTextDelta, Delta: "Vou verif"}); err != nil {
				return nil, err
			}
			return nil, transportErr
		},
	}}
	loop := newTestLoop(client)

	assistant := &model.Message{ID: "a1", Role: model.RoleAssistant}
	log := &eventLog{}

	err := loop.Run(context.Background(), settings(), []*model.Message{userMessage("oi")}, assistant, log.sink)
	require.ErrorIs(t, err, transportErr)

	// partial text survives, no rollback
	assert.Equal(t, "Vou verif", assistant.TextContent())

	types := log.types()
	assert.Equal(t, model.EventError, types[len(types)-1])
	assert.NotContains(t, types, model.EventDone)
}

func TestRunCancelDiscardsResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	client := &scriptedClient{steps: []func(*llm.StepRequest, llm.EventSink) (*llm.StepResult, error){
		func(req *llm.StepRequest, sink llm.EventSink) (*llm.StepResult, error) {
			res, err := toolStep("call_1", tool.NameValidateLocation, `{"bairro":"centro","cidade":"Florianópolis"}`)(req, sink)
			cancel()
			return res, err
		},
	}}
	loop := newTestLoop(client)

	assistant := &model.Message{ID: "a1", Role: model.RoleAssistant}
	log := &eventLog{}

	err := loop.Run(ctx, settings(), []*model.Message{userMessage("oi")}, assistant, log.sink)
	require.ErrorIs(t, err, context.Canceled)

	// the result of the aborted execution is discarded
	inv := assistant.Invocation("call_1")
	require.NotNil(t, inv)
	assert.Equal(t, model.InvocationAwaitingResult, inv.State)
	assert.NotContains(t, log.types(), model.EventToolResult)
}

func TestRunUnconfiguredProvider(t *testing.T) {
	loop := newTestLoop(nil)

	s := settings()
	s.Model = "gemini-3-flash-preview"

	assistant := &model.Message{ID: "a1", Role: model.RoleAssistant}
	log := &eventLog{}

	err := loop.Run(context.Background(), s, []*model.Message{userMessage("oi")}, assistant, log.sink)
	require.ErrorIs(t, err, llm.ErrProviderUnavailable)
	require.Len(t, log.events, 1)
	assert.Equal(t, model.EventError, log.events[0].Type)
}

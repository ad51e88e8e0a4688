// Package orchestrator drives the tool-mediated conversation loop:
// bounded multi-step generation with synchronous server-side tool
// execution between steps.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seazone-ai/sia/internal/llm"
	"github.com/seazone-ai/sia/internal/model"
	"github.com/seazone-ai/sia/internal/tool"
	"github.com/seazone-ai/sia/pkg/logger"
	"github.com/seazone-ai/sia/pkg/metrics"
)

// DefaultMaxSteps bounds generation steps per turn. The ceiling guarantees
// termination even under pathological tool-calling behavior; exceeding it
// ends the turn with whatever was produced, without an error.
const DefaultMaxSteps = 5

// Loop executes turns against the model gateway and the tool registry.
type Loop struct {
	gateway  *llm.Gateway
	registry *tool.Registry
	logger   *logger.Logger
	maxSteps int
}

// NewLoop creates a turn loop.
func NewLoop(gateway *llm.Gateway, registry *tool.Registry, log *logger.Logger, maxSteps int) *Loop {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Loop{
		gateway:  gateway,
		registry: registry,
		logger:   log,
		maxSteps: maxSteps,
	}
}

// Run drives one turn. history holds everything up to and including the
// triggering user message; assistant is the in-progress assistant message,
// owned by the loop for the duration of the turn and mutated in event
// arrival order as the stream proceeds. Partial parts survive errors and
// cancellation; there is no rollback.
func (l *Loop) Run(ctx context.Context, settings model.Settings, history []*model.Message, assistant *model.Message, sink llm.EventSink) error {
	start := time.Now()

	client, err := l.gateway.Resolve(settings.Model)
	if err != nil {
		emitError(sink, err)
		return err
	}

	tools := l.registry.Enabled(settings)
	var turnUsage model.TokenUsage
	steps := 0

	for steps < l.maxSteps {
		steps++

		messages := history
		if len(assistant.Parts) > 0 {
			messages = append(append([]*model.Message{}, history...), assistant)
		}

		res, err := client.StreamStep(ctx, &llm.StepRequest{
			Model:       settings.Model,
			System:      settings.SystemPrompt,
			Messages:    messages,
			Tools:       tools,
			Temperature: settings.Temperature,
			TopP:        settings.TopP,
			MaxTokens:   settings.MaxTokens,
		}, func(ev model.StreamEvent) error {
			applyEvent(assistant, ev)
			return sink(ev)
		})
		if err != nil {
			l.logger.Error("model stream failed",
				zap.String("model", settings.Model),
				zap.Int("step", steps),
				zap.Error(err),
			)
			metrics.RecordTurn(settings.Model, "error", time.Since(start).Seconds(), steps, turnUsage.Prompt, turnUsage.Completion)
			emitError(sink, err)
			return fmt.Errorf("model stream failed: %w", err)
		}

		turnUsage.Add(res.Usage)

		pending := pendingInvocations(assistant)
		if len(pending) == 0 {
			break
		}

		if err := l.executeCalls(ctx, assistant, pending, sink); err != nil {
			metrics.RecordTurn(settings.Model, "aborted", time.Since(start).Seconds(), steps, turnUsage.Prompt, turnUsage.Completion)
			return err
		}

		if err := sink(model.StreamEvent{Type: model.EventStepFinish, FinishReason: res.FinishReason}); err != nil {
			return err
		}
	}

	assistant.Model = settings.Model
	assistant.Usage = &turnUsage

	if err := sink(model.StreamEvent{Type: model.EventUsage, Usage: &turnUsage}); err != nil {
		return err
	}
	if err := sink(model.StreamEvent{Type: model.EventDone}); err != nil {
		return err
	}

	metrics.RecordTurn(settings.Model, "success", time.Since(start).Seconds(), steps, turnUsage.Prompt, turnUsage.Completion)
	return nil
}

// executeCalls runs the step's tool calls concurrently and writes results
// back in call order, so event application stays deterministic regardless
// of completion order. Executions started before an abort complete, but
// their results are discarded.
func (l *Loop) executeCalls(ctx context.Context, assistant *model.Message, pending []int, sink llm.EventSink) error {
	type callResult struct {
		output json.RawMessage
		err    error
	}
	results := make([]callResult, len(pending))

	g, gctx := errgroup.WithContext(ctx)
	for i, idx := range pending {
		part := assistant.Parts[idx]
		g.Go(func() error {
			out, err := l.registry.Execute(gctx, part.ToolName, part.Input)
			results[i] = callResult{output: out, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	for i, idx := range pending {
		part := &assistant.Parts[idx]
		var output json.RawMessage

		if results[i].err != nil {
			l.logger.Warn("tool execution failed",
				zap.String("tool", part.ToolName),
				zap.String("call_id", part.ToolCallID),
				zap.Error(results[i].err),
			)
			metrics.RecordToolExecution(part.ToolName, "error")
			output, _ = json.Marshal(map[string]string{"error": results[i].err.Error()})
		} else {
			metrics.RecordToolExecution(part.ToolName, "success")
			output = results[i].output
		}

		ev := model.StreamEvent{
			Type:       model.EventToolResult,
			ToolName:   part.ToolName,
			ToolCallID: part.ToolCallID,
			Output:     output,
		}
		applyEvent(assistant, ev)
		if err := sink(ev); err != nil {
			return err
		}
	}

	return nil
}

// applyEvent folds one normalized event into the in-progress assistant
// message. Arrival order is the sole consistency mechanism; there is no
// reconciliation pass.
func applyEvent(assistant *model.Message, ev model.StreamEvent) {
	switch ev.Type {
	case model.EventTextDelta:
		if n := len(assistant.Parts); n > 0 && assistant.Parts[n-1].Type == model.PartText {
			assistant.Parts[n-1].Text += ev.Delta
			return
		}
		assistant.Parts = append(assistant.Parts, model.TextPart(ev.Delta))

	case model.EventToolCallStart:
		assistant.Parts = append(assistant.Parts, model.Part{
			Type:       model.PartToolInvocation,
			ToolName:   ev.ToolName,
			ToolCallID: ev.ToolCallID,
			State:      model.InvocationPending,
		})

	case model.EventToolCallInput:
		if p := assistant.Invocation(ev.ToolCallID); p != nil && p.State == model.InvocationPending {
			if p.ToolName == "" {
				p.ToolName = ev.ToolName
			}
			p.Input = ev.Input
			p.State = model.InvocationAwaitingResult
		}

	case model.EventToolResult:
		if p := assistant.Invocation(ev.ToolCallID); p != nil && p.State != model.InvocationDone {
			p.Output = ev.Output
			p.State = model.InvocationDone
		}
	}
}

// pendingInvocations returns the part indices awaiting execution.
func pendingInvocations(m *model.Message) []int {
	var out []int
	for i := range m.Parts {
		p := &m.Parts[i]
		if p.Type == model.PartToolInvocation && p.State == model.InvocationAwaitingResult {
			out = append(out, i)
		}
	}
	return out
}

func emitError(sink llm.EventSink, err error) {
	_ = sink(model.StreamEvent{Type: model.EventError, Message: err.Error()})
}

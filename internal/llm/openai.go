package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/seazone-ai/sia/internal/model"
	"github.com/seazone-ai/sia/internal/tool"
)

// OpenAIClient serves gpt-* and o* model ids.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	return &OpenAIClient{client: openai.NewClient(apiKey)}, nil
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return "openai"
}

// Models returns the catalog ids served by this provider.
func (c *OpenAIClient) Models() []string {
	var out []string
	for _, m := range AvailableModels {
		if m.Provider == "OpenAI" {
			out = append(out, m.ID)
		}
	}
	return out
}

// StreamStep streams a single generation step.
func (c *OpenAIClient) StreamStep(ctx context.Context, req *StepRequest, sink EventSink) (*StepResult, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:         req.Model,
		Messages:      convertOpenAIMessages(req),
		Temperature:   float32(req.Temperature),
		Stream:        true,
		StreamOptions: &openai.StreamOptions{IncludeUsage: true},
	}
	if req.TopP > 0 {
		chatReq.TopP = float32(req.TopP)
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = convertOpenAITools(req.Tools)
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var acc toolCallAccumulator
	var usage model.TokenUsage
	finish := model.FinishStop

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if resp.Usage != nil {
			usage = model.TokenUsage{
				Prompt:     resp.Usage.PromptTokens,
				Completion: resp.Usage.CompletionTokens,
				Total:      resp.Usage.TotalTokens,
			}
			if resp.Usage.CompletionTokensDetails != nil {
				usage.Reasoning = resp.Usage.CompletionTokensDetails.ReasoningTokens
			}
		}

		if len(resp.Choices) == 0 {
			continue
		}
		choice := resp.Choices[0]

		if choice.Delta.Content != "" {
			if err := sink(model.StreamEvent{Type: model.EventTextDelta, Delta: choice.Delta.Content}); err != nil {
				return nil, err
			}
		}

		for _, tc := range choice.Delta.ToolCalls {
			if err := acc.apply(tc, sink); err != nil {
				return nil, err
			}
		}

		if choice.FinishReason != "" {
			switch choice.FinishReason {
			case openai.FinishReasonToolCalls:
				finish = model.FinishToolCalls
			case openai.FinishReasonLength:
				finish = model.FinishLength
			default:
				finish = model.FinishStop
			}
		}
	}

	// Arguments only become complete at stream end.
	if err := acc.flush(sink); err != nil {
		return nil, err
	}
	if acc.hasCalls() {
		finish = model.FinishToolCalls
	}

	return &StepResult{FinishReason: finish, Usage: usage}, nil
}

type pendingCall struct {
	id      string
	name    string
	started bool
	args    strings.Builder
}

// toolCallAccumulator assembles tool calls split across stream deltas.
// OpenAI keys fragments by index and may deliver argument chunks before
// the id/name header, so the start event is held back until the name is
// known. The call id is pinned at that point; a synthetic one fills in
// when the provider id has not arrived yet, keeping the start and input
// events consistent.
type toolCallAccumulator struct {
	calls []*pendingCall
}

func (a *toolCallAccumulator) apply(tc openai.ToolCall, sink EventSink) error {
	idx := 0
	if tc.Index != nil {
		idx = *tc.Index
	}
	for len(a.calls) <= idx {
		a.calls = append(a.calls, &pendingCall{})
	}
	pc := a.calls[idx]

	if tc.ID != "" && pc.id == "" {
		pc.id = tc.ID
	}
	if tc.Function.Name != "" && pc.name == "" {
		pc.name = tc.Function.Name
	}
	pc.args.WriteString(tc.Function.Arguments)

	if pc.started || pc.name == "" {
		return nil
	}
	pc.started = true
	if pc.id == "" {
		pc.id = uuid.NewString()
	}
	return sink(model.StreamEvent{
		Type:       model.EventToolCallStart,
		ToolName:   pc.name,
		ToolCallID: pc.id,
	})
}

// flush emits the completed inputs in call order.
func (a *toolCallAccumulator) flush(sink EventSink) error {
	for _, pc := range a.calls {
		if !pc.started {
			continue
		}
		args := pc.args.String()
		if args == "" {
			args = "{}"
		}
		if err := sink(model.StreamEvent{
			Type:       model.EventToolCallInput,
			ToolName:   pc.name,
			ToolCallID: pc.id,
			Input:      json.RawMessage(args),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (a *toolCallAccumulator) hasCalls() bool {
	for _, pc := range a.calls {
		if pc.started {
			return true
		}
	}
	return false
}

func convertOpenAIMessages(req *StepRequest) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	for _, m := range req.Messages {
		switch m.Role {
		case model.RoleSystem:
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: m.TextContent(),
			})
		case model.RoleUser:
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: m.TextContent(),
			})
		case model.RoleAssistant:
			assistant := openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: m.TextContent(),
			}
			var results []openai.ChatCompletionMessage
			for _, p := range m.Parts {
				if p.Type != model.PartToolInvocation {
					continue
				}
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ToolCall{
					ID:   p.ToolCallID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      p.ToolName,
						Arguments: string(p.Input),
					},
				})
				if p.State == model.InvocationDone {
					results = append(results, openai.ChatCompletionMessage{
						Role:       openai.ChatMessageRoleTool,
						ToolCallID: p.ToolCallID,
						Content:    string(p.Output),
					})
				}
			}
			msgs = append(msgs, assistant)
			msgs = append(msgs, results...)
		}
	}

	return msgs
}

func convertOpenAITools(defs []tool.Definition) []openai.Tool {
	tools := make([]openai.Tool, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.InputSchema,
			},
		})
	}
	return tools
}

package llm

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/seazone-ai/sia/internal/model"
	"github.com/seazone-ai/sia/internal/tool"
)

// GeminiClient serves gemini-* model ids.
//
// The Gemini API rejects assistant turns whose parts serialize to empty
// content, which multi-step tool execution can produce. Outbound history
// conversion therefore injects a minimal placeholder text segment into any
// model turn that would otherwise be empty, on every request including
// internal multi-step continuations. Without this, conversations fail
// with a protocol error mid-loop.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{client: client}, nil
}

// Name returns the provider name.
func (c *GeminiClient) Name() string {
	return "google"
}

// Models returns the catalog ids served by this provider.
func (c *GeminiClient) Models() []string {
	var out []string
	for _, m := range AvailableModels {
		if m.Provider == "Google" {
			out = append(out, m.ID)
		}
	}
	return out
}

// StreamStep streams a single generation step.
func (c *GeminiClient) StreamStep(ctx context.Context, req *StepRequest, sink EventSink) (*StepResult, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.TopP > 0 {
		config.TopP = genai.Ptr(float32(req.TopP))
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if len(req.Tools) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: convertGeminiTools(req.Tools)}}
	}

	contents := convertGeminiContents(req.Messages)

	var usage model.TokenUsage
	sawCalls := false

	for resp, err := range c.client.Models.GenerateContentStream(ctx, req.Model, contents, config) {
		if err != nil {
			return nil, err
		}

		if resp.UsageMetadata != nil {
			usage = model.TokenUsage{
				Prompt:     int(resp.UsageMetadata.PromptTokenCount),
				Completion: int(resp.UsageMetadata.CandidatesTokenCount),
				Total:      int(resp.UsageMetadata.TotalTokenCount),
				Reasoning:  int(resp.UsageMetadata.ThoughtsTokenCount),
			}
		}

		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			continue
		}

		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" && !part.Thought {
				if err := sink(model.StreamEvent{Type: model.EventTextDelta, Delta: part.Text}); err != nil {
					return nil, err
				}
			}
			if part.FunctionCall != nil {
				callID := part.FunctionCall.ID
				if callID == "" {
					callID = uuid.NewString()
				}
				args, err := json.Marshal(part.FunctionCall.Args)
				if err != nil {
					args = []byte("{}")
				}
				sawCalls = true
				if err := sink(model.StreamEvent{
					Type:       model.EventToolCallStart,
					ToolName:   part.FunctionCall.Name,
					ToolCallID: callID,
				}); err != nil {
					return nil, err
				}
				if err := sink(model.StreamEvent{
					Type:       model.EventToolCallInput,
					ToolName:   part.FunctionCall.Name,
					ToolCallID: callID,
					Input:      json.RawMessage(args),
				}); err != nil {
					return nil, err
				}
			}
		}
	}

	finish := model.FinishStop
	if sawCalls {
		finish = model.FinishToolCalls
	}
	return &StepResult{FinishReason: finish, Usage: usage}, nil
}

// geminiPlaceholder is the minimal text injected into model turns that
// would otherwise serialize to empty content.
const geminiPlaceholder = " "

func convertGeminiContents(messages []*model.Message) []*genai.Content {
	var contents []*genai.Content

	for _, m := range messages {
		switch m.Role {
		case model.RoleUser, model.RoleSystem:
			contents = append(contents, genai.NewContentFromText(m.TextContent(), genai.RoleUser))
		case model.RoleAssistant:
			var parts []*genai.Part
			var responses []*genai.Part

			for _, p := range m.Parts {
				switch p.Type {
				case model.PartText:
					if p.Text != "" {
						parts = append(parts, &genai.Part{Text: p.Text})
					}
				case model.PartToolInvocation:
					var args map[string]any
					if err := json.Unmarshal(p.Input, &args); err != nil {
						args = map[string]any{}
					}
					parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
						ID:   p.ToolCallID,
						Name: p.ToolName,
						Args: args,
					}})
					if p.State == model.InvocationDone {
						var out map[string]any
						if err := json.Unmarshal(p.Output, &out); err != nil {
							out = map[string]any{"output": string(p.Output)}
						}
						responses = append(responses, &genai.Part{FunctionResponse: &genai.FunctionResponse{
							ID:       p.ToolCallID,
							Name:     p.ToolName,
							Response: out,
						}})
					}
				}
			}

			if len(parts) == 0 {
				parts = append(parts, &genai.Part{Text: geminiPlaceholder})
			}
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})

			if len(responses) > 0 {
				contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: responses})
			}
		}
	}

	return contents
}

func convertGeminiTools(defs []tool.Definition) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, d := range defs {
		props := make(map[string]*genai.Schema, len(d.InputSchema.Properties))
		for name, p := range d.InputSchema.Properties {
			props[name] = &genai.Schema{
				Type:        geminiType(p.Type),
				Description: p.Description,
				Enum:        p.Enum,
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   d.InputSchema.Required,
			},
		})
	}
	return decls
}

func geminiType(t string) genai.Type {
	switch t {
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

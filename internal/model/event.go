package model

import "encoding/json"

// StreamEventType represents the type of a normalized turn event.
type StreamEventType string

const (
	EventTextDelta     StreamEventType = "text-delta"
	EventToolCallStart StreamEventType = "tool-call-start"
	EventToolCallInput StreamEventType = "tool-call-input"
	EventToolResult    StreamEventType = "tool-result"
	EventStepFinish    StreamEventType = "step-finish"
	EventUsage         StreamEventType = "usage"
	EventError         StreamEventType = "error"
	EventDone          StreamEventType = "done"
)

// StreamEvent is the single tagged-variant event shape produced at the
// model gateway boundary. Provider-native stream chunks are normalized
// into this type exactly once; the orchestration loop and the session
// reducer never see provider shapes.
type StreamEvent struct {
	Type StreamEventType `json:"type"`

	// text-delta
	Delta string `json:"delta,omitempty"`

	// tool events
	ToolName   string          `json:"tool_name,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Input      json.RawMessage `json:"input,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`

	// step-finish
	FinishReason string `json:"finish_reason,omitempty"`

	// usage
	Usage *TokenUsage `json:"usage,omitempty"`

	// error
	Message string `json:"message,omitempty"`
}

// Finish reasons reported on step boundaries.
const (
	FinishStop      = "stop"
	FinishToolCalls = "tool_calls"
	FinishLength    = "length"
)

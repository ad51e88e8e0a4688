// Package model defines data structures for the qualification agent.
package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// PartType discriminates the variants of a message part.
type PartType string

const (
	PartText           PartType = "text"
	PartToolInvocation PartType = "tool-invocation"
)

// InvocationState tracks the lifecycle of a tool invocation.
// Transitions are monotonic: pending -> awaiting-result -> done.
type InvocationState string

const (
	InvocationPending        InvocationState = "pending"
	InvocationAwaitingResult InvocationState = "awaiting-result"
	InvocationDone           InvocationState = "done"
)

// Part is a tagged variant: either a text segment or a tool invocation.
type Part struct {
	Type PartType `json:"type"`

	// Text fields
	Text string `json:"text,omitempty"`

	// Tool invocation fields
	ToolName   string          `json:"tool_name,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	State      InvocationState `json:"state,omitempty"`
	Input      json.RawMessage `json:"input,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

// Message represents a conversation message. Once a turn finishes the
// message is immutable except through the explicit edit operations.
type Message struct {
	ID        string      `json:"id"`
	Role      Role        `json:"role"`
	Parts     []Part      `json:"parts"`
	CreatedAt time.Time   `json:"created_at"`
	Model     string      `json:"model,omitempty"`
	Usage     *TokenUsage `json:"usage,omitempty"`
}

// TextContent joins the text parts of a message.
func (m *Message) TextContent() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if p.Type == PartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// Clone returns a copy whose Parts and Usage are independent of the
// receiver. Part payloads (text, raw JSON) are written once and never
// mutated in place, so sharing them is safe.
func (m *Message) Clone() *Message {
	c := *m
	c.Parts = append([]Part(nil), m.Parts...)
	if m.Usage != nil {
		u := *m.Usage
		c.Usage = &u
	}
	return &c
}

// Invocation returns the tool invocation part with the given call id.
func (m *Message) Invocation(callID string) *Part {
	for i := range m.Parts {
		if m.Parts[i].Type == PartToolInvocation && m.Parts[i].ToolCallID == callID {
			return &m.Parts[i]
		}
	}
	return nil
}

// TokenUsage accumulates token counts across streamed usage events.
// Fields are strictly additive; the accumulator is never reset except
// on session clear.
type TokenUsage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
	Reasoning  int `json:"reasoning"`
}

// Add accumulates another usage sample field-wise.
func (u *TokenUsage) Add(other TokenUsage) {
	u.Prompt += other.Prompt
	u.Completion += other.Completion
	u.Total += other.Total
	u.Reasoning += other.Reasoning
}

// IsZero reports whether no tokens have been recorded.
func (u TokenUsage) IsZero() bool {
	return u.Prompt == 0 && u.Completion == 0 && u.Total == 0 && u.Reasoning == 0
}

package models

import (
	"encoding/json"
	"time"
)

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
	ChatRoleSystem    ChatRole = "system"
)

const (
	// ChatHistoryLimit is the maximum number of messages retained at rest.
	ChatHistoryLimit = 16
	// ChatSessionGap is the idle gap after which stored history is treated
	// as a stale conversation and cleared before the next append.
	ChatSessionGap = 10 * time.Minute
)

// ToolCall is a structured function invocation returned by the model.
// Arguments is the raw JSON-encoded payload; it is decoded at the
// dispatcher boundary, never stored decoded.
type ToolCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatMessage is one entry in the persisted conversation history.
type ChatMessage struct {
	Role      ChatRole   `json:"role"`
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"timestamp"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// WireMessage is the shape sent to the chat endpoint: the stored message
// minus internal-only fields.
type WireMessage struct {
	Role      ChatRole   `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Wire maps a stored message to its wire shape.
func (m ChatMessage) Wire() WireMessage {
	return WireMessage{Role: m.Role, Content: m.Content, ToolCalls: m.ToolCalls}
}

// DecodeArguments unmarshals the raw arguments payload into v.
func (c ToolCall) DecodeArguments(v any) error {
	return json.Unmarshal([]byte(c.Arguments), v)
}

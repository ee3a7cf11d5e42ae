package ai

import (
	"context"
	"encoding/json"

	"github.com/voxtodo/voxtodo/internal/models"
)

// Completion is the gateway's view of one chat-completion round.
type Completion struct {
	// Content is the assistant's free-text reply, possibly empty when the
	// model chose to act through tool calls only.
	Content string
	// ToolCalls are the structured mutations the model requested, in order.
	ToolCalls []models.ToolCall
	// Usage is nil when the provider omitted token accounting.
	Usage *models.TokenUsage
	// Raw is the provider's completion body, passed through to clients
	// unmodified.
	Raw json.RawMessage
}

// StreamChunk is one provider chunk forwarded on the streaming path.
type StreamChunk struct {
	// Raw is the provider's chunk body.
	Raw json.RawMessage
	// Usage is non-nil only on the terminal accounting chunk.
	Usage *models.TokenUsage
}

// Provider is the interface to the LLM backend. Both methods receive the
// wrapped transcript plus the caller's prior conversation, and always
// attach the fixed tool schema.
type Provider interface {
	// Complete runs one non-streaming round.
	Complete(ctx context.Context, transcript string, history []models.WireMessage) (*Completion, error)

	// Stream runs one streaming round, calling emit once per chunk. The
	// returned usage comes from the terminal chunk when the provider
	// includes one.
	Stream(ctx context.Context, transcript string, history []models.WireMessage, emit func(StreamChunk) error) (*models.TokenUsage, error)
}

// Package processor orchestrates one voice-command round: validate the
// transcript, build context, call the gateway, dispatch tool calls and
// record history. It is the only component touching both network and
// store.
package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/voxtodo/voxtodo/internal/chatctx"
	"github.com/voxtodo/voxtodo/internal/dispatch"
	"github.com/voxtodo/voxtodo/internal/logger"
	"github.com/voxtodo/voxtodo/internal/models"
	"github.com/voxtodo/voxtodo/internal/remote"
	"go.uber.org/zap"
)

// ProcessingState is the transient view of the in-flight round. Not
// persisted; the error string survives until the next successful round.
type ProcessingState struct {
	IsProcessing   bool
	Error          string
	LastTranscript string
}

// Toast surfaces a transient user-visible message. Nil is allowed.
type Toast func(message string)

// ChatCaller is the slice of the gateway client the processor needs.
type ChatCaller interface {
	Chat(ctx context.Context, request chatctx.Request) (*remote.ChatResult, error)
}

// HistorySink records conversation history; satisfied by the store.
type HistorySink interface {
	AddChatMessage(msg models.ChatMessage)
}

// Processor runs transcript rounds.
type Processor struct {
	builder    *chatctx.Builder
	remote     ChatCaller
	dispatcher *dispatch.Dispatcher
	history    HistorySink
	toast      Toast
	logger     *zap.Logger

	mu    sync.Mutex
	state ProcessingState
}

// New creates a processor. toast may be nil.
func New(builder *chatctx.Builder, caller ChatCaller, dispatcher *dispatch.Dispatcher, history HistorySink, toast Toast, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{
		builder:    builder,
		remote:     caller,
		dispatcher: dispatcher,
		history:    history,
		toast:      toast,
		logger:     log,
	}
}

// State returns a snapshot of the processing state.
func (p *Processor) State() ProcessingState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Processor) begin(transcript string) {
	p.mu.Lock()
	p.state.IsProcessing = true
	p.state.LastTranscript = transcript
	p.mu.Unlock()
}

func (p *Processor) fail(message string) {
	p.mu.Lock()
	p.state.IsProcessing = false
	p.state.Error = message
	p.mu.Unlock()
	if p.toast != nil {
		p.toast(message)
	}
}

func (p *Processor) succeed() {
	p.mu.Lock()
	p.state.IsProcessing = false
	p.state.Error = ""
	p.mu.Unlock()
}

// Process runs one round. Errors are surfaced through the toast and the
// processing state as well as the return value; they are never retried
// here.
func (p *Processor) Process(ctx context.Context, transcript string) error {
	p.begin(transcript)

	if strings.TrimSpace(transcript) == "" {
		err := fmt.Errorf("transcript is empty")
		p.fail("Nothing to process: the transcript was empty")
		return err
	}

	// State is re-read inside Build immediately before the call, keeping
	// the serialized view as fresh as possible.
	request := p.builder.Build(transcript)

	result, err := p.remote.Chat(ctx, request)
	if err != nil {
		p.logger.Warn("chat_round_failed", zap.String("error", logger.SanitizeError(err)))
		p.fail(roundErrorMessage(err))
		return err
	}

	if len(result.ToolCalls) == 0 {
		// The model chose to answer without acting; record its reply and
		// call the round a success.
		p.history.AddChatMessage(models.ChatMessage{
			Role:    models.ChatRoleAssistant,
			Content: result.Content,
		})
		p.succeed()
		return nil
	}

	// The user message lands before dispatch so history ordering reflects
	// causality even when dispatch partially fails.
	p.history.AddChatMessage(models.ChatMessage{
		Role:    models.ChatRoleUser,
		Content: request.Transcript,
	})

	res := p.dispatcher.Apply(result.ToolCalls)
	if res.Skipped > 0 {
		p.logger.Warn("tool_calls_partially_applied",
			zap.Int("applied", res.Applied),
			zap.Int("skipped", res.Skipped))
	}

	p.history.AddChatMessage(models.ChatMessage{
		Role:      models.ChatRoleAssistant,
		Content:   result.Content,
		ToolCalls: result.ToolCalls,
	})

	p.succeed()
	return nil
}

// roundErrorMessage maps an error to the user-facing toast text, keeping
// the raw status and body where the gateway provided them.
func roundErrorMessage(err error) string {
	var statusErr *remote.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == 429 {
			return "Monthly token limit reached; try again later"
		}
		return fmt.Sprintf("Request failed (%d): %s", statusErr.StatusCode, statusErr.Body)
	}
	return "Could not reach the assistant: " + err.Error()
}

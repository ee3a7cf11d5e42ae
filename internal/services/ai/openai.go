package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/voxtodo/voxtodo/internal/logger"
	"github.com/voxtodo/voxtodo/internal/models"
	"go.uber.org/zap"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"
	// DefaultBaseURL is the default OpenAI API base URL.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout bounds non-streaming completion calls.
	DefaultTimeout = 120 * time.Second

	// ErrNoChoicesInResponse is returned when the API response has no choices.
	ErrNoChoicesInResponse = "no choices in response"
)

// OpenAIProvider implements Provider against the OpenAI chat API.
type OpenAIProvider struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a provider. Empty model and baseURL fall back
// to defaults.
func NewOpenAIProvider(apiKey, baseURL, model string, log *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIProvider{
		client:    client,
		model:     model,
		logger:    log,
		debugMode: debugMode,
	}
}

// buildMessages assembles the message stack: system prompt, prior
// conversation, then the wrapped transcript as the newest user message.
func (p *OpenAIProvider) buildMessages(transcript string, history []models.WireMessage) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	messages = append(messages, openai.SystemMessage(systemPrompt))

	for _, msg := range history {
		switch msg.Role {
		case models.ChatRoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		case models.ChatRoleSystem:
			// System entries never travel with client history.
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	messages = append(messages, openai.UserMessage(transcript))
	return messages
}

func (p *OpenAIProvider) params(transcript string, history []models.WireMessage) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: p.buildMessages(transcript, history),
		Tools:    toolSchema(),
	}
}

// Complete runs one non-streaming round with the fixed tool schema.
func (p *OpenAIProvider) Complete(ctx context.Context, transcript string, history []models.WireMessage) (*Completion, error) {
	req := p.params(transcript, history)

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "complete"),
			zap.String("model", p.model),
			zap.Int("message_count", len(req.Messages)),
			zap.String("transcript_preview", logger.SanitizePreview(transcript)),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)

	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", "complete"),
				zap.String("model", p.model),
				zap.Error(err),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to complete chat: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to complete chat: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New(ErrNoChoicesInResponse)
	}

	msg := resp.Choices[0].Message
	completion := &Completion{
		Content: msg.Content,
		Raw:     json.RawMessage(resp.RawJSON()),
	}

	for _, tc := range msg.ToolCalls {
		completion.ToolCalls = append(completion.ToolCalls, models.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	if resp.Usage.TotalTokens > 0 {
		completion.Usage = &models.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
			Model:            p.model,
		}
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "complete"),
			zap.String("model", p.model),
			zap.Int("tool_call_count", len(completion.ToolCalls)),
			zap.String("content_preview", logger.SanitizePreview(completion.Content)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return completion, nil
}

// Stream runs one streaming round, forwarding every chunk through emit.
func (p *OpenAIProvider) Stream(ctx context.Context, transcript string, history []models.WireMessage, emit func(StreamChunk) error) (*models.TokenUsage, error) {
	req := p.params(transcript, history)
	req.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "stream"),
			zap.String("model", p.model),
			zap.Int("message_count", len(req.Messages)),
		)
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, req)
	defer func() {
		if err := stream.Close(); err != nil {
			_ = err
		}
	}()

	var usage *models.TokenUsage
	for stream.Next() {
		chunk := stream.Current()

		out := StreamChunk{Raw: json.RawMessage(chunk.RawJSON())}
		if chunk.Usage.TotalTokens > 0 {
			usage = &models.TokenUsage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
				Model:            p.model,
			}
			out.Usage = usage
		}

		if err := emit(out); err != nil {
			return usage, fmt.Errorf("failed to forward stream chunk: %w", err)
		}
	}

	if err := stream.Err(); err != nil {
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return usage, fmt.Errorf("stream failed: %w", apiErr)
		}
		return usage, fmt.Errorf("stream failed: %w", err)
	}

	return usage, nil
}

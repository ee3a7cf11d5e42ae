package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/voxtodo/voxtodo/internal/logger"
	"github.com/voxtodo/voxtodo/internal/middleware"
	"github.com/voxtodo/voxtodo/internal/models"
	"github.com/voxtodo/voxtodo/internal/queue"
	"github.com/voxtodo/voxtodo/internal/services/ai"
	"go.uber.org/zap"
)

// ChatHandler relays transcripts to the LLM provider and records token
// usage for quota accounting.
type ChatHandler struct {
	provider ai.Provider
	jobs     queue.JobQueue
	logger   *zap.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(provider ai.Provider, jobs queue.JobQueue, log *zap.Logger) *ChatHandler {
	return &ChatHandler{provider: provider, jobs: jobs, logger: log}
}

// RegisterRoutes registers chat routes
func (h *ChatHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/chat", h.Chat).Methods("POST")
	r.HandleFunc("/chat/stream", h.ChatStream).Methods("POST")
}

// ChatRequest is the transcript relay payload. Password is consumed by
// the identity middleware; it appears here so decoding tolerates it.
type ChatRequest struct {
	Transcript string               `json:"transcript"`
	History    []models.WireMessage `json:"history,omitempty"`
	Password   string               `json:"password,omitempty"`
}

func (h *ChatHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (*ChatRequest, models.Principal, bool) {
	principal, ok := middleware.PrincipalFromContext(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
		return nil, models.Principal{}, false
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return nil, models.Principal{}, false
	}
	if req.Transcript == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "transcript is required")
		return nil, models.Principal{}, false
	}

	return &req, principal, true
}

// Chat runs one non-streaming completion round. The provider's response
// body is relayed to the client unmodified; the client owns tool-call
// interpretation.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	req, principal, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	completion, err := h.provider.Complete(r.Context(), req.Transcript, req.History)
	if err != nil {
		h.logger.Error("chat_completion_failed",
			zap.String("principal_id", principal.UserID.String()),
			zap.String("error", logger.SanitizeError(err)))
		status := http.StatusBadGateway
		if ai.IsRateLimitError(err) {
			status = http.StatusTooManyRequests
		}
		respondJSONError(w, status, "Completion failed", "The language model request failed")
		return
	}

	h.recordUsage(r.Context(), principal, completion.Usage)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(completion.Raw); err != nil {
		h.logger.Warn("chat_response_write_failed", zap.String("error", logger.SanitizeError(err)))
	}
}

// ChatStream relays provider chunks as newline-delimited JSON as they
// arrive. Usage is recorded from the terminal accounting chunk.
func (h *ChatHandler) ChatStream(w http.ResponseWriter, r *http.Request) {
	req, principal, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, _ := w.(http.Flusher)

	wrote := false
	emit := func(chunk ai.StreamChunk) error {
		if len(chunk.Raw) == 0 {
			return nil
		}
		if _, err := w.Write(append(chunk.Raw, '\n')); err != nil {
			return err
		}
		wrote = true
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}

	usage, err := h.provider.Stream(r.Context(), req.Transcript, req.History, emit)
	if err != nil {
		h.logger.Error("chat_stream_failed",
			zap.String("principal_id", principal.UserID.String()),
			zap.String("error", logger.SanitizeError(err)))
		// Headers are already out once the first chunk was written, so
		// only pre-stream failures can carry a status code. Mid-stream
		// failures surface as a final error line instead.
		if !wrote {
			status := http.StatusBadGateway
			if ai.IsRateLimitError(err) {
				status = http.StatusTooManyRequests
			}
			respondJSONError(w, status, "Completion failed", "The language model request failed")
			return
		}
		errLine, _ := json.Marshal(map[string]string{"error": "The language model request failed"})
		if _, werr := w.Write(append(errLine, '\n')); werr == nil && flusher != nil {
			flusher.Flush()
		}
		return
	}

	h.recordUsage(r.Context(), principal, usage)
}

// recordUsage enqueues a usage-record job. Accounting is asynchronous so a
// slow queue never delays the chat response; a lost record under-counts
// rather than blocks.
func (h *ChatHandler) recordUsage(ctx context.Context, principal models.Principal, usage *models.TokenUsage) {
	if usage == nil || usage.TotalTokens == 0 {
		return
	}
	usage.PrincipalID = principal.UserID

	enqueueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := h.jobs.Enqueue(enqueueCtx, queue.NewUsageRecordJob(*usage)); err != nil {
		h.logger.Error("usage_enqueue_failed",
			zap.String("principal_id", principal.UserID.String()),
			zap.Int64("total_tokens", usage.TotalTokens),
			zap.String("error", logger.SanitizeError(err)))
	}
}

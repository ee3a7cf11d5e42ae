package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/voxtodo/voxtodo/internal/middleware"
	"github.com/voxtodo/voxtodo/internal/models"
	"github.com/voxtodo/voxtodo/internal/queue"
	"github.com/voxtodo/voxtodo/internal/services/ai"
	"go.uber.org/zap"
)

type fakeProvider struct {
	completion *ai.Completion
	chunks     []ai.StreamChunk
	usage      *models.TokenUsage
	err        error
}

func (f *fakeProvider) Complete(context.Context, string, []models.WireMessage) (*ai.Completion, error) {
	return f.completion, f.err
}

func (f *fakeProvider) Stream(_ context.Context, _ string, _ []models.WireMessage, emit func(ai.StreamChunk) error) (*models.TokenUsage, error) {
	for _, chunk := range f.chunks {
		if err := emit(chunk); err != nil {
			return nil, err
		}
	}
	return f.usage, f.err
}

type fakeJobQueue struct {
	mu   sync.Mutex
	jobs []*queue.Job
	err  error
}

func (f *fakeJobQueue) Enqueue(_ context.Context, job *queue.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeJobQueue) Consume(context.Context, int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}

func (f *fakeJobQueue) Close() error { return nil }

func (f *fakeJobQueue) HealthCheck(context.Context) error { return nil }

func (f *fakeJobQueue) enqueued() []*queue.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*queue.Job(nil), f.jobs...)
}

func chatRequest(t *testing.T, body string, principal *models.Principal) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	if principal != nil {
		r = middleware.WithPrincipal(r, *principal)
	}
	return r
}

func TestChatHandler_RequiresPrincipal(t *testing.T) {
	t.Parallel()

	h := NewChatHandler(&fakeProvider{}, &fakeJobQueue{}, zap.NewNop())
	rec := httptest.NewRecorder()
	h.Chat(rec, chatRequest(t, `{"transcript":"hi"}`, nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without principal, got %d", rec.Code)
	}
}

func TestChatHandler_ValidatesBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{"transcript":`},
		{name: "missing transcript", body: `{"history":[]}`},
		{name: "empty transcript", body: `{"transcript":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewChatHandler(&fakeProvider{}, &fakeJobQueue{}, zap.NewNop())
			p := models.BypassPrincipal()
			rec := httptest.NewRecorder()
			h.Chat(rec, chatRequest(t, tt.body, &p))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
			var envelope struct {
				Success bool `json:"success"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
				t.Fatalf("failed to decode error envelope: %v", err)
			}
			if envelope.Success {
				t.Error("expected success=false")
			}
		})
	}
}

func TestChatHandler_RelaysRawCompletion(t *testing.T) {
	t.Parallel()

	raw := `{"id":"cmpl_1","choices":[{"message":{"content":"done"}}]}`
	provider := &fakeProvider{completion: &ai.Completion{
		Raw:   json.RawMessage(raw),
		Usage: &models.TokenUsage{TotalTokens: 420, PromptTokens: 400, CompletionTokens: 20},
	}}
	jobs := &fakeJobQueue{}
	h := NewChatHandler(provider, jobs, zap.NewNop())

	user := &models.User{ID: uuid.New()}
	p := models.UserPrincipal(user)
	rec := httptest.NewRecorder()
	h.Chat(rec, chatRequest(t, `{"transcript":"add milk"}`, &p))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != raw {
		t.Errorf("expected raw provider body relayed verbatim, got %s", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}

	enqueued := jobs.enqueued()
	if len(enqueued) != 1 {
		t.Fatalf("expected 1 usage job, got %d", len(enqueued))
	}
	if enqueued[0].Type != queue.JobTypeUsageRecord {
		t.Errorf("expected usage_record job, got %s", enqueued[0].Type)
	}
	if enqueued[0].Usage.PrincipalID != user.ID {
		t.Errorf("expected usage stamped with the principal id")
	}
	if enqueued[0].Usage.TotalTokens != 420 {
		t.Errorf("expected 420 total tokens, got %d", enqueued[0].Usage.TotalTokens)
	}
}

func TestChatHandler_NoUsageNoJob(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{completion: &ai.Completion{Raw: json.RawMessage(`{}`)}}
	jobs := &fakeJobQueue{}
	h := NewChatHandler(provider, jobs, zap.NewNop())

	p := models.BypassPrincipal()
	rec := httptest.NewRecorder()
	h.Chat(rec, chatRequest(t, `{"transcript":"hello"}`, &p))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(jobs.enqueued()) != 0 {
		t.Error("expected no usage job when the provider omitted accounting")
	}
}

func TestChatHandler_ProviderFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "upstream failure",
			err:        errors.New("upstream exploded"),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "provider rate limited",
			err:        &ai.APIError{StatusCode: 429},
			wantStatus: http.StatusTooManyRequests,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			jobs := &fakeJobQueue{}
			h := NewChatHandler(&fakeProvider{err: tt.err}, jobs, zap.NewNop())

			p := models.BypassPrincipal()
			rec := httptest.NewRecorder()
			h.Chat(rec, chatRequest(t, `{"transcript":"hello"}`, &p))

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if len(jobs.enqueued()) != 0 {
				t.Error("expected no usage job on provider failure")
			}
		})
	}
}

func TestChatHandler_StreamRelaysChunks(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		chunks: []ai.StreamChunk{
			{Raw: json.RawMessage(`{"delta":"Creating"}`)},
			{Raw: json.RawMessage(`{"delta":" your list"}`)},
		},
		usage: &models.TokenUsage{TotalTokens: 77},
	}
	jobs := &fakeJobQueue{}
	h := NewChatHandler(provider, jobs, zap.NewNop())

	p := models.BypassPrincipal()
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/chat/stream", strings.NewReader(`{"transcript":"make a list"}`))
	r = middleware.WithPrincipal(r, p)
	h.ChatStream(rec, r)

	if ct := rec.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Errorf("expected ndjson content type, got %s", ct)
	}
	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 chunk lines, got %d: %q", len(lines), rec.Body.String())
	}
	for _, line := range lines {
		if !json.Valid([]byte(line)) {
			t.Errorf("expected each line to be valid JSON, got %q", line)
		}
	}

	enqueued := jobs.enqueued()
	if len(enqueued) != 1 || enqueued[0].Usage.TotalTokens != 77 {
		t.Errorf("expected terminal usage recorded, got %d jobs", len(enqueued))
	}
}

func TestChatHandler_StreamMidStreamFailureEmitsErrorLine(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		chunks: []ai.StreamChunk{
			{Raw: json.RawMessage(`{"delta":"Creating"}`)},
		},
		err: errors.New("upstream reset"),
	}
	jobs := &fakeJobQueue{}
	h := NewChatHandler(provider, jobs, zap.NewNop())

	p := models.BypassPrincipal()
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/chat/stream", strings.NewReader(`{"transcript":"make a list"}`))
	r = middleware.WithPrincipal(r, p)
	h.ChatStream(rec, r)

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected chunk plus error line, got %d lines: %q", len(lines), rec.Body.String())
	}
	var last struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &last); err != nil || last.Error == "" {
		t.Errorf("expected trailing error line, got %q", lines[1])
	}
	if len(jobs.enqueued()) != 0 {
		t.Error("expected no usage job after mid-stream failure")
	}
}

func TestChatHandler_StreamPreflightFailureGetsStatus(t *testing.T) {
	t.Parallel()

	h := NewChatHandler(&fakeProvider{err: errors.New("connect failed")}, &fakeJobQueue{}, zap.NewNop())

	p := models.BypassPrincipal()
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/chat/stream", strings.NewReader(`{"transcript":"hi"}`))
	r = middleware.WithPrincipal(r, p)
	h.ChatStream(rec, r)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502 when no chunk was written, got %d", rec.Code)
	}
}

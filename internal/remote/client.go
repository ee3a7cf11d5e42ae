// Package remote is the client-side gateway API surface: sign-in, chat
// relay and usage queries over HTTP.
package remote

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voxtodo/voxtodo/internal/chatctx"
	"github.com/voxtodo/voxtodo/internal/models"
)

const (
	// signInTimeout bounds the sign-in round trip. Chat calls carry no
	// client-side timeout at all; the model runs at its own pace.
	signInTimeout = 10 * time.Second
)

// Client talks to the gateway.
type Client struct {
	baseURL  string
	token    string
	password string
	http     *http.Client
}

// New creates a client for the gateway at baseURL. The underlying HTTP
// client deliberately has no timeout; per-call deadlines come from
// contexts where appropriate.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
	}
}

// SetToken attaches a bearer session token to subsequent requests.
func (c *Client) SetToken(token string) { c.token = token }

// SetPassword attaches the shared bypass password to chat requests.
func (c *Client) SetPassword(password string) { c.password = password }

// StatusError is a non-2xx gateway response, body preserved for the
// user-facing error surface.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Body)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// envelope is the gateway's standard response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func decodeEnvelope(data []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("unmarshal gateway envelope: %w", err)
	}
	if !env.Success {
		return fmt.Errorf("gateway error: %s", env.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("unmarshal gateway payload: %w", err)
	}
	return nil
}

// Credentials is the issued session after sign-in.
type Credentials struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// SignIn exchanges an Apple identity token for a gateway session. Bounded
// by a 10 second deadline.
func (c *Client) SignIn(ctx context.Context, identityToken, authorizationCode string) (*Credentials, error) {
	ctx, cancel := context.WithTimeout(ctx, signInTimeout)
	defer cancel()

	body := map[string]string{"identityToken": identityToken}
	if authorizationCode != "" {
		body["authorizationCode"] = authorizationCode
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/apple", body)
	if err != nil {
		return nil, err
	}
	data, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var creds Credentials
	if err := decodeEnvelope(data, &creds); err != nil {
		return nil, err
	}
	c.token = creds.Token
	return &creds, nil
}

// ChatResult is the parsed completion the processor consumes.
type ChatResult struct {
	Content   string
	ToolCalls []models.ToolCall
}

// completionBody is the slice of the provider completion shape the client
// reads; everything else passes through untouched.
type completionBody struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat runs one completion round. No client-side timeout is applied.
func (c *Client) Chat(ctx context.Context, request chatctx.Request) (*ChatResult, error) {
	if c.password != "" {
		request.Password = c.password
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/chat", request)
	if err != nil {
		return nil, err
	}
	data, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var body completionBody
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("unmarshal completion: %w", err)
	}
	if len(body.Choices) == 0 {
		return nil, fmt.Errorf("completion contained no choices")
	}

	msg := body.Choices[0].Message
	result := &ChatResult{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, models.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return result, nil
}

// ChatStream runs one streaming round, calling emit once per chunk line.
func (c *Client) ChatStream(ctx context.Context, request chatctx.Request, emit func(json.RawMessage) error) error {
	if c.password != "" {
		request.Password = c.password
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/chat/stream", request)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		chunk := make(json.RawMessage, len(line))
		copy(chunk, line)
		if err := emit(chunk); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

// TokenUsage fetches the authenticated user's trailing-30-day summary.
func (c *Client) TokenUsage(ctx context.Context) (*models.UsageSummary, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/user/token-usage", nil)
	if err != nil {
		return nil, err
	}
	data, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var summary models.UsageSummary
	if err := decodeEnvelope(data, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Profile fetches the authenticated user's account.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/user/profile", nil)
	if err != nil {
		return nil, err
	}
	data, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := decodeEnvelope(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

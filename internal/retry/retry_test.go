package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o deadline reached" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestDefaultShouldRetry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "context canceled", err: context.Canceled, want: false},
		{name: "wrapped context canceled", err: fmt.Errorf("op: %w", context.Canceled), want: false},
		{name: "net error", err: timeoutError{}, want: true},
		{name: "connection refused", err: errors.New("dial tcp 127.0.0.1:8080: connection refused"), want: true},
		{name: "connection reset", err: errors.New("read: connection reset by peer"), want: true},
		{name: "timeout text", err: errors.New("request timeout exceeded"), want: true},
		{name: "upstream 5xx text", err: errors.New("unexpected status 502"), want: true},
		{name: "http 5xx text", err: errors.New("http 503 from upstream"), want: true},
		{name: "client error is permanent", err: errors.New("unexpected status 400"), want: false},
		{name: "validation error is permanent", err: errors.New("title is required"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DefaultShouldRetry(tt.err); got != tt.want {
				t.Errorf("DefaultShouldRetry(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestOptions_Delay(t *testing.T) {
	t.Parallel()

	opts := Options{BaseDelay: time.Second, MaxDelay: 10 * time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: time.Second},
		{attempt: 1, want: 2 * time.Second},
		{attempt: 2, want: 4 * time.Second},
		{attempt: 3, want: 8 * time.Second},
		{attempt: 4, want: 10 * time.Second},  // capped
		{attempt: 40, want: 10 * time.Second}, // shift overflow capped
	}

	for _, tt := range tests {
		if got := opts.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	t.Parallel()

	attempts := 0
	op := func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("connection refused")
		}
		return nil
	}

	opts := Options{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	if err := Do(context.Background(), op, opts); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestDo_PermanentErrorNotRetried(t *testing.T) {
	t.Parallel()

	attempts := 0
	permanent := errors.New("unexpected status 401")
	op := func(context.Context) error {
		attempts++
		return permanent
	}

	opts := Options{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	err := Do(context.Background(), op, opts)
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error returned, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestDo_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	attempts := 0
	transient := errors.New("connection reset by peer")
	op := func(context.Context) error {
		attempts++
		return transient
	}

	opts := Options{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	err := Do(context.Background(), op, opts)
	if !errors.Is(err, transient) {
		t.Fatalf("expected last error returned, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected initial attempt plus 2 retries, got %d", attempts)
	}
}

func TestDo_ContextCancelStopsLoop(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	op := func(context.Context) error {
		attempts++
		cancel()
		return errors.New("connection refused")
	}

	opts := Options{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}
	start := time.Now()
	err := Do(ctx, op, opts)
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt after cancellation, got %d", attempts)
	}
	if time.Since(start) > time.Second {
		t.Error("cancelled loop must not wait out the backoff")
	}
}

func TestDo_CancelledBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := Do(ctx, func(context.Context) error {
		called = true
		return nil
	}, DefaultOptions())

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if called {
		t.Error("op must not run when the context is already cancelled")
	}
}

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/voxtodo/voxtodo/internal/models"
	"go.uber.org/zap"
)

type fakeUsageSummer struct {
	used int64
	err  error
}

func (f *fakeUsageSummer) SumSince(_ context.Context, _ uuid.UUID, _ time.Time) (int64, error) {
	return f.used, f.err
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func requestWithPrincipal(p models.Principal) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/chat", nil)
	return WithPrincipal(r, p)
}

func TestQuota_EnforcesMonthlyLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		used       int64
		wantStatus int
		wantCalled bool
	}{
		{
			name:       "no usage passes",
			used:       0,
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
		{
			name:       "one token under the limit passes",
			used:       models.MonthlyTokenLimit - 1,
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
		{
			name:       "exactly at the limit rejected",
			used:       models.MonthlyTokenLimit,
			wantStatus: http.StatusTooManyRequests,
			wantCalled: false,
		},
		{
			name:       "over the limit rejected",
			used:       models.MonthlyTokenLimit + 50_000,
			wantStatus: http.StatusTooManyRequests,
			wantCalled: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			mw := Quota(&fakeUsageSummer{used: tt.used}, zap.NewNop())
			handler := mw(okHandler(&called))

			user := &models.User{ID: uuid.New(), Email: "user@example.com"}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, requestWithPrincipal(models.UserPrincipal(user)))

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if called != tt.wantCalled {
				t.Errorf("expected handler called=%v, got %v", tt.wantCalled, called)
			}
		})
	}
}

func TestQuota_BypassPrincipalExempt(t *testing.T) {
	t.Parallel()

	called := false
	// Usage far over the limit; a bypass principal must still pass.
	mw := Quota(&fakeUsageSummer{used: 10 * models.MonthlyTokenLimit}, zap.NewNop())
	handler := mw(okHandler(&called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithPrincipal(models.BypassPrincipal()))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for bypass principal, got %d", rec.Code)
	}
	if !called {
		t.Error("expected handler called for bypass principal")
	}
}

func TestQuota_MissingPrincipalRejected(t *testing.T) {
	t.Parallel()

	called := false
	mw := Quota(&fakeUsageSummer{}, zap.NewNop())
	handler := mw(okHandler(&called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without principal, got %d", rec.Code)
	}
	if called {
		t.Error("handler must not run without a principal")
	}
}

func TestQuota_LookupFailure(t *testing.T) {
	t.Parallel()

	called := false
	mw := Quota(&fakeUsageSummer{err: errors.New("pq: connection refused")}, zap.NewNop())
	handler := mw(okHandler(&called))

	user := &models.User{ID: uuid.New()}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithPrincipal(models.UserPrincipal(user)))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 on lookup failure, got %d", rec.Code)
	}
	if called {
		t.Error("handler must not run when the quota lookup fails")
	}

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body.Success {
		t.Error("expected success=false in error envelope")
	}
	if body.Error == "" {
		t.Error("expected error message in envelope")
	}
}

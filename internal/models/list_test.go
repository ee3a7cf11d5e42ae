package models

import (
	"testing"
	"time"
)

func TestTodo_HasActiveReminder(t *testing.T) {
	t.Parallel()

	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		todo Todo
		want bool
	}{
		{name: "no due date", todo: Todo{}, want: false},
		{name: "future due date", todo: Todo{DueDate: &future}, want: true},
		{name: "past due date", todo: Todo{DueDate: &past}, want: false},
		{name: "completed with future due date", todo: Todo{Completed: true, DueDate: &future}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.todo.HasActiveReminder(now); got != tt.want {
				t.Errorf("HasActiveReminder = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSession_Expired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	live := Session{ExpiresAt: now.Add(time.Hour)}
	if live.Expired(now) {
		t.Error("expected session with future expiry to be live")
	}
	dead := Session{ExpiresAt: now.Add(-time.Second)}
	if !dead.Expired(now) {
		t.Error("expected session past expiry to be expired")
	}
}

func TestBypassPrincipalQuotaExempt(t *testing.T) {
	t.Parallel()

	p := BypassPrincipal()
	if !p.QuotaExempt() {
		t.Error("bypass principal must be quota exempt")
	}
	if p.UserID != BypassPrincipalID {
		t.Errorf("expected fixed bypass id, got %s", p.UserID)
	}

	user := UserPrincipal(&User{})
	if user.QuotaExempt() {
		t.Error("user principal must not be quota exempt")
	}
}

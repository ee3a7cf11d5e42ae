package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/voxtodo/voxtodo/internal/models"
)

// UsageSummer is the quota middleware's view of usage storage. An
// interface so quota tests can run against a fake instead of Postgres.
type UsageSummer interface {
	SumSince(ctx context.Context, principalID uuid.UUID, since time.Time) (int64, error)
}

// SessionLookup is the auth middleware's view of session storage.
type SessionLookup interface {
	GetLiveByToken(ctx context.Context, token string) (*models.Session, error)
}

// UserLookup resolves session user ids to user rows.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Ensure concrete types implement the interfaces
var (
	_ UsageSummer   = (*TokenUsageRepository)(nil)
	_ SessionLookup = (*SessionRepository)(nil)
	_ UserLookup    = (*UserRepository)(nil)
)

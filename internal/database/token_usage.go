package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/voxtodo/voxtodo/internal/models"
)

// TokenUsageRepository handles token usage rows. Usage is keyed by
// principal id, which is either a user id or models.BypassPrincipalID.
//
// Schema:
//
//	token_usage(id uuid pk, principal_id uuid, prompt_tokens bigint,
//	            completion_tokens bigint, total_tokens bigint,
//	            model text, created_at timestamptz)
type TokenUsageRepository struct {
	db *DB
}

// NewTokenUsageRepository creates a new token usage repository.
func NewTokenUsageRepository(db *DB) *TokenUsageRepository {
	return &TokenUsageRepository{db: db}
}

// Record persists one completion's usage.
func (r *TokenUsageRepository) Record(ctx context.Context, usage *models.TokenUsage) error {
	if usage.ID == uuid.Nil {
		usage.ID = uuid.New()
	}
	query := `
		INSERT INTO token_usage (id, principal_id, prompt_tokens, completion_tokens, total_tokens, model, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		usage.ID,
		usage.PrincipalID,
		usage.PromptTokens,
		usage.CompletionTokens,
		usage.TotalTokens,
		usage.Model,
		time.Now(),
	).Scan(&usage.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record token usage: %w", err)
	}

	return nil
}

// SumSince returns the sum of total_tokens for a principal over rows newer
// than the cutoff. This is the authoritative quota input.
func (r *TokenUsageRepository) SumSince(ctx context.Context, principalID uuid.UUID, since time.Time) (int64, error) {
	var total int64
	query := `
		SELECT COALESCE(SUM(total_tokens), 0)
		FROM token_usage
		WHERE principal_id = $1 AND created_at > $2
	`

	err := r.db.QueryRowContext(ctx, query, principalID, since).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum token usage: %w", err)
	}

	return total, nil
}

// CountSince returns how many completions a principal recorded after the
// cutoff. Used by the bypass stats endpoint.
func (r *TokenUsageRepository) CountSince(ctx context.Context, principalID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	query := `
		SELECT COUNT(*)
		FROM token_usage
		WHERE principal_id = $1 AND created_at > $2
	`

	err := r.db.QueryRowContext(ctx, query, principalID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count token usage: %w", err)
	}

	return count, nil
}

// DeleteOlderThan prunes usage rows past the retention horizon, returning
// the number of rows removed.
func (r *TokenUsageRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM token_usage WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune token usage: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

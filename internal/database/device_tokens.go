package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/voxtodo/voxtodo/internal/models"
)

// DeviceTokenRepository handles registered push targets. Delivery is
// handled outside this service; these rows only record where reminders
// could be sent.
//
// Schema:
//
//	device_tokens(push_token text pk, user_id uuid, platform text,
//	              is_active boolean, created_at timestamptz,
//	              updated_at timestamptz)
type DeviceTokenRepository struct {
	db *DB
}

// NewDeviceTokenRepository creates a new device token repository.
func NewDeviceTokenRepository(db *DB) *DeviceTokenRepository {
	return &DeviceTokenRepository{db: db}
}

// Upsert registers a push token for a user, reactivating it if it was
// previously deactivated. Idempotent per push token.
func (r *DeviceTokenRepository) Upsert(ctx context.Context, token *models.DeviceToken) error {
	query := `
		INSERT INTO device_tokens (push_token, user_id, platform, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, $4, $4)
		ON CONFLICT (push_token) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			platform = EXCLUDED.platform,
			is_active = TRUE,
			updated_at = EXCLUDED.updated_at
		RETURNING is_active, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		token.PushToken,
		token.UserID,
		token.Platform,
		time.Now(),
	).Scan(&token.IsActive, &token.CreatedAt, &token.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert device token: %w", err)
	}

	return nil
}

// GetActiveByUser returns the active push targets for a user.
func (r *DeviceTokenRepository) GetActiveByUser(ctx context.Context, userID uuid.UUID) ([]*models.DeviceToken, error) {
	query := `
		SELECT push_token, user_id, platform, is_active, created_at, updated_at
		FROM device_tokens
		WHERE user_id = $1 AND is_active = TRUE
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*models.DeviceToken
	for rows.Next() {
		t := &models.DeviceToken{}
		if err := rows.Scan(&t.PushToken, &t.UserID, &t.Platform, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating device tokens: %w", err)
	}

	return tokens, nil
}

// Deactivate marks a push token inactive without deleting the row.
func (r *DeviceTokenRepository) Deactivate(ctx context.Context, pushToken string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE device_tokens SET is_active = FALSE, updated_at = $2 WHERE push_token = $1`,
		pushToken, time.Now())
	if err != nil {
		return fmt.Errorf("failed to deactivate device token: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("device token not found")
	}
	return nil
}

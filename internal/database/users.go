package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/voxtodo/voxtodo/internal/models"
)

// UserRepository handles user rows.
//
// Schema:
//
//	users(id uuid pk, apple_id text unique, email text, name text,
//	      created_at timestamptz, updated_at timestamptz)
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert creates a user keyed by Apple subject, or refreshes email/name on
// an existing row. The stored row is returned either way.
func (r *UserRepository) Upsert(ctx context.Context, appleID, email string, name *string) (*models.User, error) {
	user := &models.User{}
	query := `
		INSERT INTO users (id, apple_id, email, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (apple_id) DO UPDATE SET
			email = EXCLUDED.email,
			name = COALESCE(EXCLUDED.name, users.name),
			updated_at = EXCLUDED.updated_at
		RETURNING id, apple_id, email, name, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		uuid.New(),
		appleID,
		email,
		name,
		time.Now(),
	).Scan(&user.ID, &user.AppleID, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, apple_id, email, name, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.AppleID,
		&user.Email,
		&user.Name,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetByAppleID retrieves a user by Apple subject.
func (r *UserRepository) GetByAppleID(ctx context.Context, appleID string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, apple_id, email, name, created_at, updated_at
		FROM users
		WHERE apple_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, appleID).Scan(
		&user.ID,
		&user.AppleID,
		&user.Email,
		&user.Name,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by apple id: %w", err)
	}

	return user, nil
}

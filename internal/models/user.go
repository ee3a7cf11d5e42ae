package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account created through Apple Sign-In.
type User struct {
	ID        uuid.UUID `json:"id"`
	AppleID   string    `json:"apple_id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Session binds an issued token to a user with an expiry, so tokens can be
// revoked independently of signature validity.
type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// DeviceToken is a registered push target for a user. Delivery mechanics
// live outside this service; rows are stored for the notification relay.
type DeviceToken struct {
	PushToken string    `json:"push_token"`
	UserID    uuid.UUID `json:"user_id"`
	Platform  string    `json:"platform"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	// TTL is how long an issued session token is valid.
	TTL = 7 * 24 * time.Hour
	// issuer is the iss claim on session tokens.
	issuer = "voxtodo-gateway"
)

// TokenService issues and verifies HMAC-signed session tokens. Signature
// validity alone does not authenticate a request; callers must also check
// for a live session row.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a token service with the shared signing secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

// Issue signs a new session token for a user, returning the token string
// and its expiry.
func (s *TokenService) Issue(userID uuid.UUID) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(TTL)

	token, err := jwt.NewBuilder().
		Issuer(issuer).
		Subject(userID.String()).
		IssuedAt(now).
		Expiration(expires).
		Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to build session token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, s.secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return string(signed), expires, nil
}

// Verify checks signature, issuer and expiry, and returns the user id the
// token was issued for.
func (s *TokenService) Verify(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.HS256, s.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to verify session token: %w", err)
	}

	userID, err := uuid.Parse(token.Subject())
	if err != nil {
		return uuid.Nil, fmt.Errorf("session token has malformed subject: %w", err)
	}

	return userID, nil
}

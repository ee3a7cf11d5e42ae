package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/voxtodo/voxtodo/internal/database"
	"github.com/voxtodo/voxtodo/internal/logger"
	"github.com/voxtodo/voxtodo/internal/models"
	"github.com/voxtodo/voxtodo/internal/services/apple"
	"github.com/voxtodo/voxtodo/internal/services/session"
	"go.uber.org/zap"
)

// IdentityVerifier validates Apple identity tokens. Satisfied by
// apple.Verifier; an interface so handler tests can fake sign-in.
type IdentityVerifier interface {
	Verify(ctx context.Context, identityToken string) (*apple.Identity, error)
}

// CodeExchanger performs the optional authorization-code exchange.
type CodeExchanger interface {
	Enabled() bool
	ExchangeCode(ctx context.Context, code string) (*oauthToken, error)
}

// oauthToken is the narrow slice of the exchange result the handler needs.
type oauthToken struct {
	AccessToken string
}

// appleExchanger adapts apple.Client to CodeExchanger.
type appleExchanger struct {
	client *apple.Client
}

func (a appleExchanger) Enabled() bool { return a.client.Enabled() }

func (a appleExchanger) ExchangeCode(ctx context.Context, code string) (*oauthToken, error) {
	tok, err := a.client.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return &oauthToken{AccessToken: tok.AccessToken}, nil
}

// AuthHandler handles Sign in with Apple
type AuthHandler struct {
	verifier  IdentityVerifier
	exchanger CodeExchanger
	users     *database.UserRepository
	sessions  *database.SessionRepository
	tokens    *session.TokenService
	logger    *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(verifier IdentityVerifier, client *apple.Client, users *database.UserRepository, sessions *database.SessionRepository, tokens *session.TokenService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		verifier:  verifier,
		exchanger: appleExchanger{client: client},
		users:     users,
		sessions:  sessions,
		tokens:    tokens,
		logger:    log,
	}
}

// RegisterRoutes registers auth routes on the given router
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/auth/apple", h.SignInWithApple).Methods("POST")
}

// SignInRequest is the Sign in with Apple payload.
type SignInRequest struct {
	IdentityToken     string  `json:"identityToken"`
	AuthorizationCode string  `json:"authorizationCode,omitempty"`
	Email             string  `json:"email,omitempty"`
	FullName          *string `json:"fullName,omitempty"`
}

// SignInResponse carries the issued session.
type SignInResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// SignInWithApple verifies an Apple identity token, upserts the user and
// issues a session token. Every failure mode returns the same generic 400
// so callers learn nothing about which step rejected them.
func (h *AuthHandler) SignInWithApple(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IdentityToken == "" {
		h.rejectSignIn(w, "malformed sign-in request", err)
		return
	}

	identity, err := h.verifier.Verify(r.Context(), req.IdentityToken)
	if err != nil {
		h.rejectSignIn(w, "identity token verification failed", err)
		return
	}

	// The code exchange is secondary validation. Apple only hands out
	// short-lived codes, so a failed exchange is logged and ignored.
	if req.AuthorizationCode != "" && h.exchanger.Enabled() {
		if _, err := h.exchanger.ExchangeCode(r.Context(), req.AuthorizationCode); err != nil {
			h.logger.Warn("apple_code_exchange_failed", zap.String("error", logger.SanitizeError(err)))
		}
	}

	// Email is only present in the token on first sign-in; the request
	// body may carry it on later ones.
	email := identity.Email
	if email == "" {
		email = req.Email
	}

	user, err := h.users.Upsert(r.Context(), identity.Subject, email, req.FullName)
	if err != nil {
		h.rejectSignIn(w, "user upsert failed", err)
		return
	}

	tokenString, expiresAt, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.rejectSignIn(w, "token issue failed", err)
		return
	}

	sess := &models.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     tokenString,
		ExpiresAt: expiresAt,
	}
	if err := h.sessions.Create(r.Context(), sess); err != nil {
		h.rejectSignIn(w, "session create failed", err)
		return
	}

	h.logger.Info("apple_sign_in", zap.String("user_id", user.ID.String()))
	respondJSON(w, http.StatusOK, SignInResponse{
		Token:     tokenString,
		ExpiresAt: expiresAt,
		User:      user,
	})
}

func (h *AuthHandler) rejectSignIn(w http.ResponseWriter, reason string, err error) {
	fields := []zap.Field{zap.String("reason", reason)}
	if err != nil {
		fields = append(fields, zap.String("error", logger.SanitizeError(err)))
	}
	h.logger.Info("apple_sign_in_rejected", fields...)
	respondJSONError(w, http.StatusBadRequest, "Authentication failed", "Authentication failed")
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/voxtodo/voxtodo/internal/database"
	"github.com/voxtodo/voxtodo/internal/logger"
	"github.com/voxtodo/voxtodo/internal/middleware"
	"github.com/voxtodo/voxtodo/internal/models"
	"github.com/voxtodo/voxtodo/internal/validation"
	"go.uber.org/zap"
)

// UserHandler serves authenticated per-user endpoints.
type UserHandler struct {
	usage        database.UsageSummer
	deviceTokens *database.DeviceTokenRepository
	logger       *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(usage database.UsageSummer, deviceTokens *database.DeviceTokenRepository, log *zap.Logger) *UserHandler {
	return &UserHandler{usage: usage, deviceTokens: deviceTokens, logger: log}
}

// RegisterRoutes registers user routes. The router must already carry the
// auth middleware.
func (h *UserHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/user/profile", h.GetProfile).Methods("GET")
	r.HandleFunc("/user/token-usage", h.GetTokenUsage).Methods("GET")
	r.HandleFunc("/user/device-token", h.RegisterDeviceToken).Methods("POST")
}

// GetProfile returns the authenticated user's account.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r)
	if !ok || principal.User == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, principal.User)
}

// GetTokenUsage returns the trailing-30-day usage summary.
func (h *UserHandler) GetTokenUsage(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	used, err := h.usage.SumSince(r.Context(), principal.UserID, models.QuotaWindowStart())
	if err != nil {
		h.logger.Error("usage_summary_failed",
			zap.String("principal_id", principal.UserID.String()),
			zap.String("error", logger.SanitizeError(err)))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load token usage")
		return
	}

	respondJSON(w, http.StatusOK, models.Summarize(used))
}

// DeviceTokenRequest registers a push target.
type DeviceTokenRequest struct {
	DeviceToken string `json:"deviceToken" validate:"required"`
	Platform    string `json:"platform" validate:"required,device_platform"`
}

// RegisterDeviceToken stores or reactivates a device push token.
func (h *UserHandler) RegisterDeviceToken(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req DeviceTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "deviceToken and a platform of 'ios' or 'macos' are required")
		return
	}

	token := &models.DeviceToken{
		PushToken: req.DeviceToken,
		UserID:    principal.UserID,
		Platform:  req.Platform,
		IsActive:  true,
	}
	if err := h.deviceTokens.Upsert(r.Context(), token); err != nil {
		h.logger.Error("device_token_upsert_failed",
			zap.String("user_id", principal.UserID.String()),
			zap.String("error", logger.SanitizeError(err)))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to register device token")
		return
	}

	respondJSON(w, http.StatusOK, token)
}

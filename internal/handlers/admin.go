package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/voxtodo/voxtodo/internal/database"
	"github.com/voxtodo/voxtodo/internal/logger"
	"github.com/voxtodo/voxtodo/internal/models"
	"go.uber.org/zap"
)

// AdminHandler serves password-protected operational endpoints.
type AdminHandler struct {
	bypassPassword string
	usage          *database.TokenUsageRepository
	logger         *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(bypassPassword string, usage *database.TokenUsageRepository, log *zap.Logger) *AdminHandler {
	return &AdminHandler{bypassPassword: bypassPassword, usage: usage, logger: log}
}

// RegisterRoutes registers admin routes
func (h *AdminHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/admin/password-bypass-usage", h.PasswordBypassUsage).Methods("POST")
}

// BypassUsageRequest carries the shared password under a deliberately
// terse key.
type BypassUsageRequest struct {
	P string `json:"p"`
}

// BypassUsageResponse reports aggregate usage under the bypass identity.
type BypassUsageResponse struct {
	models.UsageSummary
	Requests30Days int64 `json:"requests30Days"`
}

// PasswordBypassUsage reports how much the shared bypass password has been
// used in the trailing window. The caller must present the password itself.
func (h *AdminHandler) PasswordBypassUsage(w http.ResponseWriter, r *http.Request) {
	if h.bypassPassword == "" {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Password bypass is not enabled")
		return
	}

	var req BypassUsageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.P), []byte(h.bypassPassword)) != 1 {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Invalid password")
		return
	}

	since := models.QuotaWindowStart()
	used, err := h.usage.SumSince(r.Context(), models.BypassPrincipalID, since)
	if err != nil {
		h.logger.Error("bypass_usage_sum_failed", zap.String("error", logger.SanitizeError(err)))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load bypass usage")
		return
	}
	requests, err := h.usage.CountSince(r.Context(), models.BypassPrincipalID, since)
	if err != nil {
		h.logger.Error("bypass_usage_count_failed", zap.String("error", logger.SanitizeError(err)))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load bypass usage")
		return
	}

	respondJSON(w, http.StatusOK, BypassUsageResponse{
		UsageSummary:   models.Summarize(used),
		Requests30Days: requests,
	})
}

package middleware

import (
	"net/http"

	"github.com/voxtodo/voxtodo/internal/database"
	"github.com/voxtodo/voxtodo/internal/models"
	"go.uber.org/zap"
)

// Quota rejects requests from principals whose rolling 30-day token usage
// has already reached the monthly limit. A request that starts under the
// limit may finish over it; the overage is only charged against the next
// request. Bypass principals are tracked but never rejected. Must run
// after Identity.
func Quota(usage database.UsageSummer, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r)
			if !ok {
				respondError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if p.QuotaExempt() {
				next.ServeHTTP(w, r)
				return
			}

			used, err := usage.SumSince(r.Context(), p.UserID, models.QuotaWindowStart())
			if err != nil {
				logger.Error("quota_lookup_failed",
					zap.String("principal_id", p.UserID.String()),
					zap.Error(err))
				respondError(w, http.StatusInternalServerError, "Failed to check token usage")
				return
			}

			if used >= models.MonthlyTokenLimit {
				logger.Info("quota_exceeded",
					zap.String("principal_id", p.UserID.String()),
					zap.Int64("used", used))
				respondError(w, http.StatusTooManyRequests, "Monthly token limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

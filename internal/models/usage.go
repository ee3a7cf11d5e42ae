package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	// MonthlyTokenLimit is the trailing-30-day token cap per principal.
	MonthlyTokenLimit = 1_000_000
	// QuotaWindow is the trailing window over which usage is summed.
	QuotaWindow = 30 * 24 * time.Hour
)

// QuotaWindowStart returns the beginning of the current trailing window.
func QuotaWindowStart() time.Time {
	return time.Now().Add(-QuotaWindow)
}

// TokenUsage is one recorded completion's token consumption.
type TokenUsage struct {
	ID               uuid.UUID `json:"id"`
	PrincipalID      uuid.UUID `json:"principal_id"`
	PromptTokens     int64     `json:"prompt_tokens"`
	CompletionTokens int64     `json:"completion_tokens"`
	TotalTokens      int64     `json:"total_tokens"`
	Model            string    `json:"model"`
	CreatedAt        time.Time `json:"created_at"`
}

// UsageSummary is the per-principal view returned by the usage endpoint.
type UsageSummary struct {
	Usage30Days     int64   `json:"usage30Days"`
	Limit           int64   `json:"limit"`
	RemainingTokens int64   `json:"remainingTokens"`
	PercentageUsed  float64 `json:"percentageUsed"`
}

// Summarize builds a UsageSummary from a trailing-30-day total.
func Summarize(used int64) UsageSummary {
	remaining := int64(MonthlyTokenLimit) - used
	if remaining < 0 {
		remaining = 0
	}
	return UsageSummary{
		Usage30Days:     used,
		Limit:           MonthlyTokenLimit,
		RemainingTokens: remaining,
		PercentageUsed:  float64(used) / float64(MonthlyTokenLimit) * 100,
	}
}

// UsageSnapshot is the client-side mirror of the gateway's usage state.
// Never authoritative; quota enforcement happens server-side only.
type UsageSnapshot struct {
	RemainingTokens int64     `json:"remaining_tokens"`
	TotalUsed       int64     `json:"total_used"`
	MonthlyLimit    int64     `json:"monthly_limit"`
	LastUpdated     time.Time `json:"last_updated"`
}

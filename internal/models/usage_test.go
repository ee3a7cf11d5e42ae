package models

import (
	"testing"
	"time"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		used          int64
		wantRemaining int64
		wantPct       float64
	}{
		{name: "no usage", used: 0, wantRemaining: MonthlyTokenLimit, wantPct: 0},
		{name: "half used", used: MonthlyTokenLimit / 2, wantRemaining: MonthlyTokenLimit / 2, wantPct: 50},
		{name: "at limit", used: MonthlyTokenLimit, wantRemaining: 0, wantPct: 100},
		{name: "over limit clamps remaining", used: MonthlyTokenLimit + 250_000, wantRemaining: 0, wantPct: 125},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Summarize(tt.used)
			if got.Usage30Days != tt.used {
				t.Errorf("Usage30Days = %d, want %d", got.Usage30Days, tt.used)
			}
			if got.Limit != MonthlyTokenLimit {
				t.Errorf("Limit = %d, want %d", got.Limit, int64(MonthlyTokenLimit))
			}
			if got.RemainingTokens != tt.wantRemaining {
				t.Errorf("RemainingTokens = %d, want %d", got.RemainingTokens, tt.wantRemaining)
			}
			if got.PercentageUsed != tt.wantPct {
				t.Errorf("PercentageUsed = %v, want %v", got.PercentageUsed, tt.wantPct)
			}
		})
	}
}

func TestQuotaWindowStart(t *testing.T) {
	t.Parallel()

	start := QuotaWindowStart()
	want := time.Now().Add(-QuotaWindow)
	if start.Before(want.Add(-time.Minute)) || start.After(want.Add(time.Minute)) {
		t.Errorf("QuotaWindowStart() = %v, want near %v", start, want)
	}
}

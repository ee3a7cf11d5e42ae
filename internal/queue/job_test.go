package queue

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/voxtodo/voxtodo/internal/models"
)

func TestNewUsageRecordJob(t *testing.T) {
	t.Parallel()

	usage := models.TokenUsage{
		ID:               uuid.New(),
		PrincipalID:      uuid.New(),
		PromptTokens:     500,
		CompletionTokens: 120,
		TotalTokens:      620,
		Model:            "gpt-4o-mini",
	}
	job := NewUsageRecordJob(usage)

	if job.Type != JobTypeUsageRecord {
		t.Errorf("expected usage_record type, got %s", job.Type)
	}
	if job.PrincipalID != usage.PrincipalID {
		t.Error("expected principal id copied from usage")
	}
	if job.Usage == nil || job.Usage.TotalTokens != 620 {
		t.Error("expected usage payload attached")
	}
	if job.MaxRetries != 3 {
		t.Errorf("expected 3 max retries, got %d", job.MaxRetries)
	}
	if job.ID == uuid.Nil {
		t.Error("expected generated job id")
	}
}

func TestNewUsagePruneJob(t *testing.T) {
	t.Parallel()

	job := NewUsagePruneJob()
	if job.Type != JobTypeUsagePrune {
		t.Errorf("expected usage_prune type, got %s", job.Type)
	}
	if job.Usage != nil {
		t.Error("prune jobs carry no usage payload")
	}
}

func TestJob_RetryAccounting(t *testing.T) {
	t.Parallel()

	job := NewUsageRecordJob(models.TokenUsage{TotalTokens: 1})

	for i := 0; i < job.MaxRetries; i++ {
		if !job.CanRetry() {
			t.Fatalf("expected retry %d allowed", i)
		}
		job.IncrementRetry()
	}
	if job.CanRetry() {
		t.Errorf("expected retries exhausted after %d attempts", job.MaxRetries)
	}
	if job.RetryCount != job.MaxRetries {
		t.Errorf("expected retry count %d, got %d", job.MaxRetries, job.RetryCount)
	}
}

func TestJob_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	job := NewUsageRecordJob(models.TokenUsage{PrincipalID: uuid.New(), TotalTokens: 99})
	data, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded Job
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.ID != job.ID || decoded.Type != job.Type {
		t.Error("identity fields lost in round trip")
	}
	if decoded.Usage == nil || decoded.Usage.TotalTokens != 99 {
		t.Error("usage payload lost in round trip")
	}
}

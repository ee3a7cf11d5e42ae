package queue

import (
	"time"

	"github.com/google/uuid"
	"github.com/voxtodo/voxtodo/internal/models"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeUsageRecord persists one completion's token usage.
	JobTypeUsageRecord JobType = "usage_record"
	// JobTypeUsagePrune deletes usage rows that have aged out of the
	// trailing quota window.
	JobTypeUsagePrune JobType = "usage_prune"
)

// Job represents a job in the queue
type Job struct {
	ID          uuid.UUID          `json:"id"`
	Type        JobType            `json:"type"`
	PrincipalID uuid.UUID          `json:"principal_id"`
	Usage       *models.TokenUsage `json:"usage,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	RetryCount  int                `json:"retry_count"`
	MaxRetries  int                `json:"max_retries"`
}

// NewUsageRecordJob builds a job that records one completion's usage.
func NewUsageRecordJob(usage models.TokenUsage) *Job {
	return &Job{
		ID:          uuid.New(),
		Type:        JobTypeUsageRecord,
		PrincipalID: usage.PrincipalID,
		Usage:       &usage,
		CreatedAt:   time.Now(),
		MaxRetries:  3,
	}
}

// NewUsagePruneJob builds a job that prunes aged-out usage rows.
func NewUsagePruneJob() *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       JobTypeUsagePrune,
		CreatedAt:  time.Now(),
		MaxRetries: 3,
	}
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}

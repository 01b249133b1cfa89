package domain

import (
	"fmt"
	"time"
)

// IngestJobStatus represents the status of a detached process-all run
type IngestJobStatus string

const (
	IngestJobStatusPending   IngestJobStatus = "pending"
	IngestJobStatusRunning   IngestJobStatus = "running"
	IngestJobStatusCompleted IngestJobStatus = "completed"
	IngestJobStatusFailed    IngestJobStatus = "failed"
)

// IngestJob tracks progress of a process-all ingestion run. Counters only
// ever grow; callers observe progress by polling, never by blocking.
type IngestJob struct {
	ID          string
	OwnerID     string
	Status      IngestJobStatus
	Total       int32
	Processed   int32
	Failed      int32
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// NewIngestJob creates a pending IngestJob instance
func NewIngestJob(id, ownerID string, createdAt time.Time) *IngestJob {
	return &IngestJob{
		ID:        id,
		OwnerID:   ownerID,
		Status:    IngestJobStatusPending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// IsTerminal reports whether the job will receive no further updates
func (j *IngestJob) IsTerminal() bool {
	return j.Status == IngestJobStatusCompleted || j.Status == IngestJobStatusFailed
}

// ValidateIngestJob validates an IngestJob instance
func ValidateIngestJob(j *IngestJob) error {
	if j == nil {
		return fmt.Errorf("ingest job cannot be nil")
	}

	if j.ID == "" {
		return fmt.Errorf("ingest job ID is required")
	}

	if j.OwnerID == "" {
		return fmt.Errorf("ingest job OwnerID is required")
	}

	if !isValidIngestJobStatus(j.Status) {
		return fmt.Errorf("ingest job Status is invalid: %s", j.Status)
	}

	if j.Processed < 0 || j.Failed < 0 {
		return fmt.Errorf("ingest job counters cannot be negative")
	}

	return nil
}

func isValidIngestJobStatus(s IngestJobStatus) bool {
	switch s {
	case IngestJobStatusPending, IngestJobStatusRunning,
		IngestJobStatusCompleted, IngestJobStatusFailed:
		return true
	}
	return false
}

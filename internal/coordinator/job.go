package coordinator

import (
	"time"

	"github.com/google/uuid"

	"github.com/compactd/compactd/internal/bridge"
)

// JobKind distinguishes the two operations the engine can run.
type JobKind string

const (
	JobKindCompression   JobKind = "compression"
	JobKindDecompression JobKind = "decompression"
)

// JobStatus is the lifecycle state of the job occupying the slot.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

func StringToJobStatus(s string) JobStatus {
	switch s {
	case string(JobStatusRunning):
		return JobStatusRunning
	case string(JobStatusCompleted):
		return JobStatusCompleted
	case string(JobStatusFailed):
		return JobStatusFailed
	case string(JobStatusCancelled):
		return JobStatusCancelled
	default:
		return JobStatusFailed
	}
}

// Terminal reports whether s is one of the finished states.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// Job is the unit of work occupying the single active slot. While active it is
// owned by the coordinator; once demoted it lives on as an immutable history
// entry.
type Job struct {
	ID        uuid.UUID        `json:"id"`
	Kind      JobKind          `json:"kind"`
	Path      string           `json:"path"`
	Name      string           `json:"name"`
	Platform  string           `json:"platform,omitempty"`
	Algorithm bridge.Algorithm `json:"algorithm,omitempty"`

	Status   JobStatus        `json:"status"`
	Progress *bridge.Progress `json:"progress,omitempty"`
	Error    string           `json:"error,omitempty"`

	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Snapshot is the externally observable coordinator state.
type Snapshot struct {
	Active  *Job  `json:"active,omitempty"`
	History []Job `json:"history"`
}

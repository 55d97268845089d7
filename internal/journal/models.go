package journal

import (
	"time"

	"dualsub/internal/services"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = Status(services.OutcomeFailed)
	StatusRejected  Status = Status(services.OutcomeRejected)
)

// StatusForError maps a run's terminal error onto a status.
func StatusForError(err error) Status {
	if err == nil {
		return StatusSucceeded
	}
	return Status(services.FailureOutcome(err))
}

// Run is one pipeline invocation.
type Run struct {
	ID         string
	Command    string
	SourcePath string
	OutputDir  string
	TargetLang string
	Status     Status
	Stage      string
	Error      string
	LogPath    string
	StartedAt  time.Time
	UpdatedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the run took, or has taken so far.
func (r Run) Duration(now time.Time) time.Duration {
	end := r.FinishedAt
	if end.IsZero() {
		end = now
	}
	if r.StartedAt.IsZero() || end.Before(r.StartedAt) {
		return 0
	}
	return end.Sub(r.StartedAt)
}

// Artifact is a file a run wrote.
type Artifact struct {
	ID        int64
	RunID     string
	Path      string
	Kind      string
	Language  string
	Format    string
	Bytes     int64
	CreatedAt time.Time
}

package domain

import "time"

// JobState tracks the lifecycle of a single queued render job.
type JobState string

const (
	JobStatePending   JobState = "pending"
	JobStateRunning   JobState = "running"
	JobStateSucceeded JobState = "succeeded"
	JobStateFailed    JobState = "failed"
	JobStateCancelled JobState = "cancelled"
)

// Terminal reports whether a job state can no longer change.
func (s JobState) Terminal() bool {
	switch s {
	case JobStateSucceeded, JobStateFailed, JobStateCancelled:
		return true
	default:
		return false
	}
}

// SessionState tracks one run-through of the queue.
type SessionState string

const (
	SessionStateIdle      SessionState = "idle"
	SessionStateRunning   SessionState = "running"
	SessionStateCancelled SessionState = "cancelled"
	SessionStateCompleted SessionState = "completed"
)

// RenderOptions are per-job overrides captured when a job is queued.
// Zero values fall back to the session-wide settings.
type RenderOptions struct {
	OutputDir string        `json:"outputDir,omitempty"`
	Format    string        `json:"format,omitempty"`
	Timeout   time.Duration `json:"timeout,omitempty"`
}

// Job maps one input scene file to one renderer invocation.
type Job struct {
	ID        string        `json:"id"`
	InputPath string        `json:"inputPath"`
	Options   RenderOptions `json:"options"`
	State     JobState      `json:"state"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Settings contains user-selectable runtime configuration.
type Settings struct {
	BlenderPath string `json:"blenderPath"`
	OutputDir   string `json:"outputDir"`
	Format      string `json:"format"`
}

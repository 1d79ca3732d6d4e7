package jobs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"render-queue/internal/domain"
)

// ErrInvalidInput is returned when an added path is not a readable scene file.
var ErrInvalidInput = errors.New("invalid scene file")

// ErrJobNotFound is returned when an operation references an unknown job.
var ErrJobNotFound = errors.New("job not found")

// ErrJobNotPending is returned when editing a job that already left the queue.
var ErrJobNotPending = errors.New("job is not pending")

// Queue is the ordered, user-editable list of render jobs. Order determines
// execution order; only pending jobs may be removed or moved.
type Queue struct {
	mu   sync.RWMutex
	jobs []domain.Job
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Add validates the scene path and appends a new pending job.
func (q *Queue) Add(path string, opts domain.RenderOptions) (domain.Job, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return domain.Job{}, fmt.Errorf("%w: path is empty", ErrInvalidInput)
	}
	if !strings.EqualFold(filepath.Ext(path), ".blend") {
		return domain.Job{}, fmt.Errorf("%w: not a .blend file: %s", ErrInvalidInput, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return domain.Job{}, fmt.Errorf("%w: cannot access %s", ErrInvalidInput, path)
	}
	if info.IsDir() {
		return domain.Job{}, fmt.Errorf("%w: path is a directory: %s", ErrInvalidInput, path)
	}

	job := domain.Job{
		ID:        uuid.NewString(),
		InputPath: path,
		Options:   opts,
		State:     domain.JobStatePending,
		CreatedAt: time.Now().UTC(),
	}

	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()
	return job, nil
}

// Remove deletes a pending job from the queue.
func (q *Queue) Remove(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	idx := q.indexOf(id)
	if idx < 0 {
		return ErrJobNotFound
	}
	if q.jobs[idx].State != domain.JobStatePending {
		return fmt.Errorf("%w: cannot remove %s job", ErrJobNotPending, q.jobs[idx].State)
	}

	q.jobs = append(q.jobs[:idx], q.jobs[idx+1:]...)
	return nil
}

// Reorder moves a pending job to newIndex, clamped to queue bounds.
func (q *Queue) Reorder(id string, newIndex int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	idx := q.indexOf(id)
	if idx < 0 {
		return ErrJobNotFound
	}
	if q.jobs[idx].State != domain.JobStatePending {
		return fmt.Errorf("%w: cannot move %s job", ErrJobNotPending, q.jobs[idx].State)
	}

	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex > len(q.jobs)-1 {
		newIndex = len(q.jobs) - 1
	}
	if newIndex == idx {
		return nil
	}

	job := q.jobs[idx]
	q.jobs = append(q.jobs[:idx], q.jobs[idx+1:]...)
	q.jobs = append(q.jobs[:newIndex], append([]domain.Job{job}, q.jobs[newIndex:]...)...)
	return nil
}

// Clear drops every pending job, keeping jobs from an earlier run visible.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.jobs[:0]
	for _, job := range q.jobs {
		if job.State != domain.JobStatePending {
			kept = append(kept, job)
		}
	}
	q.jobs = kept
}

// Jobs returns an ordered copy of all jobs for display.
func (q *Queue) Jobs() []domain.Job {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return append([]domain.Job(nil), q.jobs...)
}

// Snapshot returns a point-in-time copy of pending jobs in queue order.
// The executor consumes the snapshot; later queue edits do not affect it.
func (q *Queue) Snapshot() []domain.Job {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]domain.Job, 0, len(q.jobs))
	for _, job := range q.jobs {
		if job.State == domain.JobStatePending {
			out = append(out, job)
		}
	}
	return out
}

// SetState records a state transition reported by the executor.
// Unknown IDs are ignored so stale events cannot corrupt the queue.
func (q *Queue) SetState(id string, state domain.JobState) {
	q.mu.Lock()
	defer q.mu.Unlock()

	idx := q.indexOf(id)
	if idx < 0 {
		return
	}
	if q.jobs[idx].State.Terminal() {
		return
	}
	q.jobs[idx].State = state
}

// indexOf returns the position of a job by ID, or -1. Caller holds the lock.
func (q *Queue) indexOf(id string) int {
	for i, job := range q.jobs {
		if job.ID == id {
			return i
		}
	}
	return -1
}

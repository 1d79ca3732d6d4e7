package jobs

import (
	"errors"
	"fmt"
	"sync"

	"render-queue/internal/domain"
)

// ErrSessionAlreadyRunning is returned when starting a second active session.
var ErrSessionAlreadyRunning = errors.New("render session already running")

// ErrNoActiveSession is returned when an operation needs a running session.
var ErrNoActiveSession = errors.New("no active render session")

// Session tracks one run-through of a queue snapshot and enforces the
// per-job state machine. A finished session can be started again with a
// fresh snapshot.
type Session struct {
	mu    sync.RWMutex
	state domain.SessionState
	jobs  []domain.Job
}

// NewSession creates a session in idle state.
func NewSession() *Session {
	return &Session{state: domain.SessionStateIdle}
}

// Start adopts a snapshot and moves the session to running.
func (s *Session) Start(snapshot []domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.SessionStateRunning {
		return ErrSessionAlreadyRunning
	}

	s.jobs = append([]domain.Job(nil), snapshot...)
	s.state = domain.SessionStateRunning
	return nil
}

// State returns the current session state.
func (s *Session) State() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsRunning reports whether a run is in progress.
func (s *Session) IsRunning() bool {
	return s.State() == domain.SessionStateRunning
}

// Jobs returns a copy of the snapshot with current job states.
func (s *Session) Jobs() []domain.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Job(nil), s.jobs...)
}

// MarkJob validates and applies one job state transition.
func (s *Session) MarkJob(id string, state domain.JobState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.SessionStateRunning {
		return ErrNoActiveSession
	}

	for i := range s.jobs {
		if s.jobs[i].ID != id {
			continue
		}
		if !jobTransitionValid(s.jobs[i].State, state) {
			return fmt.Errorf("invalid transition: %s -> %s", s.jobs[i].State, state)
		}
		s.jobs[i].State = state
		return nil
	}
	return ErrJobNotFound
}

// CancelRemaining marks the running job and all still-pending jobs as
// cancelled, moves the session to cancelled, and returns the affected IDs.
// Jobs that already reached a terminal state keep it.
func (s *Session) CancelRemaining() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.SessionStateRunning {
		return nil
	}

	var cancelled []string
	for i := range s.jobs {
		if s.jobs[i].State.Terminal() {
			continue
		}
		s.jobs[i].State = domain.JobStateCancelled
		cancelled = append(cancelled, s.jobs[i].ID)
	}
	s.state = domain.SessionStateCancelled
	return cancelled
}

// Finish moves a running session to completed.
func (s *Session) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == domain.SessionStateRunning {
		s.state = domain.SessionStateCompleted
	}
}

// jobTransitionValid enforces the allowed job state machine edges.
func jobTransitionValid(from, to domain.JobState) bool {
	switch from {
	case domain.JobStatePending:
		return to == domain.JobStateRunning || to == domain.JobStateCancelled
	case domain.JobStateRunning:
		return to.Terminal()
	default:
		return false
	}
}

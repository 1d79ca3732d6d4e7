package jobs

import (
	"errors"
	"testing"

	"render-queue/internal/domain"
)

// snapshotOf builds a pending snapshot from job IDs.
func snapshotOf(ids ...string) []domain.Job {
	out := make([]domain.Job, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Job{ID: id, State: domain.JobStatePending})
	}
	return out
}

// TestSessionLifecycle verifies normal progression to completed state.
func TestSessionLifecycle(t *testing.T) {
	s := NewSession()
	if s.IsRunning() {
		t.Fatal("new session should be idle")
	}

	if err := s.Start(snapshotOf("a", "b")); err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, id := range []string{"a", "b"} {
		if err := s.MarkJob(id, domain.JobStateRunning); err != nil {
			t.Fatalf("mark %s running: %v", id, err)
		}
		if err := s.MarkJob(id, domain.JobStateSucceeded); err != nil {
			t.Fatalf("mark %s succeeded: %v", id, err)
		}
	}

	s.Finish()
	if s.State() != domain.SessionStateCompleted {
		t.Fatalf("state = %s, want completed", s.State())
	}
}

// TestSessionRejectsSecondStart checks the single-session guard.
func TestSessionRejectsSecondStart(t *testing.T) {
	s := NewSession()
	if err := s.Start(snapshotOf("a")); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(snapshotOf("b")); !errors.Is(err, ErrSessionAlreadyRunning) {
		t.Fatalf("second start error = %v, want ErrSessionAlreadyRunning", err)
	}

	// A finished session accepts a fresh snapshot.
	s.Finish()
	if err := s.Start(snapshotOf("b")); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if jobs := s.Jobs(); len(jobs) != 1 || jobs[0].ID != "b" {
		t.Fatalf("jobs = %+v, want fresh snapshot", jobs)
	}
}

// TestSessionMarkJobValidatesTransitions checks state machine constraints.
func TestSessionMarkJobValidatesTransitions(t *testing.T) {
	s := NewSession()
	if err := s.MarkJob("a", domain.JobStateRunning); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("mark without session error = %v, want ErrNoActiveSession", err)
	}

	if err := s.Start(snapshotOf("a")); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.MarkJob("a", domain.JobStateSucceeded); err == nil {
		t.Fatal("pending -> succeeded should be rejected")
	}
	if err := s.MarkJob("nope", domain.JobStateRunning); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("mark unknown error = %v, want ErrJobNotFound", err)
	}

	if err := s.MarkJob("a", domain.JobStateRunning); err != nil {
		t.Fatalf("mark running: %v", err)
	}
	if err := s.MarkJob("a", domain.JobStateFailed); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := s.MarkJob("a", domain.JobStateSucceeded); err == nil {
		t.Fatal("terminal state must be frozen")
	}
}

// TestSessionCancelRemaining verifies cancellation never rewrites history.
func TestSessionCancelRemaining(t *testing.T) {
	s := NewSession()
	if err := s.Start(snapshotOf("a", "b", "c")); err != nil {
		t.Fatalf("start: %v", err)
	}

	s.MarkJob("a", domain.JobStateRunning)
	s.MarkJob("a", domain.JobStateSucceeded)
	s.MarkJob("b", domain.JobStateRunning)

	cancelled := s.CancelRemaining()
	if len(cancelled) != 2 {
		t.Fatalf("cancelled = %v, want b and c", cancelled)
	}
	if s.State() != domain.SessionStateCancelled {
		t.Fatalf("state = %s, want cancelled", s.State())
	}

	states := map[string]domain.JobState{}
	for _, job := range s.Jobs() {
		states[job.ID] = job.State
	}
	if states["a"] != domain.JobStateSucceeded {
		t.Fatalf("a = %s, want succeeded", states["a"])
	}
	if states["b"] != domain.JobStateCancelled || states["c"] != domain.JobStateCancelled {
		t.Fatalf("b = %s c = %s, want cancelled", states["b"], states["c"])
	}

	if again := s.CancelRemaining(); again != nil {
		t.Fatalf("repeat cancel = %v, want nil", again)
	}
}

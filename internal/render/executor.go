package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"render-queue/internal/domain"
	"render-queue/internal/jobs"
)

// ErrBlenderPathMissing is returned when a run starts without a renderer path.
var ErrBlenderPathMissing = errors.New("blender executable path is not configured")

// ErrEmptySnapshot is returned when a run starts with nothing to render.
var ErrEmptySnapshot = errors.New("no jobs to render")

// stderrTailLines caps how much stderr is kept for failure reports.
const stderrTailLines = 5

// EventSink receives executor events for display and logging.
type EventSink interface {
	Publish(jobs.Event) jobs.Event
}

// Executor processes a queue snapshot one renderer process at a time.
// A single job failure does not abort the run; the remaining jobs still
// render. Cancellation terminates the current process and marks every
// job that has not finished as cancelled.
type Executor struct {
	launcher Launcher
	sink     EventSink
	session  *jobs.Session
	mkdirAll func(string, os.FileMode) error

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an executor with real OS dependencies.
func New(launcher Launcher, sink EventSink) *Executor {
	return &Executor{
		launcher: launcher,
		sink:     sink,
		session:  jobs.NewSession(),
		mkdirAll: os.MkdirAll,
	}
}

// NewForTests creates an executor with an injectable mkdir.
func NewForTests(launcher Launcher, sink EventSink, mkdirAll func(string, os.FileMode) error) *Executor {
	e := New(launcher, sink)
	e.mkdirAll = mkdirAll
	return e
}

// Start begins processing a snapshot asynchronously.
func (e *Executor) Start(snapshot []domain.Job, settings domain.Settings) error {
	if strings.TrimSpace(settings.BlenderPath) == "" {
		return ErrBlenderPathMissing
	}
	if len(snapshot) == 0 {
		return ErrEmptySnapshot
	}
	if err := e.session.Start(snapshot); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.mu.Lock()
	e.cancel = cancel
	e.done = done
	e.mu.Unlock()

	e.publishSession(domain.SessionStateRunning)
	go e.run(ctx, cancel, snapshot, settings, done)
	return nil
}

// Cancel requests cancellation of the active session. Idempotent; a no-op
// when nothing is running.
func (e *Executor) Cancel() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the current run finishes. Returns immediately when idle.
func (e *Executor) Wait() {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done != nil {
		<-done
	}
}

// State returns the session state.
func (e *Executor) State() domain.SessionState {
	return e.session.State()
}

// SessionJobs returns the snapshot with current job states.
func (e *Executor) SessionJobs() []domain.Job {
	return e.session.Jobs()
}

// run walks the snapshot in order, one process at a time.
func (e *Executor) run(ctx context.Context, cancel context.CancelFunc, snapshot []domain.Job, settings domain.Settings, done chan struct{}) {
	defer close(done)
	defer cancel()

	for _, job := range snapshot {
		if ctx.Err() != nil {
			break
		}
		if err := e.session.MarkJob(job.ID, domain.JobStateRunning); err != nil {
			continue
		}
		e.publishJobState(job.ID, domain.JobStateRunning)

		state := e.runJob(ctx, job, settings)
		if state == domain.JobStateCancelled {
			break
		}
		if err := e.session.MarkJob(job.ID, state); err == nil {
			e.publishJobState(job.ID, state)
		}
	}

	if ctx.Err() != nil {
		for _, id := range e.session.CancelRemaining() {
			e.publishJobState(id, domain.JobStateCancelled)
		}
		e.publishSession(domain.SessionStateCancelled)
		return
	}

	e.session.Finish()
	e.publishSession(domain.SessionStateCompleted)
}

// runJob renders one scene and returns its terminal state.
func (e *Executor) runJob(ctx context.Context, job domain.Job, settings domain.Settings) domain.JobState {
	outDir := job.Options.OutputDir
	if outDir == "" {
		outDir = settings.OutputDir
	}
	format := job.Options.Format
	if format == "" {
		format = settings.Format
	}
	if format == "" {
		format = "PNG"
	}

	subdir := OutputSubdirFor(outDir, job.InputPath)
	if err := e.mkdirAll(subdir, 0o755); err != nil {
		e.publishError(job.ID, 0, fmt.Sprintf("create output directory: %v", err))
		return domain.JobStateFailed
	}

	totalFrames := 0
	if start, end, err := FrameRange(ctx, e.launcher, settings.BlenderPath, job.InputPath); err == nil && end >= start {
		totalFrames = end - start + 1
	}
	if ctx.Err() != nil {
		return domain.JobStateCancelled
	}

	jobCtx := ctx
	if job.Options.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		jobCtx, cancelTimeout = context.WithTimeout(ctx, job.Options.Timeout)
		defer cancelTimeout()
	}

	args := BuildRenderArgs(job.InputPath, subdir, format)
	proc, err := e.launcher.Start(jobCtx, settings.BlenderPath, args)
	if err != nil {
		perr := &ProcessError{Path: settings.BlenderPath, Args: args, Err: err}
		e.publishError(job.ID, 0, perr.Error())
		return domain.JobStateFailed
	}

	var stderrTail []string
	for line := range proc.Lines() {
		e.publish(jobs.Event{
			JobID:  job.ID,
			Type:   jobs.EventTypeOutput,
			Stream: line.Stream,
			Line:   line.Text,
		})
		if line.Stream == "stderr" {
			stderrTail = append(stderrTail, line.Text)
			if len(stderrTail) > stderrTailLines {
				stderrTail = stderrTail[1:]
			}
		}
		if totalFrames > 0 {
			if frame, ok := ParseFrameProgress(line.Text); ok {
				e.publish(jobs.Event{
					JobID:       job.ID,
					Type:        jobs.EventTypeProgress,
					Frame:       frame,
					TotalFrames: totalFrames,
				})
			}
		}
	}

	code, waitErr := proc.Wait()
	if ctx.Err() != nil {
		return domain.JobStateCancelled
	}
	if jobCtx.Err() != nil {
		e.publishError(job.ID, code, fmt.Sprintf("render timed out after %s", job.Options.Timeout))
		return domain.JobStateFailed
	}
	if waitErr != nil || code != 0 {
		perr := &ProcessError{
			Path:     settings.BlenderPath,
			Args:     args,
			ExitCode: code,
			Stderr:   strings.Join(stderrTail, "\n"),
			Err:      waitErr,
		}
		msg := perr.Error()
		if perr.Stderr != "" {
			msg += ": " + perr.Stderr
		}
		e.publishError(job.ID, code, msg)
		return domain.JobStateFailed
	}

	return domain.JobStateSucceeded
}

// publish forwards one event to the configured sink.
func (e *Executor) publish(event jobs.Event) {
	if e.sink != nil {
		e.sink.Publish(event)
	}
}

// publishJobState sends a job-state-changed event.
func (e *Executor) publishJobState(jobID string, state domain.JobState) {
	e.publish(jobs.Event{
		JobID:    jobID,
		Type:     jobs.EventTypeJobState,
		JobState: state,
	})
}

// publishSession sends a session-state-changed event.
func (e *Executor) publishSession(state domain.SessionState) {
	e.publish(jobs.Event{
		Type:    jobs.EventTypeSession,
		Session: state,
	})
}

// publishError sends a per-job error event.
func (e *Executor) publishError(jobID string, exitCode int, message string) {
	e.publish(jobs.Event{
		JobID:    jobID,
		Type:     jobs.EventTypeError,
		ExitCode: exitCode,
		Message:  message,
	})
}

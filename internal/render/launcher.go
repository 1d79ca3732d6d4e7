package render

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// defaultGrace is how long a signalled renderer gets before a hard kill.
const defaultGrace = 2 * time.Second

// Line is one line of renderer output with its source stream.
type Line struct {
	Stream string // "stdout" or "stderr"
	Text   string
}

// Process is a running renderer invocation under supervision.
// Lines must be drained before Wait is called; the channel closes when
// both output pipes reach EOF.
type Process interface {
	Lines() <-chan Line
	Wait() (int, error)
}

// Launcher abstracts process creation for testability.
type Launcher interface {
	Start(ctx context.Context, name string, args []string) (Process, error)
}

// ExecLauncher launches real processes via os/exec. Context cancellation
// sends a termination signal and escalates to a kill after the grace period.
type ExecLauncher struct {
	grace time.Duration
}

// NewExecLauncher creates a launcher with the default grace period.
func NewExecLauncher() *ExecLauncher {
	return &ExecLauncher{grace: defaultGrace}
}

// Start spawns the command and begins streaming its output lines.
func (l *ExecLauncher) Start(ctx context.Context, name string, args []string) (Process, error) {
	cmd := exec.Command(name, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &execProcess{
		cmd:   cmd,
		lines: make(chan Line, 64),
		done:  make(chan struct{}),
	}
	p.wg.Add(2)
	go p.scan(stdout, "stdout")
	go p.scan(stderr, "stderr")
	go func() {
		p.wg.Wait()
		close(p.lines)
	}()
	go p.supervise(ctx, l.grace)

	return p, nil
}

// execProcess supervises one spawned renderer process.
type execProcess struct {
	cmd   *exec.Cmd
	lines chan Line
	wg    sync.WaitGroup
	done  chan struct{}
}

// Lines returns the merged output stream.
func (p *execProcess) Lines() <-chan Line {
	return p.lines
}

// Wait blocks until the process exits and returns its exit code.
// A non-zero exit is reported through both the code and the error.
func (p *execProcess) Wait() (int, error) {
	p.wg.Wait()
	err := p.cmd.Wait()
	close(p.done)

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), err
		}
		return -1, err
	}
	return 0, nil
}

// scan forwards one pipe line by line until EOF.
func (p *execProcess) scan(r io.Reader, stream string) {
	defer p.wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for scanner.Scan() {
		p.lines <- Line{Stream: stream, Text: scanner.Text()}
	}
}

// supervise terminates the process when the context is cancelled:
// best-effort termination signal first, hard kill after the grace period.
func (p *execProcess) supervise(ctx context.Context, grace time.Duration) {
	select {
	case <-p.done:
		return
	case <-ctx.Done():
	}

	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		_ = p.cmd.Process.Kill()
		return
	}

	select {
	case <-p.done:
	case <-time.After(grace):
		_ = p.cmd.Process.Kill()
	}
}

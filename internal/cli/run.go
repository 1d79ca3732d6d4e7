package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"render-queue/internal/domain"
	"render-queue/internal/jobs"
	"render-queue/internal/render"
)

func newRunCmd() *cobra.Command {
	var (
		blenderPath string
		outputDir   string
		format      string
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run <scene.blend> [scene.blend...]",
		Short: "Render the given scene files sequentially",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return fmt.Errorf("load settings: %w", err)
			}
			if blenderPath != "" {
				settings.BlenderPath = blenderPath
			}
			if outputDir != "" {
				settings.OutputDir = outputDir
			}
			if format != "" {
				settings.Format = format
			}

			queue := jobs.NewQueue()
			for _, path := range args {
				if _, err := queue.Add(path, domain.RenderOptions{Timeout: timeout}); err != nil {
					return err
				}
			}

			executor := render.New(render.NewExecLauncher(), newPrintSink(cmd.OutOrStdout()))
			if err := executor.Start(queue.Snapshot(), settings); err != nil {
				return err
			}

			// Ctrl+C cancels the session; the executor terminates the
			// renderer and marks unfinished jobs cancelled.
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt)
			defer signal.Stop(sigCh)
			go func() {
				for range sigCh {
					executor.Cancel()
				}
			}()

			executor.Wait()

			if executor.State() == domain.SessionStateCancelled {
				return fmt.Errorf("render cancelled")
			}

			failed := 0
			for _, job := range executor.SessionJobs() {
				if job.State == domain.JobStateFailed {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d jobs failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&blenderPath, "blender", "", "path to the blender executable (overrides settings)")
	cmd.Flags().StringVar(&outputDir, "output", "", "output directory for rendered frames (overrides settings)")
	cmd.Flags().StringVar(&format, "format", "", "output image format, e.g. PNG (overrides settings)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "optional per-job timeout, e.g. 2h (0 = none)")
	return cmd
}

// printSink writes executor events to the terminal.
type printSink struct {
	mu sync.Mutex
	w  io.Writer
}

func newPrintSink(w io.Writer) *printSink {
	return &printSink{w: w}
}

// Publish renders one event as a terminal line.
func (s *printSink) Publish(event jobs.Event) jobs.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch event.Type {
	case jobs.EventTypeOutput:
		fmt.Fprintln(s.w, event.Line)
	case jobs.EventTypeJobState:
		fmt.Fprintf(s.w, "== job %s: %s\n", event.JobID, event.JobState)
	case jobs.EventTypeSession:
		fmt.Fprintf(s.w, "== session: %s\n", event.Session)
	case jobs.EventTypeProgress:
		fmt.Fprintf(s.w, "== frame %d/%d\n", event.Frame, event.TotalFrames)
	case jobs.EventTypeError:
		fmt.Fprintf(s.w, "== error: %s\n", event.Message)
	}
	return event
}

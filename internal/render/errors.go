package render

import "fmt"

// ProcessError describes a renderer invocation that could not be launched
// or exited with a non-zero code.
type ProcessError struct {
	Path     string   `json:"path"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Stderr   string   `json:"stderr,omitempty"`
	Err      error    `json:"-"`
}

// Error formats renderer failures for logs and UI.
func (e *ProcessError) Error() string {
	if e == nil {
		return ""
	}
	if e.ExitCode == 0 && e.Err != nil {
		return fmt.Sprintf("launch %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s exited with code %d", e.Path, e.ExitCode)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *ProcessError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

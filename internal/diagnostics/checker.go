package diagnostics

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"render-queue/internal/domain"
)

// wellKnownBlenderPaths are default install locations probed when the
// executable is not configured and not on PATH.
var wellKnownBlenderPaths = []string{
	`C:\Program Files\Blender Foundation\Blender\blender.exe`,
	"/Applications/Blender.app/Contents/MacOS/Blender",
	"/usr/bin/blender",
	"/usr/local/bin/blender",
}

// Checker validates that the environment can run renders: a usable blender
// executable and a writable output directory. OS access goes through
// injected functions so tests can fake it.
type Checker struct {
	lookPath   func(string) (string, error)
	stat       func(string) (os.FileInfo, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return NewCheckerForTests(exec.LookPath, os.Stat, os.MkdirAll, os.CreateTemp, os.Remove)
}

// NewCheckerForTests creates a checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	stat func(string) (os.FileInfo, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		stat:       stat,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}

// Run executes every check against the given settings.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	return domain.NewDiagnosticReport([]domain.DiagnosticItem{
		c.checkBlender(settings.BlenderPath),
		c.checkOutputDir(settings.OutputDir),
	})
}

// Discover returns the first usable blender executable: PATH lookup first,
// then well-known install locations.
func (c *Checker) Discover() (string, bool) {
	if path, err := c.lookPath("blender"); err == nil {
		return path, true
	}
	for _, candidate := range wellKnownBlenderPaths {
		if info, err := c.stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// checkBlender verifies the configured executable, falling back to
// discovery when the path is unset.
func (c *Checker) checkBlender(blenderPath string) domain.DiagnosticItem {
	const hint = "Install Blender or point the settings at the blender binary."
	item := domain.DiagnosticItem{ID: "blender_path", Name: "Blender executable"}

	path := strings.TrimSpace(blenderPath)
	if path == "" {
		found, ok := c.Discover()
		if !ok {
			return failItem(item, "Blender executable not found.", hint)
		}
		path = found
	} else {
		info, err := c.stat(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			return failItem(item, fmt.Sprintf("Blender executable does not exist: %s", path), hint)
		case err != nil:
			return failItem(item, fmt.Sprintf("Cannot access Blender executable: %s", path), hint)
		case info.IsDir():
			return failItem(item, fmt.Sprintf("Blender path is a directory: %s", path),
				"Select the blender executable file, not its folder.")
		}
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Found at %s", path)
	return item
}

// checkOutputDir verifies the output directory exists (creating it if
// needed) and accepts writes.
func (c *Checker) checkOutputDir(outputDir string) domain.DiagnosticItem {
	const hint = "Choose a writable directory for rendered frames."
	item := domain.DiagnosticItem{ID: "output_dir", Name: "Output directory"}

	if strings.TrimSpace(outputDir) == "" {
		return failItem(item, "Output directory is empty.",
			"Set an output directory where rendered frames can be written.")
	}
	if err := c.mkdirAll(outputDir, 0o755); err != nil {
		return failItem(item, fmt.Sprintf("Cannot create output directory: %s", outputDir), hint)
	}

	probe, err := c.createTemp(outputDir, ".write-check-*")
	if err != nil {
		return failItem(item, fmt.Sprintf("Output directory is not writable: %s", outputDir), hint)
	}
	probePath := probe.Name()
	probe.Close()
	c.remove(probePath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", outputDir)
	return item
}

// failItem fills in the failure fields on a check result.
func failItem(item domain.DiagnosticItem, message, hint string) domain.DiagnosticItem {
	item.Status = domain.DiagnosticStatusFail
	item.Message = message
	item.Hint = hint
	return item
}

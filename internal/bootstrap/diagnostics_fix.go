package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"render-queue/internal/config"
	"render-queue/internal/domain"
)

// ApplyDiagnosticFix remediates one failed environment check: rediscovers
// the blender executable or creates the output directory. Returns the
// report after the attempt so the UI can show the new state either way.
func (a *App) ApplyDiagnosticFix(itemID string) (domain.DiagnosticReport, error) {
	if a.Store == nil {
		return domain.DiagnosticReport{}, fmt.Errorf("settings store is not configured")
	}

	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	if err := a.applyFix(strings.TrimSpace(itemID), &settings); err != nil {
		return a.refreshDiagnosticsFromSettings(settings), err
	}
	if err := a.Store.Save(settings); err != nil {
		return a.refreshDiagnosticsFromSettings(settings), fmt.Errorf("save settings after fix: %w", err)
	}
	return a.refreshDiagnosticsFromSettings(settings), nil
}

// applyFix mutates settings according to the requested remediation.
func (a *App) applyFix(itemID string, settings *domain.Settings) error {
	switch itemID {
	case "blender_path":
		found, ok := a.checker.Discover()
		if !ok {
			return fmt.Errorf("blender executable not found in any known location")
		}
		settings.BlenderPath = found
		return nil
	case "output_dir":
		if settings.OutputDir == "" {
			settings.OutputDir = config.DefaultSettings().OutputDir
		}
		if err := os.MkdirAll(filepath.Clean(settings.OutputDir), 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("no fix available for diagnostic %q", itemID)
	}
}

// refreshDiagnosticsFromSettings reruns checks and caches the report.
func (a *App) refreshDiagnosticsFromSettings(settings domain.Settings) domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(settings)
	}
	return a.Diagnostics
}

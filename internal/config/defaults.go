package config

import (
	"os"
	"path/filepath"

	"render-queue/internal/domain"
)

// DefaultSettings returns first-launch configuration. The blender path is
// left empty; discovery or the user fills it in.
func DefaultSettings() domain.Settings {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return domain.Settings{
		OutputDir: filepath.Join(home, "Documents", "Renders"),
		Format:    "PNG",
	}
}

package diagnostics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"render-queue/internal/domain"
)

// TestCheckerRunAllPass validates happy-path diagnostics report.
func TestCheckerRunAllPass(t *testing.T) {
	root := t.TempDir()
	blender := filepath.Join(root, "blender")
	if err := os.WriteFile(blender, []byte("stub"), 0o755); err != nil {
		t.Fatalf("write blender stub: %v", err)
	}

	checker := NewCheckerForTests(
		func(string) (string, error) { return "", errors.New("not on PATH") },
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run(domain.Settings{
		BlenderPath: blender,
		OutputDir:   filepath.Join(root, "renders"),
		Format:      "PNG",
	})

	if report.HasFailures {
		t.Fatalf("expected no failures, got %+v", report.Items)
	}
}

// TestCheckerRunMissingExecutableAndPaths validates failure reporting.
func TestCheckerRunMissingExecutableAndPaths(t *testing.T) {
	checker := NewCheckerForTests(
		func(string) (string, error) { return "", errors.New("not found") },
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run(domain.Settings{
		BlenderPath: "/path/that/does/not/exist/blender",
		OutputDir:   "",
	})

	if !report.HasFailures {
		t.Fatal("expected failures")
	}
	for _, item := range report.Items {
		if item.Status != domain.DiagnosticStatusFail {
			t.Fatalf("item %s = %s, want fail", item.ID, item.Status)
		}
		if item.Hint == "" {
			t.Fatalf("item %s missing hint", item.ID)
		}
	}
}

// TestCheckerDiscoverPrefersPATH validates executable discovery order.
func TestCheckerDiscoverPrefersPATH(t *testing.T) {
	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/local/bin/" + name, nil },
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	path, ok := checker.Discover()
	if !ok || path != "/usr/local/bin/blender" {
		t.Fatalf("Discover() = (%q, %v), want PATH hit", path, ok)
	}
}

// TestCheckerDiscoverFallsBackToKnownLocations validates install-dir probing.
func TestCheckerDiscoverFallsBackToKnownLocations(t *testing.T) {
	root := t.TempDir()
	stub := filepath.Join(root, "blender")
	if err := os.WriteFile(stub, []byte("stub"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	checker := NewCheckerForTests(
		func(string) (string, error) { return "", errors.New("not on PATH") },
		func(path string) (os.FileInfo, error) {
			if path == "/usr/bin/blender" {
				return os.Stat(stub)
			}
			return nil, os.ErrNotExist
		},
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	path, ok := checker.Discover()
	if !ok || path != "/usr/bin/blender" {
		t.Fatalf("Discover() = (%q, %v), want /usr/bin/blender", path, ok)
	}
}

// TestCheckerRunEmptyPathUsesDiscovery validates the unset-path check.
func TestCheckerRunEmptyPathUsesDiscovery(t *testing.T) {
	root := t.TempDir()
	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/bin/" + name, nil },
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run(domain.Settings{
		BlenderPath: "",
		OutputDir:   filepath.Join(root, "renders"),
	})
	if report.HasFailures {
		t.Fatalf("expected discovery to satisfy the check, got %+v", report.Items)
	}
}

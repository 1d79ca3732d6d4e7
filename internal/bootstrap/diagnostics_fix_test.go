package bootstrap

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"render-queue/internal/diagnostics"
	"render-queue/internal/domain"
)

// testChecker builds a checker whose PATH lookup resolves to the stub path.
func testChecker(blenderPath string) *diagnostics.Checker {
	return diagnostics.NewCheckerForTests(
		func(string) (string, error) {
			if blenderPath == "" {
				return "", errors.New("not on PATH")
			}
			return blenderPath, nil
		},
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)
}

// TestApplyDiagnosticFixBlenderPath checks discovery-backed remediation.
func TestApplyDiagnosticFixBlenderPath(t *testing.T) {
	root := t.TempDir()
	stub := filepath.Join(root, "blender")
	if err := os.WriteFile(stub, []byte("stub"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	store := &fakeStore{settings: domain.Settings{OutputDir: filepath.Join(root, "out")}}
	app := newTestApp(store, &fakeExecutor{})
	app.checker = testChecker(stub)

	report, err := app.ApplyDiagnosticFix("blender_path")
	if err != nil {
		t.Fatalf("ApplyDiagnosticFix() error = %v", err)
	}
	if report.HasFailures {
		t.Fatalf("report still failing: %+v", report.Items)
	}
	if store.settings.BlenderPath != stub {
		t.Fatalf("saved blender path = %q, want %q", store.settings.BlenderPath, stub)
	}
}

// TestApplyDiagnosticFixOutputDir checks directory creation remediation.
func TestApplyDiagnosticFixOutputDir(t *testing.T) {
	root := t.TempDir()
	stub := filepath.Join(root, "blender")
	if err := os.WriteFile(stub, []byte("stub"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	outDir := filepath.Join(root, "deep", "renders")

	store := &fakeStore{settings: domain.Settings{BlenderPath: stub, OutputDir: outDir}}
	app := newTestApp(store, &fakeExecutor{})
	app.checker = testChecker("")

	if _, err := app.ApplyDiagnosticFix("output_dir"); err != nil {
		t.Fatalf("ApplyDiagnosticFix() error = %v", err)
	}
	if info, err := os.Stat(outDir); err != nil || !info.IsDir() {
		t.Fatalf("output dir not created: %v", err)
	}
}

// TestApplyDiagnosticFixUnknownItem checks id validation.
func TestApplyDiagnosticFixUnknownItem(t *testing.T) {
	app := newTestApp(&fakeStore{}, &fakeExecutor{})
	app.checker = testChecker("")

	if _, err := app.ApplyDiagnosticFix("bogus"); err == nil {
		t.Fatal("expected error for unknown item id")
	}
	if _, err := app.ApplyDiagnosticFix(""); err == nil {
		t.Fatal("expected error for empty item id")
	}
}

package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"render-queue/internal/config"
	"render-queue/internal/diagnostics"
	"render-queue/internal/domain"
	"render-queue/internal/jobs"
	"render-queue/internal/render"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

var sceneDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Blender scenes",
		Pattern:     "*.blend",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// sessionRunner isolates the render executor behind an interface.
type sessionRunner interface {
	Start(snapshot []domain.Job, settings domain.Settings) error
	Cancel()
	Wait()
	State() domain.SessionState
	SessionJobs() []domain.Job
}

// App wires configuration, queue, executor, and UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Queue       *jobs.Queue
	Executor    sessionRunner
	Diagnostics domain.DiagnosticReport
	assets      fs.FS
	checker     *diagnostics.Checker

	mu         sync.Mutex
	events     *jobs.EventBus
	runtimeCtx context.Context
}

// New builds the application, serving frontend files from disk.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application around embedded frontend assets.
// Settings are loaded from the per-user store; when no blender path is
// configured yet, discovery fills it in and persists the result.
func NewWithAssets(assets fs.FS) (*App, error) {
	storePath, err := config.DefaultStorePath()
	if err != nil {
		return nil, fmt.Errorf("resolve settings path: %w", err)
	}

	store := config.NewJSONStore(storePath)
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	checker := diagnostics.NewChecker()
	if strings.TrimSpace(settings.BlenderPath) == "" {
		if found, ok := checker.Discover(); ok {
			settings.BlenderPath = found
			if err := store.Save(settings); err != nil {
				return nil, fmt.Errorf("save discovered blender path: %w", err)
			}
		}
	}
	report := checker.Run(settings)

	app := &App{
		Settings:    settings,
		Store:       store,
		Queue:       jobs.NewQueue(),
		Diagnostics: report,
		assets:      assets,
		checker:     checker,
		events:      jobs.NewEventBus(1000),
	}
	app.Executor = render.New(render.NewExecLauncher(), &appSink{app: app})
	return app, nil
}

// Run starts the Wails desktop application and blocks until the window
// closes. Closing the window cancels any render in progress.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "Blender Render Queue",
		Width:       620,
		Height:      760,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown:  a.shutdown,
		Bind:        []interface{}{a},
	})
}

// Startup captures the Wails runtime context used for dialogs and pushes.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

func (a *App) shutdown(context.Context) {
	a.Executor.Cancel()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = nil
}

// GetDiagnostics returns the report from the most recent checks.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	return a.Diagnostics
}

// loadSettings reads from the store and caches the result.
func (a *App) loadSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()
	return settings, nil
}

// GetSettings returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	return a.loadSettings()
}

// SaveSettings normalizes and persists settings, then reruns diagnostics
// so the UI sees the effect of the change immediately.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := normalizeSettings(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	a.refreshDiagnosticsFromSettings(normalized)
	return normalized, nil
}

// AddJob queues one scene file with default options.
func (a *App) AddJob(path string) (domain.Job, error) {
	return a.Queue.Add(path, domain.RenderOptions{})
}

// AddJobWithOptions queues one scene file with per-job overrides.
func (a *App) AddJobWithOptions(path string, opts domain.RenderOptions) (domain.Job, error) {
	return a.Queue.Add(path, opts)
}

// RemoveJob removes a pending job from the queue.
func (a *App) RemoveJob(id string) error {
	return a.Queue.Remove(id)
}

// ReorderJob moves a pending job to a new queue position.
func (a *App) ReorderJob(id string, newIndex int) error {
	return a.Queue.Reorder(id, newIndex)
}

// ClearQueue drops all pending jobs.
func (a *App) ClearQueue() {
	a.Queue.Clear()
}

// QueueJobs returns the ordered queue contents for display.
func (a *App) QueueJobs() []domain.Job {
	return a.Queue.Jobs()
}

// StartRender snapshots the queue and begins a render session with the
// freshest persisted settings.
func (a *App) StartRender() error {
	settings, err := a.loadSettings()
	if err != nil {
		return err
	}
	return a.Executor.Start(a.Queue.Snapshot(), settings)
}

// CancelRender requests cancellation of the active session. Safe to call
// repeatedly or while idle.
func (a *App) CancelRender() {
	a.Executor.Cancel()
}

// SessionState returns the current render session state.
func (a *App) SessionState() domain.SessionState {
	return a.Executor.State()
}

// SessionJobs returns the active snapshot with current job states.
func (a *App) SessionJobs() []domain.Job {
	return a.Executor.SessionJobs()
}

// JobEvents returns all events with sequence greater than sinceSeq.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

// PickSceneFiles opens a native multi-select dialog for .blend files.
func (a *App) PickSceneFiles() ([]string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return nil, err
	}

	paths, err := wailsruntime.OpenMultipleFilesDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select scene files",
		Filters: sceneDialogFilter,
	})
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(paths))
	for _, path := range paths {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out, nil
}

// PickBlenderExecutable opens a native file dialog for the renderer binary.
func (a *App) PickBlenderExecutable() (string, error) {
	return a.pickPath(wailsruntime.OpenFileDialog, "Select Blender executable")
}

// PickOutputDirectory opens a native directory picker for rendered frames.
func (a *App) PickOutputDirectory() (string, error) {
	return a.pickPath(wailsruntime.OpenDirectoryDialog, "Select output directory")
}

// pickPath runs a single-selection native dialog and trims the result.
func (a *App) pickPath(
	dialog func(context.Context, wailsruntime.OpenDialogOptions) (string, error),
	title string,
) (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}
	path, err := dialog(ctx, wailsruntime.OpenDialogOptions{Title: title})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(path), nil
}

// OpenOutputFolder shows the given path, or the configured output
// directory when empty, in the platform file manager. File paths open
// their containing folder.
func (a *App) OpenOutputFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		a.mu.Lock()
		target = a.Settings.OutputDir
		a.mu.Unlock()
		if target == "" {
			return fmt.Errorf("no output directory configured")
		}
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	if !info.IsDir() {
		target = filepath.Dir(target)
	}
	return openInFileManager(target)
}

// RefreshDiagnostics reloads settings and reruns the environment checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.loadSettings()
	if err != nil {
		return domain.DiagnosticReport{}, err
	}
	return a.refreshDiagnosticsFromSettings(settings), nil
}

// appSink forwards executor events into the app's event surface.
type appSink struct {
	app *App
}

// Publish delegates to the app's event publisher.
func (s *appSink) Publish(event jobs.Event) jobs.Event {
	return s.app.publishEvent(event)
}

// publishEvent mirrors job transitions into the queue, stores event
// history, and emits runtime push notifications.
func (a *App) publishEvent(event jobs.Event) jobs.Event {
	if event.Type == jobs.EventTypeJobState && event.JobID != "" {
		a.Queue.SetState(event.JobID, event.JobState)
	}

	published := a.events.Publish(event)

	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, "render:event", published)
	}
	return published
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// normalizeSettings trims user inputs and applies the default format when empty.
func normalizeSettings(settings domain.Settings) domain.Settings {
	settings.BlenderPath = strings.TrimSpace(settings.BlenderPath)
	settings.OutputDir = strings.TrimSpace(settings.OutputDir)
	settings.Format = strings.ToUpper(strings.TrimSpace(settings.Format))
	if settings.Format == "" {
		settings.Format = "PNG"
	}
	return settings
}

// openInFileManager launches the platform file explorer for the provided path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}

package app

import (
	"context"
	"encoding/base64"
	"errors"
	"os/exec"
	"runtime"
	"time"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"gamebooks/internal/config"
	"gamebooks/internal/secret"
	"gamebooks/internal/service"
	"gamebooks/internal/terminal"
	"gamebooks/internal/watcher"
	"gamebooks/internal/workspace"
)

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx        context.Context
	configPath string

	ws      *workspace.Workspace
	watcher *watcher.Watcher
	term    *terminal.Manager
	editor  *service.EditorService
	monitor *service.DocumentMonitor
}

// New creates a new App. An empty configPath selects the default location.
func New(configPath string) *App {
	return &App{configPath: configPath}
}

// wailsEmitter forwards service events to the frontend. Wails needs its own
// context, so the one passed by the caller is ignored.
type wailsEmitter struct {
	ctx context.Context
}

func (e wailsEmitter) Emit(_ context.Context, event string, data any) {
	wailsRuntime.EventsEmit(e.ctx, event, data)
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	if runtime.GOOS == "darwin" {
		// Key repeat inside the embedded editor needs "Press and Hold" off.
		exec.Command("defaults", "write", "com.wails.gamebooks", "ApplePressAndHoldEnabled", "-bool", "false").Run()
	}

	cfg, path, found, err := config.Load(a.configPath)
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to load config: %v", err)
		return
	}
	if !found {
		wailsRuntime.LogInfof(ctx, "No config at %s, using defaults", path)
	}

	emitter := wailsEmitter{ctx: ctx}
	ws, err := workspace.Open(ctx, cfg, emitter, secret.NewKeychainStore())
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to open workspace: %v", err)
		return
	}
	a.ws = ws

	// Draft and document writes both arrive here; each consumer ignores keys
	// it does not own.
	w, err := watcher.New(func(key string, content []byte) {
		if a.editor != nil && a.editor.HandleFileChange(key, content) {
			return
		}
		if a.monitor != nil {
			a.monitor.HandleFileChange(key, content)
		}
	})
	if err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to create file watcher: %v", err)
	}
	a.watcher = w

	// Embedded terminal: PTY output → base64 → frontend event
	a.term = terminal.New(terminal.EditorCommand(cfg.Editor.Command), func(data []byte) {
		wailsRuntime.EventsEmit(ctx, "terminal:data", base64.StdEncoding.EncodeToString(data))
	})

	if w != nil {
		a.editor = service.NewEditorService(ws.Books, a.term, w, emitter, cfg.DraftDir())
		a.monitor = service.NewDocumentMonitor(ws.Books, ws.Host, w, emitter)
	}

	if err := ws.Library.InitializeLibrary(ctx); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to load library: %v", err)
	}
	if err := ws.Checkpoints.Start(ctx); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to schedule checkpoints: %v", err)
	}

	size := ws.Settings.LoadWindowSize(ctx)
	wailsRuntime.WindowSetSize(ctx, size.Width, size.Height)

	if last := ws.Settings.LastBookID(ctx); last != "" {
		if _, known := ws.Library.Book(last); known {
			if err := a.LoadBook(last); err != nil {
				wailsRuntime.LogErrorf(ctx, "Failed to reopen book %s: %v", last, err)
			}
		}
	}
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.editor != nil {
		a.editor.Close()
	}
	if a.term != nil {
		a.term.Close()
	}
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.ws == nil {
		return
	}

	w, h := wailsRuntime.WindowGetSize(a.ctx)
	if err := a.ws.Settings.SaveWindowSize(ctx, w, h); err != nil {
		wailsRuntime.LogErrorf(a.ctx, "Failed to save window size: %v", err)
	}

	closeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := a.ws.Close(closeCtx); err != nil {
		wailsRuntime.LogErrorf(a.ctx, "Failed to close workspace: %v", err)
	}
}

var errNotReady = errors.New("workspace not open")

// ready returns the open workspace, or errNotReady before Startup has
// finished.
func (a *App) ready() (*workspace.Workspace, error) {
	if a.ws == nil {
		return nil, errNotReady
	}
	return a.ws, nil
}

package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/glossa/pkg/core"
)

type watchWorker struct {
	*worker.BaseWorker
	repo      *Repository
	pattern   string // doublestar pattern matched against base file names
	events    chan<- core.Change
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
	onExit    func()

	// last modification seen per key, used to skip no-op reconciliations
	seen map[string]time.Time
}

func newWatchWorker(repo *Repository, pattern string, events chan<- core.Change) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		repo:       repo,
		pattern:    pattern,
		events:     events,
		seen:       make(map[string]time.Time),
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	if !doublestar.ValidatePattern(w.pattern) {
		return fmt.Errorf("invalid watch pattern %q", w.pattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(w.repo.Path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.repo.Path, err)
	}

	if w.repo.config.Versioning {
		_ = watcher.Add(filepath.Join(w.repo.Path, ".git"))
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(w.repo.config.Debounce)
	w.repo.watcherStarted()

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}

	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"pattern":           w.pattern,
		}
	})
}

// handleGitLockEvent processes .git/index.lock events (git operations pause/resume).
// Returns true if event was handled, false if should continue processing.
func (w *watchWorker) handleGitLockEvent(event fsnotify.Event, gitLocked bool) (handled bool, gitLockedNew bool) {
	gitLockedNew = gitLocked

	if filepath.Base(event.Name) != "index.lock" || filepath.Base(filepath.Dir(event.Name)) != ".git" {
		return false, gitLockedNew
	}

	if event.Has(fsnotify.Create) {
		gitLockedNew = true
		w.repo.config.Logger.Debug("git operations detected, pausing watcher")
	} else if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		gitLockedNew = false
		w.repo.config.Logger.Debug("git operations finished, reconciling")
	}
	return true, gitLockedNew
}

// reconcile re-reads every matching file after git releases its lock, so
// writes made while the watcher was paused are not lost.
func (w *watchWorker) reconcile(ctx context.Context) {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		entries, err := os.ReadDir(w.repo.Path)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.IsDir() || !w.matches(e.Name()) {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			key := w.keyOf(e.Name())
			if w.unchanged(key, info.ModTime()) {
				continue
			}
			w.sendChange(ctx, key)
		}
		w.repo.recordReconcile()
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		w.reportError(fmt.Errorf("reconcile failed: %w", err))
	}))
}

func (w *watchWorker) matches(base string) bool {
	if strings.HasPrefix(base, TempFilePrefix) {
		return false
	}
	ok, err := doublestar.Match(w.pattern, base)
	return err == nil && ok
}

func (w *watchWorker) keyOf(base string) string {
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (w *watchWorker) unchanged(key string, mod time.Time) bool {
	w.repo.mu.Lock()
	defer w.repo.mu.Unlock()
	last, ok := w.seen[key]
	if ok && last.Equal(mod) {
		return true
	}
	w.seen[key] = mod
	return false
}

// processFilesystemEvent filters and debounces raw filesystem events.
// Returns true if the event concerned a watched file.
func (w *watchWorker) processFilesystemEvent(ctx context.Context, event fsnotify.Event) (processed bool) {
	w.repo.config.Logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	if event.Op == fsnotify.Chmod {
		return false
	}

	base := filepath.Base(event.Name)
	if filepath.Dir(event.Name) != filepath.Clean(w.repo.Path) || !w.matches(base) {
		return false
	}

	key := w.keyOf(base)
	if info, err := os.Stat(event.Name); err == nil {
		w.unchanged(key, info.ModTime())
	}
	w.sendChange(ctx, key)
	return true
}

// sendChange schedules a debounced read of key. The value is read when the
// timer fires so a burst of writes yields the final content once.
func (w *watchWorker) sendChange(ctx context.Context, key string) {
	w.debouncer.add(key, func() {
		defer func() {
			// The channel may already be closed when the worker is stopping.
			_ = recover()
		}()

		d, found, err := w.repo.Get(ctx, key)
		if err != nil {
			// Editors may expose a partially written file; the next event carries the final one.
			w.reportError(fmt.Errorf("failed to read %s: %w", key, err))
			return
		}
		if !found {
			d = nil
		} else if d == nil {
			d = core.Dictionary{}
		}

		select {
		case w.events <- core.NewChange(key, d):
		case <-ctx.Done():
		}
	})
}

func (w *watchWorker) reportError(err error) {
	if w.repo.config.ErrorHandler != nil {
		w.repo.config.ErrorHandler(err)
		return
	}
	w.repo.config.Logger.Error("watcher error", "error", err)
}

// run is the main event loop for the watcher worker.
func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if w.onExit != nil {
			w.onExit()
		}
	}()
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)

			// Stack traces only at debug level.
			if w.repo.config.Logger.Enabled(ctx, slog.LevelDebug) {
				w.repo.config.Logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				w.repo.config.Logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer w.repo.watcherStopped()
	defer w.watcher.Close()

	err = w.mainEventLoop(ctx)

	// Stop accepting new events and wait for in-flight timers before the
	// channel can be closed by onExit.
	w.debouncer.stopAndWait(5 * time.Second)

	return err
}

func (w *watchWorker) mainEventLoop(ctx context.Context) error {
	gitLocked := false
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}

			if handled, locked := w.handleGitLockEvent(event, gitLocked); handled {
				wasLocked := gitLocked
				gitLocked = locked
				if wasLocked && !gitLocked {
					w.reconcile(ctx)
				}
				continue
			}

			if gitLocked {
				continue
			}

			w.processFilesystemEvent(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.reportError(wErr)
		}
	}
}

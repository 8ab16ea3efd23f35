package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/glossa/pkg/core"
	"github.com/aretw0/glossa/pkg/git"
)

const (
	// DefaultExt is the file format used when Config.Ext is empty.
	DefaultExt = ".json"
	// DefaultSystemDir names the lock file and ignore entries.
	DefaultSystemDir = ".glossa"
	// DefaultDebounce coalesces bursts of filesystem events.
	DefaultDebounce = 50 * time.Millisecond
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Repository implements core.Store with one file per key inside a directory,
// optionally versioned with git.
type Repository struct {
	Path       string
	git        *git.Client
	config     Config
	serializer Serializer

	writeMu sync.Mutex

	mu            sync.RWMutex
	watchers      int
	lastReconcile *time.Time
	lastCommit    *time.Time
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path         string
	Ext          string // ".json" (default), ".yaml", ".yml" or ".csv"
	AutoInit     bool   // create the git repository when Versioning is on
	Versioning   bool   // commit every Set
	MustExist    bool
	ReadOnly     bool
	Debounce     time.Duration
	Logger       *slog.Logger
	ErrorHandler func(error)
	SystemDir    string // e.g. ".glossa"
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.Ext == "" {
		config.Ext = DefaultExt
	}
	if !strings.HasPrefix(config.Ext, ".") {
		config.Ext = "." + config.Ext
	}
	config.Ext = strings.ToLower(config.Ext)
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}

	serializer, err := SerializerFor(config.Ext)
	if err != nil {
		config.Logger.Warn("unknown extension, falling back to json", "ext", config.Ext)
		config.Ext = DefaultExt
		serializer = JSONSerializer{}
	}

	return &Repository{
		Path:       config.Path,
		git:        git.NewClient(config.Path, config.SystemDir+".lock", config.Logger),
		config:     config,
		serializer: serializer,
	}
}

// Initialize performs the necessary setup for the repository (mkdir, git init).
func (r *Repository) Initialize(ctx context.Context) error {
	// 1. Directory Initialization
	if r.config.MustExist {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("store path does not exist: %s", r.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("store path is not a directory: %s", r.Path)
		}
	} else if err := os.MkdirAll(r.Path, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	if !r.config.Versioning {
		return nil
	}

	// 2. Git Initialization
	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed")
	}

	wasNewRepo := false
	if !r.git.IsRepo() {
		if !r.config.AutoInit {
			return fmt.Errorf("path is not a git repository: %s", r.Path)
		}
		if err := r.git.Init(); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
		wasNewRepo = true
	}

	mod, err := r.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}

	if mod && wasNewRepo {
		if err := r.git.Add(".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		if err := r.git.Commit(fmt.Sprintf("chore: configure %s ignore", r.config.SystemDir)); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}

	return nil
}

// ensureIgnore keeps the lock file and interrupted temp files out of history.
func (r *Repository) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(r.Path, ".gitignore")
	entries := []string{r.config.SystemDir + ".lock", TempFilePrefix + "*"}

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, e := range entries {
		if !present[e] {
			missing = append(missing, e)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !bytes.HasSuffix(content, []byte("\n")) {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := f.WriteString(strings.Join(missing, "\n") + "\n"); err != nil {
		return false, err
	}

	return true, nil
}

// filename maps a key to its file name inside Path.
func (r *Repository) filename(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return key + r.config.Ext, nil
}

// Get reads the file for key. A missing file is reported as not found.
func (r *Repository) Get(ctx context.Context, key string) (core.Dictionary, bool, error) {
	name, err := r.filename(key)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(filepath.Join(r.Path, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", name, err)
	}

	d, err := r.serializer.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return d, true, nil
}

// Set persists d under key.
//
// Workflow:
//  1. Reject writes in read-only mode.
//  2. Serialize and write atomically to disk.
//  3. (If versioning) 'git add' and 'git commit' with the reason from ctx.
func (r *Repository) Set(ctx context.Context, key string, d core.Dictionary) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}

	name, err := r.filename(key)
	if err != nil {
		return err
	}

	data, err := r.serializer.Serialize(d)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", name, err)
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if !r.config.Versioning {
		if err := writeFileAtomic(filepath.Join(r.Path, name), data, 0644); err != nil {
			return err
		}
		r.config.Logger.Debug("value stored", "key", key, "entries", len(d))
		return nil
	}

	unlock, err := r.git.Lock(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	if err := writeFileAtomic(filepath.Join(r.Path, name), data, 0644); err != nil {
		return err
	}

	changed, err := r.git.HasChanges(name)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if err := r.git.Add(name); err != nil {
		return err
	}

	msg := fmt.Sprintf("update %s (%d entries)", key, len(d))
	if reason, ok := ctx.Value(core.ChangeReasonKey).(string); ok && reason != "" {
		msg = reason
	}
	if err := r.git.Commit(msg); err != nil {
		return err
	}

	r.mu.Lock()
	now := time.Now()
	r.lastCommit = &now
	r.mu.Unlock()

	r.config.Logger.Debug("value committed", "key", key, "message", msg)
	return nil
}

// History lists the commit messages recorded for key, newest first.
func (r *Repository) History(ctx context.Context, key string, limit int) ([]string, error) {
	if !r.config.Versioning {
		return nil, fmt.Errorf("history requires versioning")
	}
	name, err := r.filename(key)
	if err != nil {
		return nil, err
	}
	return r.git.Log(name, limit)
}

// Watch streams changes to key until ctx is done. The watcher runs as a
// lifecycle worker; the returned channel is closed when it exits.
func (r *Repository) Watch(ctx context.Context, key string) (<-chan core.Change, error) {
	name, err := r.filename(key)
	if err != nil {
		return nil, err
	}

	events := make(chan core.Change, 16)
	w := newWatchWorker(r, name, events)
	w.onExit = func() { close(events) }

	if err := w.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start watcher: %w", err)
	}
	return events, nil
}

var _ core.Store = (*Repository)(nil)

package glossa

import (
	"log/slog"
	"time"

	"github.com/aretw0/glossa/internal/platform"
	"github.com/aretw0/glossa/pkg/core"
	"github.com/aretw0/glossa/pkg/scanner"
)

// --- Types ---

// Runtime is the wired set of components returned by New.
type Runtime = platform.Runtime

// Config is the on-disk configuration (glossa.yaml or glossa.toml).
type Config = platform.Config

// --- Configuration ---

// Option defines a functional option for configuring glossa.
type Option = platform.Option

// WithAdapter selects the store by name: "fs" (default), "sqlite" or "memory".
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithStore injects a custom store.
func WithStore(store core.Store) Option {
	return platform.WithStore(store)
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithAutoInit creates the store directory (and git repository) if missing.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithVersioning commits every dictionary write with git.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithMustExist requires the store directory to exist already.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithForceTemp re-roots the store under the system temp directory.
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the `go run` sandbox.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithReadOnly rejects every write.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithSystemDir names the lock file of the fs store.
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithFormat sets the fs store file format.
func WithFormat(ext string) Option {
	return platform.WithFormat(ext)
}

// WithDebounce sets the watch and rescan debounce.
func WithDebounce(d time.Duration) Option {
	return platform.WithDebounce(d)
}

// WithPollInterval sets the sqlite change poll interval.
func WithPollInterval(d time.Duration) Option {
	return platform.WithPollInterval(d)
}

// WithSendTimeout bounds every message sent over the bus.
func WithSendTimeout(d time.Duration) Option {
	return platform.WithSendTimeout(d)
}

// WithSearchLimit caps in-page search results.
func WithSearchLimit(n int) Option {
	return platform.WithSearchLimit(n)
}

// WithExcludeURLs replaces the tab URL globs that never receive updates.
func WithExcludeURLs(patterns ...string) Option {
	return platform.WithExcludeURLs(patterns...)
}

// WithBroadcastRate paces relay broadcasts.
func WithBroadcastRate(perSecond float64) Option {
	return platform.WithBroadcastRate(perSecond)
}

// WithWatcherErrorHandler receives runtime errors of the fs watcher.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New initializes the store at path and wires the runtime around it.
func New(path string, opts ...Option) (*Runtime, error) {
	return platform.New(path, opts...)
}

// Init opens and initializes a store without the rest of the runtime.
func Init(path string, opts ...Option) (core.Store, error) {
	return platform.Init(path, opts...)
}

// NewService opens the store at path and returns the service over it.
func NewService(path string, opts ...Option) (*core.Service, error) {
	store, err := platform.Init(path, opts...)
	if err != nil {
		return nil, err
	}
	return core.NewService(store), nil
}

// --- Pure helpers ---

// Highlight splits text into plain and matched segments for d.
func Highlight(text string, d core.Dictionary) []scanner.Segment {
	return scanner.Highlight(text, d)
}

// --- Safety & Utils ---

// LoadConfig reads glossa.yaml or glossa.toml from dir.
func LoadConfig(dir string) (Config, string, error) {
	return platform.LoadConfig(dir)
}

// ResolvePath determines where the store really lives under the dev sandbox.
func ResolvePath(userPath string, forceTemp bool) string {
	return platform.ResolvePath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindRoot looks upwards for a glossary root.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

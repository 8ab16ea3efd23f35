package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/glossa/pkg/core"
)

// options holds the internal configuration for a glossa runtime.
type options struct {
	store   core.Store
	logger  *slog.Logger
	adapter string
	config  map[string]any
}

// Option defines a functional option for configuring glossa.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter: "fs",
		config:  make(map[string]any),
	}
}

func (o *options) apply(opts []Option) *options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithAdapter selects the store by name: "fs" (default), "sqlite" or "memory".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithStore injects a store, skipping adapter construction.
func WithStore(store core.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithAutoInit creates the store directory (and git repository when
// versioned) if missing.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.config["auto_init"] = auto
	}
}

// WithVersioning commits every dictionary write with git. When not set,
// versioning follows the presence of a .git directory.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.config["versioning"] = enabled
	}
}

// WithMustExist requires the store directory to exist already.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithForceTemp re-roots the store under the system temp directory.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or
// `go test`. It is on by default.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}

// WithReadOnly rejects every write with core.ErrReadOnly.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// WithSystemDir names the lock file and ignore entries of the fs store.
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.config["system_dir"] = name
	}
}

// WithFormat sets the fs store file format: json, yaml or csv.
func WithFormat(ext string) Option {
	return func(o *options) {
		o.config["format"] = ext
	}
}

// WithDebounce sets both the fs watch debounce and the page rescan debounce.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.config["debounce"] = d
	}
}

// WithPollInterval sets how often the sqlite store checks for changes.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		o.config["poll_interval"] = d
	}
}

// WithSendTimeout bounds every message sent over the bus.
func WithSendTimeout(d time.Duration) Option {
	return func(o *options) {
		o.config["send_timeout"] = d
	}
}

// WithSearchLimit caps in-page search results.
func WithSearchLimit(n int) Option {
	return func(o *options) {
		o.config["search_limit"] = n
	}
}

// WithExcludeURLs replaces the tab URL globs that never receive updates.
func WithExcludeURLs(patterns ...string) Option {
	return func(o *options) {
		o.config["exclude_urls"] = patterns
	}
}

// WithBroadcastRate paces relay broadcasts to perSecond sends.
func WithBroadcastRate(perSecond float64) Option {
	return func(o *options) {
		o.config["broadcast_rate"] = perSecond
	}
}

// WithWatcherErrorHandler receives runtime errors of the fs watcher.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}

func (o *options) flag(key string) bool {
	v, _ := o.config[key].(bool)
	return v
}

func (o *options) duration(key string) time.Duration {
	v, _ := o.config[key].(time.Duration)
	return v
}

func (o *options) text(key string) string {
	v, _ := o.config[key].(string)
	return v
}

func (o *options) log() *slog.Logger {
	if o.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.logger
}

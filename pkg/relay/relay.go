// Package relay holds the authoritative dictionary snapshot for the
// background context, answers point queries for it, and pushes every stored
// change to the scanners of open tabs.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/time/rate"

	"github.com/aretw0/glossa/pkg/core"
	"github.com/aretw0/glossa/pkg/message"
	"github.com/aretw0/glossa/pkg/tabs"
)

// DefaultExcludeURLs are the tab URL globs never sent updates.
var DefaultExcludeURLs = []string{"chrome://**", "chrome-extension://**", "about:*"}

// ErrRunning is returned by Start on a relay that already runs.
var ErrRunning = errors.New("relay already running")

// Lister enumerates the open tabs.
type Lister interface {
	List() []tabs.Tab
}

// Reason tells Install why it runs.
type Reason string

const (
	ReasonInstall Reason = "install"
	ReasonUpdate  Reason = "update"
	ReasonReload  Reason = "reload"
)

// Relay mediates between the store and the page scanners.
type Relay struct {
	store   core.Store
	router  message.Router
	tabs    Lister
	key     string
	exclude []string
	limiter *rate.Limiter
	logger  *slog.Logger

	mu         sync.RWMutex
	dict       core.Dictionary
	running    bool
	cancel     context.CancelFunc
	done       chan struct{}
	unregister func()
	lastUpdate time.Time
	version    int64

	updates    atomic.Int64
	broadcasts atomic.Int64
	delivered  atomic.Int64
	missed     atomic.Int64
	skipped    atomic.Int64
}

// Option configures a Relay.
type Option func(*Relay)

// WithKey overrides the storage key. Defaults to core.DictionaryKey.
func WithKey(key string) Option {
	return func(r *Relay) { r.key = key }
}

// WithExcludeURLs replaces the URL globs skipped by Broadcast.
func WithExcludeURLs(patterns ...string) Option {
	return func(r *Relay) { r.exclude = patterns }
}

// WithBroadcastRate paces the per-tab sends of a broadcast.
func WithBroadcastRate(perSecond float64, burst int) Option {
	return func(r *Relay) {
		if perSecond > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) { r.logger = l }
}

// New creates a relay. It fails on malformed exclude globs.
func New(store core.Store, router message.Router, tabs Lister, opts ...Option) (*Relay, error) {
	r := &Relay{
		store:   store,
		router:  router,
		tabs:    tabs,
		key:     core.DictionaryKey,
		exclude: DefaultExcludeURLs,
		logger:  slog.Default(),
		dict:    core.Dictionary{},
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, p := range r.exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return r, nil
}

// Start subscribes to the store, loads the snapshot (empty when the key is
// absent), and registers the relay as the background receiver.
func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrRunning
	}

	runCtx, cancel := context.WithCancel(ctx)

	// Subscribe before loading so no change lands between the two.
	changes, err := r.store.Watch(runCtx, r.key)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to watch %s: %w", r.key, err)
	}
	d, _, err := r.store.Get(runCtx, r.key)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to load %s: %w", r.key, err)
	}
	if d == nil {
		d = core.Dictionary{}
	}
	r.dict = d
	r.lastUpdate = time.Now()
	r.logger.Info("dictionary loaded", "entries", len(d))

	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true
	r.unregister = r.router.Register(message.Background, message.HandlerFunc(r.Handle))

	done := r.done
	lifecycle.Go(runCtx, func(ctx context.Context) error {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return nil
			case c, ok := <-changes:
				if !ok {
					return nil
				}
				r.update(ctx, c.NewValue)
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		r.logger.Error("relay loop failed", "error", err)
	}))
	return nil
}

// Stop unregisters the relay and waits for its loop to exit.
func (r *Relay) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.unregister()
	r.cancel()
	done := r.done
	r.mu.Unlock()

	<-done
}

// update replaces the snapshot and pushes it. A removed key empties it.
func (r *Relay) update(ctx context.Context, d core.Dictionary) {
	if d == nil {
		d = core.Dictionary{}
	}
	r.mu.Lock()
	r.dict = d.Clone()
	r.lastUpdate = time.Now()
	r.version++
	r.mu.Unlock()

	r.updates.Add(1)
	r.logger.Info("dictionary updated", "entries", len(d))
	r.Broadcast(ctx)
}

// Install prepares storage for the given reason. Only a fresh install
// resets the dictionary; updates and reloads keep what is stored.
func (r *Relay) Install(ctx context.Context, reason Reason) error {
	if reason != ReasonInstall {
		r.logger.Debug("install skipped", "reason", reason)
		return nil
	}
	if err := r.store.Set(ctx, r.key, core.Dictionary{}); err != nil {
		return fmt.Errorf("failed to initialize %s: %w", r.key, err)
	}
	return nil
}

// Handle answers point queries from scanners and the settings surface.
func (r *Relay) Handle(_ context.Context, req message.Request) message.Response {
	switch req.(type) {
	case message.GetDictionary:
		d, v := r.versioned()
		return message.DictionaryResult{Dictionary: d, Version: v}
	case message.GetStats:
		s := r.Stats()
		return message.StatsResult{Total: s.Total, Active: s.Active}
	case message.Ping:
		return message.Pong{}
	default:
		return message.Unsupported(req)
	}
}

// Snapshot returns a copy of the current dictionary.
func (r *Relay) Snapshot() core.Dictionary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dict.Clone()
}

// versioned returns a copy of the snapshot and the update it came from.
func (r *Relay) versioned() (core.Dictionary, int64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dict.Clone(), r.version
}

// Stats counts the current snapshot.
func (r *Relay) Stats() core.Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dict.Stats()
}

// Excluded reports whether url never receives updates. Tabs without a URL
// are excluded too.
func (r *Relay) Excluded(url string) bool {
	if url == "" {
		return true
	}
	for _, p := range r.exclude {
		if ok, _ := doublestar.Match(p, url); ok {
			return true
		}
	}
	return false
}

// Broadcast pushes the snapshot to every eligible tab and returns how many
// scanners acknowledged it. Delivery is best-effort: tabs without a scanner
// are logged and never retried.
func (r *Relay) Broadcast(ctx context.Context) int {
	snapshot, version := r.versioned()
	r.broadcasts.Add(1)

	var (
		wg        sync.WaitGroup
		delivered atomic.Int64
	)
	for _, tab := range r.tabs.List() {
		if r.Excluded(tab.URL) {
			r.skipped.Add(1)
			continue
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				r.logger.Debug("broadcast interrupted", "error", err)
				break
			}
		}

		wg.Add(1)
		lifecycle.Go(ctx, func(ctx context.Context) error {
			defer wg.Done()
			resp := r.router.Send(ctx, message.Tab(tab.ID), message.DictionaryUpdated{Dictionary: snapshot.Clone(), Version: version})
			if u, ok := resp.(message.Unavailable); ok {
				r.missed.Add(1)
				r.logger.Debug("tab did not take update", "tab", tab.ID, "reason", u.Reason)
				return nil
			}
			delivered.Add(1)
			return nil
		}, lifecycle.WithErrorHandler(func(err error) {
			r.logger.Error("broadcast send failed", "tab", tab.ID, "error", err)
		}))
	}
	wg.Wait()

	n := int(delivered.Load())
	r.delivered.Add(int64(n))
	return n
}

// RelayState exposes internal state for observability.
type RelayState struct {
	Running    bool      `json:"running"`
	Entries    int       `json:"entries"`
	Active     int       `json:"active"`
	Version    int64     `json:"version"`
	Updates    int64     `json:"updates"`
	Broadcasts int64     `json:"broadcasts"`
	Delivered  int64     `json:"delivered"`
	Missed     int64     `json:"missed"`
	Skipped    int64     `json:"skipped"`
	LastUpdate time.Time `json:"last_update"`
	Exclude    []string  `json:"exclude"`
}

// State implements introspection.Introspectable.
func (r *Relay) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.dict.Stats()
	return RelayState{
		Running:    r.running,
		Entries:    s.Total,
		Active:     s.Active,
		Version:    r.version,
		Updates:    r.updates.Load(),
		Broadcasts: r.broadcasts.Load(),
		Delivered:  r.delivered.Load(),
		Missed:     r.missed.Load(),
		Skipped:    r.skipped.Load(),
		LastUpdate: r.lastUpdate,
		Exclude:    r.exclude,
	}
}

// ComponentType implements introspection.Component.
func (r *Relay) ComponentType() string {
	return "sync-relay"
}

var _ introspection.Introspectable = (*Relay)(nil)
var _ introspection.Component = (*Relay)(nil)

// Package memory provides an in-process core.Store with a synchronous change feed.
package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/aretw0/glossa/pkg/core"
)

// DefaultBuffer is the per-subscriber change buffer.
const DefaultBuffer = 16

// Store keeps values in a map. Every Set is fanned out to the watchers of its key.
type Store struct {
	mu       sync.RWMutex
	data     map[string]core.Dictionary
	watchers map[string]map[chan core.Change]struct{}
	buffer   int
	readOnly bool
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithBuffer sets the per-subscriber buffer size.
func WithBuffer(size int) Option {
	return func(s *Store) {
		if size > 0 {
			s.buffer = size
		}
	}
}

// WithReadOnly rejects writes with core.ErrReadOnly.
func WithReadOnly(enabled bool) Option {
	return func(s *Store) { s.readOnly = enabled }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		data:     make(map[string]core.Dictionary),
		watchers: make(map[string]map[chan core.Change]struct{}),
		buffer:   DefaultBuffer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize is a no-op.
func (s *Store) Initialize(ctx context.Context) error { return nil }

// Get returns a copy of the value under key.
func (s *Store) Get(ctx context.Context, key string) (core.Dictionary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return d.Clone(), true, nil
}

// Set stores a copy of d and notifies watchers.
func (s *Store) Set(ctx context.Context, key string, d core.Dictionary) error {
	if s.readOnly {
		return core.ErrReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = d.Clone()
	for ch := range s.watchers[key] {
		deliverLatest(ch, core.NewChange(key, d.Clone()))
	}

	if s.logger != nil {
		s.logger.Debug("value stored", "key", key, "entries", len(d))
	}
	return nil
}

// Watch subscribes to key until ctx is done.
func (s *Store) Watch(ctx context.Context, key string) (<-chan core.Change, error) {
	ch := make(chan core.Change, s.buffer)

	s.mu.Lock()
	if s.watchers[key] == nil {
		s.watchers[key] = make(map[chan core.Change]struct{})
	}
	s.watchers[key][ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers[key], ch)
		close(ch)
		s.mu.Unlock()
	}()

	return ch, nil
}

// deliverLatest never blocks the writer. When the subscriber is full the
// oldest pending change is dropped; each change carries the whole value so
// the newest one is all a subscriber needs.
func deliverLatest(ch chan core.Change, c core.Change) {
	select {
	case ch <- c:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- c:
	default:
	}
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	watchers := 0
	for _, set := range s.watchers {
		watchers += len(set)
	}
	return map[string]any{
		"keys":      len(s.data),
		"watchers":  watchers,
		"read_only": s.readOnly,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "memory-store"
}

var _ core.Store = (*Store)(nil)
var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)

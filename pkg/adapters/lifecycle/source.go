// Package lifecycle exposes store change feeds as lifecycle event sources.
package lifecycle

import (
	"context"
	"sync/atomic"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"

	"github.com/aretw0/glossa/pkg/core"
)

// Source turns a store change feed into lifecycle events. A change whose
// value equals the last one emitted is dropped, so consumers only see
// real dictionary edits.
type Source struct {
	changes <-chan core.Change
	out     chan lifecycle.Event

	emitted atomic.Int64
	dropped atomic.Int64
	running atomic.Bool
}

// SourceState is the introspection view of a Source.
type SourceState struct {
	Running bool  `json:"running"`
	Emitted int64 `json:"emitted"`
	Dropped int64 `json:"dropped"`
}

// NewSource wraps changes. Events are core.Change values.
func NewSource(changes <-chan core.Change) *Source {
	return &Source{
		changes: changes,
		out:     make(chan lifecycle.Event),
	}
}

// Events implements lifecycle.Source. The channel closes when the feed
// ends or the context passed to Start is done.
func (s *Source) Events() <-chan lifecycle.Event {
	return s.out
}

// Start implements lifecycle.Source.
func (s *Source) Start(ctx context.Context) error {
	s.running.Store(true)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		defer s.running.Store(false)

		var (
			last core.Dictionary
			seen bool
		)
		for {
			select {
			case <-ctx.Done():
				return nil
			case c, ok := <-s.changes:
				if !ok {
					return nil
				}
				if seen && (c.NewValue == nil) == (last == nil) && c.NewValue.Equal(last) {
					s.dropped.Add(1)
					continue
				}
				last, seen = c.NewValue, true

				select {
				case s.out <- c:
					s.emitted.Add(1)
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}

// State implements introspection.Introspectable.
func (s *Source) State() any {
	return SourceState{
		Running: s.running.Load(),
		Emitted: s.emitted.Load(),
		Dropped: s.dropped.Load(),
	}
}

// ComponentType implements introspection.Component.
func (s *Source) ComponentType() string {
	return "change-source"
}

var (
	_ lifecycle.Source             = (*Source)(nil)
	_ introspection.Introspectable = (*Source)(nil)
	_ introspection.Component      = (*Source)(nil)
)

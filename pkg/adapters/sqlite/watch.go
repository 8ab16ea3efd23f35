package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/glossa/pkg/core"
)

// Watch polls the version of key and emits the value whenever it advances.
// The first poll only seeds the version; no change is emitted for the
// value present at subscription time.
func (s *Store) Watch(ctx context.Context, key string) (<-chan core.Change, error) {
	seed, err := s.version(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("sqlite: watch %s: %w", key, err)
	}

	out := make(chan core.Change, 16)
	s.watchers.Add(1)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(out)
		defer s.watchers.Add(-1)

		ticker := time.NewTicker(s.cfg.interval)
		defer ticker.Stop()

		last := seed
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}

			s.checks.Add(1)
			cur, err := s.version(ctx, key)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.errors.Add(1)
				s.cfg.logger.Warn("sqlite: version check failed", "key", key, "error", err)
				continue
			}
			if cur == last {
				continue
			}

			d, found, err := s.Get(ctx, key)
			if err != nil {
				// Version is not advanced so the read is retried next tick.
				s.errors.Add(1)
				s.cfg.logger.Warn("sqlite: reload failed", "key", key, "error", err)
				continue
			}
			if !found {
				d = nil
			}

			last = cur
			s.changes.Add(1)

			select {
			case out <- core.NewChange(key, d):
			case <-ctx.Done():
				return nil
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		s.cfg.logger.Error("sqlite: watcher panic", "key", key, "error", err)
	}))

	return out, nil
}

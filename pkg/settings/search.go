package settings

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aretw0/glossa/pkg/core"
	"github.com/aretw0/glossa/pkg/message"
	"github.com/aretw0/glossa/pkg/scanner"
)

// SearchOnPage asks the scanner of tabID for matches of query. A tab that
// does not answer gets its scanner injected once and the query retried once;
// if the retry fails too the result is empty. Only a failed injection is an
// error.
func (s *Surface) SearchOnPage(ctx context.Context, tabID int, query string) ([]core.Match, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < scanner.MinQueryLength {
		return []core.Match{}, nil
	}

	req := message.SearchOnPage{Term: query}
	if matches, ok := s.ask(ctx, tabID, req); ok {
		return matches, nil
	}

	s.logger.Debug("scanner missing, injecting", "tab", tabID)
	if err := s.injector.Inject(ctx, tabID); err != nil {
		s.notifier.Notify(ctx, LevelError, "Could not load the scanner on this page")
		return nil, fmt.Errorf("failed to inject tab %d: %w", tabID, err)
	}

	select {
	case <-ctx.Done():
		return []core.Match{}, nil
	case <-time.After(s.retryDelay):
	}

	if matches, ok := s.ask(ctx, tabID, req); ok {
		return matches, nil
	}
	s.logger.Debug("retry unanswered", "tab", tabID)
	return []core.Match{}, nil
}

func (s *Surface) ask(ctx context.Context, tabID int, req message.SearchOnPage) ([]core.Match, bool) {
	resp := s.sender.Send(ctx, message.Tab(tabID), req)
	r, ok := resp.(message.SearchResult)
	if !ok {
		return nil, false
	}
	if r.Matches == nil {
		return []core.Match{}, true
	}
	return r.Matches, true
}

// QueueSearch runs SearchOnPage after the search debounce. A newer call
// before the delay elapses replaces the pending one, so only the last query
// typed is searched.
func (s *Surface) QueueSearch(ctx context.Context, tabID int, query string, fn func([]core.Match, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.search++
	gen := s.search
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		current := s.search == gen
		s.mu.Unlock()
		if !current {
			return
		}
		fn(s.SearchOnPage(ctx, tabID, query))
	})
}

// Probe reports whether tabID has a live scanner.
func (s *Surface) Probe(ctx context.Context, tabID int) bool {
	_, ok := s.sender.Send(ctx, message.Tab(tabID), message.Ping{}).(message.Pong)
	return ok
}

// Preview trims matches to what a result list shows.
func Preview(matches []core.Match) []core.Match {
	if len(matches) > DisplayLimit {
		return matches[:DisplayLimit]
	}
	return matches
}

// Close cancels a queued search.
func (s *Surface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search++
	if s.timer != nil {
		s.timer.Stop()
	}
}

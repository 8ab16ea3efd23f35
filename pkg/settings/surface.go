// Package settings is the user-facing surface over the dictionary: it adds,
// deletes and lists terms through core.Service and runs searches on open
// tabs.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/glossa/pkg/core"
	"github.com/aretw0/glossa/pkg/message"
)

const (
	// DefaultRetryDelay is the wait between re-injecting a scanner and
	// retrying the query.
	DefaultRetryDelay = 200 * time.Millisecond
	// DefaultSearchDebounce delays queued searches while the user types.
	DefaultSearchDebounce = 300 * time.Millisecond
	// DisplayLimit is the number of matches a result list shows.
	DisplayLimit = 5
)

// Injector re-injects the scanner of a tab on demand.
type Injector interface {
	Inject(ctx context.Context, tabID int) error
}

// Surface is the settings popup without its rendering.
type Surface struct {
	service  *core.Service
	sender   message.Sender
	injector Injector
	notifier Notifier
	logger   *slog.Logger

	retryDelay time.Duration
	debounce   time.Duration
	perPage    int

	mu     sync.Mutex
	timer  *time.Timer
	search uint64
}

// Option configures a Surface.
type Option func(*Surface)

// WithNotifier sets where notifications go. Defaults to the logger.
func WithNotifier(n Notifier) Option {
	return func(s *Surface) { s.notifier = n }
}

// WithRetryDelay sets the wait before the retried query.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Surface) { s.retryDelay = d }
}

// WithSearchDebounce sets the QueueSearch delay.
func WithSearchDebounce(d time.Duration) Option {
	return func(s *Surface) { s.debounce = d }
}

// WithPerPage sets the listing page size.
func WithPerPage(n int) Option {
	return func(s *Surface) { s.perPage = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Surface) { s.logger = l }
}

// New creates a Surface.
func New(service *core.Service, sender message.Sender, injector Injector, opts ...Option) *Surface {
	s := &Surface{
		service:    service,
		sender:     sender,
		injector:   injector,
		logger:     slog.Default(),
		retryDelay: DefaultRetryDelay,
		debounce:   DefaultSearchDebounce,
		perPage:    core.DefaultPerPage,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = LogNotifier{Logger: s.logger}
	}
	return s
}

// AddTerm validates and stores a new term, notifying the outcome.
func (s *Surface) AddTerm(ctx context.Context, term, definition string) (core.Term, error) {
	t, err := s.service.AddTerm(ctx, term, definition)
	if err != nil {
		s.notifier.Notify(ctx, LevelError, describe(err))
		return core.Term{}, err
	}
	s.notifier.Notify(ctx, LevelSuccess, fmt.Sprintf("Term %q added", t.Term))
	return t, nil
}

// DeleteTerm removes a term by id.
func (s *Surface) DeleteTerm(ctx context.Context, id int64) (bool, error) {
	ok, err := s.service.DeleteTerm(ctx, id)
	if err != nil {
		s.notifier.Notify(ctx, LevelError, describe(err))
		return false, err
	}
	if ok {
		s.notifier.Notify(ctx, LevelSuccess, "Term deleted")
	}
	return ok, nil
}

// List filters the dictionary by query and returns one page of it.
func (s *Surface) List(ctx context.Context, query string, page int) (core.PageView, error) {
	items, err := s.service.ListTerms(ctx, query)
	if err != nil {
		return core.PageView{}, err
	}
	return core.Paginate(items, page, s.perPage), nil
}

// Total is the number of stored terms.
func (s *Surface) Total(ctx context.Context) (int, error) {
	st, err := s.service.Stats(ctx)
	if err != nil {
		return 0, err
	}
	return st.Total, nil
}

// describe turns validation errors into user-facing text.
func describe(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyTerm):
		return "Enter a term"
	case errors.Is(err, core.ErrEmptyDefinition):
		return "Enter a definition"
	case errors.Is(err, core.ErrDuplicateTerm):
		return "This term is already in the dictionary"
	case errors.Is(err, core.ErrReadOnly):
		return "The dictionary is read-only"
	default:
		return err.Error()
	}
}

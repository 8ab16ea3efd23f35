package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultPerPage is the listing page size.
const DefaultPerPage = 10

// Service handles the business logic for the dictionary: it is the only
// component that mutates it.
type Service struct {
	store Store
	key   string
	now   func() time.Time
	mu    sync.Mutex

	writes   atomic.Int64
	rejected atomic.Int64
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the time source used for ids and timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithKey overrides the storage key. Defaults to DictionaryKey.
func WithKey(key string) ServiceOption {
	return func(s *Service) { s.key = key }
}

// NewService creates a new Service.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store: store,
		key:   DictionaryKey,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying store.
func (s *Service) Store() Store { return s.store }

// Dictionary loads the current dictionary. An absent key yields an empty one.
func (s *Service) Dictionary(ctx context.Context) (Dictionary, error) {
	d, _, err := s.store.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}
	if d == nil {
		d = Dictionary{}
	}
	return d, nil
}

// AddTerm validates and appends a new record.
// Validation failures leave the stored dictionary untouched.
func (s *Service) AddTerm(ctx context.Context, term, definition string) (Term, error) {
	term = strings.TrimSpace(term)
	definition = strings.TrimSpace(definition)

	if term == "" {
		s.rejected.Add(1)
		return Term{}, ErrEmptyTerm
	}
	if definition == "" {
		s.rejected.Add(1)
		return Term{}, ErrEmptyDefinition
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.Dictionary(ctx)
	if err != nil {
		return Term{}, err
	}
	if d.Contains(term) {
		s.rejected.Add(1)
		return Term{}, fmt.Errorf("%w: %q", ErrDuplicateTerm, term)
	}

	now := s.now()
	t := Term{
		ID:        s.nextID(d, now),
		Term:      term,
		Comment:   definition,
		DateAdded: now.UTC(),
	}

	next := append(d.Clone(), t)
	if err := s.store.Set(ctx, s.key, next); err != nil {
		return Term{}, fmt.Errorf("save dictionary: %w", err)
	}
	s.writes.Add(1)
	return t, nil
}

// DeleteTerm removes the record with id. Removing an unknown id is a no-op
// and reports false.
func (s *Service) DeleteTerm(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.Dictionary(ctx)
	if err != nil {
		return false, err
	}
	idx := d.IndexOf(id)
	if idx < 0 {
		return false, nil
	}

	next := make(Dictionary, 0, len(d)-1)
	next = append(next, d[:idx]...)
	next = append(next, d[idx+1:]...)
	if err := s.store.Set(ctx, s.key, next); err != nil {
		return false, fmt.Errorf("save dictionary: %w", err)
	}
	s.writes.Add(1)
	return true, nil
}

// ImportTerms appends records whose term is not already present.
// Records missing an id or date get fresh ones. It returns the number imported.
func (s *Service) ImportTerms(ctx context.Context, terms []Term) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.Dictionary(ctx)
	if err != nil {
		return 0, err
	}

	next := d.Clone()
	imported := 0
	for _, t := range terms {
		t.Term = strings.TrimSpace(t.Term)
		t.Comment = strings.TrimSpace(t.Comment)
		if t.Term == "" || next.Contains(t.Term) {
			continue
		}
		now := s.now()
		if t.ID == 0 || next.IndexOf(t.ID) >= 0 {
			t.ID = s.nextID(next, now)
		}
		if t.DateAdded.IsZero() {
			t.DateAdded = now.UTC()
		}
		next = append(next, t)
		imported++
	}

	if imported == 0 {
		return 0, nil
	}
	if err := s.store.Set(ctx, s.key, next); err != nil {
		return 0, fmt.Errorf("save dictionary: %w", err)
	}
	s.writes.Add(1)
	return imported, nil
}

// ListTerms returns the records matching query (see Dictionary.Filter).
func (s *Service) ListTerms(ctx context.Context, query string) (Dictionary, error) {
	d, err := s.Dictionary(ctx)
	if err != nil {
		return nil, err
	}
	return d.Filter(query), nil
}

// Stats reports total and active counts of the stored dictionary.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	d, err := s.Dictionary(ctx)
	if err != nil {
		return Stats{}, err
	}
	return d.Stats(), nil
}

// Watch observes changes to the dictionary key.
func (s *Service) Watch(ctx context.Context) (<-chan Change, error) {
	return s.store.Watch(ctx, s.key)
}

// nextID derives an id from the creation time, bumping past any id already in use.
func (s *Service) nextID(d Dictionary, now time.Time) int64 {
	id := now.UnixMilli()
	for _, t := range d {
		if t.ID >= id {
			id = t.ID + 1
		}
	}
	return id
}

// PageView is one page of a listing.
type PageView struct {
	Items      Dictionary `json:"items"`
	Page       int        `json:"page"`
	TotalPages int        `json:"totalPages"`
}

// Paginate slices items into 1-based pages of perPage records.
// Out-of-range pages are clamped.
func Paginate(items Dictionary, page, perPage int) PageView {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	total := (len(items) + perPage - 1) / perPage
	if total == 0 {
		return PageView{Items: Dictionary{}, Page: 1, TotalPages: 0}
	}
	if page < 1 {
		page = 1
	}
	if page > total {
		page = total
	}
	start := (page - 1) * perPage
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return PageView{Items: items[start:end], Page: page, TotalPages: total}
}

// Package tabs tracks open pages and attaches scanners to them.
package tabs

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/introspection"

	"github.com/aretw0/glossa/pkg/core"
	"github.com/aretw0/glossa/pkg/message"
	"github.com/aretw0/glossa/pkg/scanner"
)

// Tab identifies an open page.
type Tab struct {
	ID  int    `json:"id"`
	URL string `json:"url"`
}

type entry struct {
	tab  Tab
	page *scanner.Page
}

// Registry owns the open tabs. Scanners are attached on demand with Inject,
// which is also the recovery path when a tab's scanner is gone.
type Registry struct {
	router message.Router
	page   scanner.Config
	logger *slog.Logger

	mu     sync.RWMutex
	tabs   map[int]*entry
	nextID int
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger handed to the registry and its scanners.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithDebounce sets the rescan debounce of new scanners.
func WithDebounce(d time.Duration) Option {
	return func(r *Registry) { r.page.Debounce = d }
}

// WithLoadDelay sets the delay of the second dictionary fetch.
func WithLoadDelay(d time.Duration) Option {
	return func(r *Registry) { r.page.LoadDelay = d }
}

// WithSearchLimit caps in-page search results.
func WithSearchLimit(n int) Option {
	return func(r *Registry) { r.page.SearchLimit = n }
}

// New creates an empty registry whose scanners talk over router.
func New(router message.Router, opts ...Option) *Registry {
	r := &Registry{
		router: router,
		logger: slog.Default(),
		tabs:   make(map[int]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open parses src and registers it as a new tab. No scanner runs until
// Inject is called.
func (r *Registry) Open(url, src string) (Tab, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	tab := Tab{ID: r.nextID, URL: url}

	cfg := r.page
	cfg.TabID = tab.ID
	cfg.Router = r.router
	cfg.Logger = r.logger

	page, err := scanner.Parse(strings.NewReader(src), cfg)
	if err != nil {
		r.nextID--
		return Tab{}, fmt.Errorf("failed to open %s: %w", url, err)
	}
	r.tabs[tab.ID] = &entry{tab: tab, page: page}
	r.logger.Debug("tab opened", "tab", tab.ID, "url", url)
	return tab, nil
}

// Inject attaches the scanner of tab id and schedules its delayed fetch.
// Injecting an attached scanner is a no-op.
func (r *Registry) Inject(ctx context.Context, id int) error {
	page, ok := r.Page(id)
	if !ok {
		return fmt.Errorf("tab %d: %w", id, core.ErrNotFound)
	}
	if page.State().(scanner.PageState).Attached {
		return nil
	}
	if err := page.Attach(ctx); err != nil {
		return fmt.Errorf("failed to inject tab %d: %w", id, err)
	}
	page.AfterLoad()
	r.logger.Debug("scanner injected", "tab", id)
	return nil
}

// Suspend detaches the scanner of tab id but keeps the tab open, like a
// page whose content script was torn down.
func (r *Registry) Suspend(id int) error {
	page, ok := r.Page(id)
	if !ok {
		return fmt.Errorf("tab %d: %w", id, core.ErrNotFound)
	}
	page.Detach()
	return nil
}

// Page returns the scanner of tab id.
func (r *Registry) Page(id int) (*scanner.Page, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tabs[id]
	if !ok {
		return nil, false
	}
	return e.page, true
}

// HTML renders the document of tab id.
func (r *Registry) HTML(id int) (string, error) {
	page, ok := r.Page(id)
	if !ok {
		return "", fmt.Errorf("tab %d: %w", id, core.ErrNotFound)
	}
	return page.HTML(), nil
}

// List returns the open tabs ordered by id.
func (r *Registry) List() []Tab {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tab, 0, len(r.tabs))
	for _, e := range r.tabs {
		out = append(out, e.tab)
	}
	slices.SortFunc(out, func(a, b Tab) int { return a.ID - b.ID })
	return out
}

// Close detaches and forgets tab id. Closing an unknown tab is a no-op.
func (r *Registry) Close(id int) {
	r.mu.Lock()
	e, ok := r.tabs[id]
	delete(r.tabs, id)
	r.mu.Unlock()

	if ok {
		e.page.Detach()
		r.logger.Debug("tab closed", "tab", id)
	}
}

// CloseAll closes every tab.
func (r *Registry) CloseAll() {
	for _, t := range r.List() {
		r.Close(t.ID)
	}
}

// RegistryState exposes internal state for observability.
type RegistryState struct {
	Open     int                 `json:"open"`
	Attached int                 `json:"attached"`
	Pages    []scanner.PageState `json:"pages"`
}

// State implements introspection.Introspectable.
func (r *Registry) State() any {
	st := RegistryState{}
	for _, t := range r.List() {
		page, ok := r.Page(t.ID)
		if !ok {
			continue
		}
		ps := page.State().(scanner.PageState)
		st.Open++
		if ps.Attached {
			st.Attached++
		}
		st.Pages = append(st.Pages, ps)
	}
	return st
}

// ComponentType implements introspection.Component.
func (r *Registry) ComponentType() string {
	return "tab-registry"
}

var _ introspection.Introspectable = (*Registry)(nil)
var _ introspection.Component = (*Registry)(nil)

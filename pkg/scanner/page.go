package scanner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"
	"golang.org/x/net/html"

	"github.com/aretw0/glossa/pkg/core"
	"github.com/aretw0/glossa/pkg/message"
)

const (
	// DefaultDebounce delays the rescan that follows page mutations.
	DefaultDebounce = 100 * time.Millisecond
	// DefaultLoadDelay is the wait before the second dictionary fetch after load.
	DefaultLoadDelay = 500 * time.Millisecond
)

// Config configures a Page.
type Config struct {
	TabID       int
	Router      message.Router
	Debounce    time.Duration
	LoadDelay   time.Duration
	SearchLimit int
	Logger      *slog.Logger
}

// Page is the scanner attached to one tab. It owns the document and its
// dictionary snapshot; every callback runs under one mutex.
type Page struct {
	cfg Config

	mu         sync.Mutex
	doc        *html.Node
	dict       core.Dictionary
	matcher    *Matcher
	unregister func()
	ctx        context.Context
	cancel     context.CancelFunc
	attached   bool

	// rescan state, see rescan.go
	pending bool
	timer   *time.Timer

	// version of the applied snapshot; older pushes are dropped
	version int64

	applies int
	loads   int
	stale   int
}

// NewPage wraps an already parsed document.
func NewPage(doc *html.Node, cfg Config) *Page {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.LoadDelay <= 0 {
		cfg.LoadDelay = DefaultLoadDelay
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = DefaultSearchLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	cfg.Logger = cfg.Logger.With("tab", cfg.TabID)

	return &Page{
		cfg:     cfg,
		doc:     doc,
		dict:    core.Dictionary{},
		matcher: Compile(nil),
	}
}

// Parse reads an HTML document and wraps it in a Page.
func Parse(r io.Reader, cfg Config) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return NewPage(doc, cfg), nil
}

// Attach registers the page on the router for its tab and loads the
// dictionary from the relay. A missing relay is logged, not fatal: the next
// push or AfterLoad fetch fills the snapshot.
func (p *Page) Attach(ctx context.Context) error {
	if p.cfg.Router == nil {
		return fmt.Errorf("page %d has no router", p.cfg.TabID)
	}

	p.mu.Lock()
	if p.attached {
		p.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.ctx, p.cancel = runCtx, cancel
	p.unregister = p.cfg.Router.Register(message.Tab(p.cfg.TabID), message.HandlerFunc(p.Handle))
	p.attached = true
	p.mu.Unlock()

	if err := p.Load(runCtx); err != nil {
		p.cfg.Logger.Debug("initial dictionary load failed", "error", err)
	}
	return nil
}

// Load fetches the dictionary from the relay and applies it.
func (p *Page) Load(ctx context.Context) error {
	resp := p.cfg.Router.Send(ctx, message.Background, message.GetDictionary{})
	switch r := resp.(type) {
	case message.DictionaryResult:
		p.mu.Lock()
		defer p.mu.Unlock()
		p.loads++
		p.update(r.Dictionary, r.Version)
		return nil
	case message.Unavailable:
		return fmt.Errorf("%w: %s", core.ErrUnavailable, r.Reason)
	default:
		return fmt.Errorf("unexpected response %T", resp)
	}
}

// AfterLoad schedules the second fetch that catches content rendered after
// the initial scan.
func (p *Page) AfterLoad() {
	p.mu.Lock()
	ctx, delay := p.ctx, p.cfg.LoadDelay
	p.mu.Unlock()
	if ctx == nil {
		return
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		return p.Load(ctx)
	}, lifecycle.WithErrorHandler(func(err error) {
		p.cfg.Logger.Debug("delayed dictionary load failed", "error", err)
	}))
}

// Handle answers requests addressed to this tab.
func (p *Page) Handle(ctx context.Context, req message.Request) message.Response {
	switch r := req.(type) {
	case message.DictionaryUpdated:
		p.mu.Lock()
		defer p.mu.Unlock()
		p.update(r.Dictionary, r.Version)
		return message.Received{}
	case message.SearchOnPage:
		return message.SearchResult{Matches: p.Search(r.Term)}
	case message.Ping:
		return message.Pong{}
	default:
		return message.Unsupported(req)
	}
}

// update replaces the snapshot and rescans the whole body. A snapshot older
// than the applied one is dropped. When the set of active terms changes every
// tag is cleared first, since a new term may claim text an old one tagged.
// Callers hold mu.
func (p *Page) update(d core.Dictionary, version int64) {
	if version < p.version {
		p.stale++
		p.cfg.Logger.Debug("stale dictionary dropped", "version", version, "current", p.version)
		return
	}
	p.version = version

	prev := p.matcher.Terms()
	p.dict = d.Clone()
	p.matcher = Compile(p.dict)

	var updated, removed int
	if slices.Equal(prev, p.matcher.Terms()) {
		updated, removed = Refresh(p.doc, p.dict)
	} else {
		removed = Clear(p.doc)
	}
	created := p.apply()
	p.cfg.Logger.Debug("dictionary applied",
		"version", version, "entries", len(p.dict), "active", p.matcher.Len(),
		"created", created, "updated", updated, "removed", removed)
}

// apply runs one replacement pass. Callers hold mu.
func (p *Page) apply() int {
	if p.matcher.Empty() {
		return 0
	}
	p.applies++
	created := ApplyMatcher(p.doc, p.matcher)
	EnsureStyles(p.doc)
	return created
}

// Search runs an in-page search with the configured limit.
func (p *Page) Search(query string) []core.Match {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Search(p.doc, query, p.cfg.SearchLimit)
}

// Insert parses fragment in the context of the first element matching
// selector and appends the result to it, like a page script would. It
// returns the number of top-level nodes added.
func (p *Page) Insert(selector, fragment string) (int, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return 0, fmt.Errorf("invalid selector %q: %w", selector, err)
	}

	p.mu.Lock()
	parent := sel.MatchFirst(p.doc)
	if parent == nil {
		p.mu.Unlock()
		return 0, fmt.Errorf("no element matches %q", selector)
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), parent)
	if err != nil {
		p.mu.Unlock()
		return 0, fmt.Errorf("failed to parse fragment: %w", err)
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	p.mu.Unlock()

	p.NotifyMutation(len(nodes))
	return len(nodes), nil
}

// AppendHTML appends fragment to the body.
func (p *Page) AppendHTML(fragment string) (int, error) {
	return p.Insert("body", fragment)
}

// HTML renders the current document.
func (p *Page) HTML() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var buf bytes.Buffer
	if err := html.Render(&buf, p.doc); err != nil {
		p.cfg.Logger.Error("render failed", "error", err)
	}
	return buf.String()
}

// Snapshot returns a copy of the page's dictionary.
func (p *Page) Snapshot() core.Dictionary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dict.Clone()
}

// Detach unregisters the page and stops its timers.
func (p *Page) Detach() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.unregister != nil {
		p.unregister()
		p.unregister = nil
	}
	if p.cancel != nil {
		p.cancel()
		p.ctx, p.cancel = nil, nil
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	p.pending = false
	p.attached = false
}

// PageState exposes internal state for observability.
type PageState struct {
	TabID         int      `json:"tab_id"`
	Attached      bool     `json:"attached"`
	Version       int64    `json:"version"`
	Entries       int      `json:"entries"`
	ActiveTerms   int      `json:"active_terms"`
	Terms         []string `json:"terms,omitempty"`
	Tagged        int      `json:"tagged"`
	Applies       int      `json:"applies"`
	Loads         int      `json:"loads"`
	Stale         int      `json:"stale"`
	PendingRescan bool     `json:"pending_rescan"`
}

// State implements introspection.Introspectable.
func (p *Page) State() any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PageState{
		TabID:         p.cfg.TabID,
		Attached:      p.attached,
		Version:       p.version,
		Entries:       len(p.dict),
		ActiveTerms:   p.matcher.Len(),
		Terms:         p.matcher.Terms(),
		Tagged:        Count(p.doc),
		Applies:       p.applies,
		Loads:         p.loads,
		Stale:         p.stale,
		PendingRescan: p.pending,
	}
}

// ComponentType implements introspection.Component.
func (p *Page) ComponentType() string {
	return "page-scanner"
}

var _ introspection.Introspectable = (*Page)(nil)
var _ introspection.Component = (*Page)(nil)

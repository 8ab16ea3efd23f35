package message

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"
	"github.com/google/uuid"
)

// DefaultTimeout bounds how long Send waits for a handler.
const DefaultTimeout = time.Second

// Target addresses a receiver on the bus.
type Target string

// Background is the relay's address.
const Background Target = "background"

// Tab addresses the scanner of a tab.
func Tab(id int) Target {
	return Target(fmt.Sprintf("tab:%d", id))
}

// Handler answers requests delivered to a target.
type Handler interface {
	Handle(ctx context.Context, req Request) Response
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req Request) Response

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Sender delivers a request and waits for at most one response.
type Sender interface {
	Send(ctx context.Context, to Target, req Request) Response
}

// Router is a Sender that receivers can register on.
type Router interface {
	Sender
	Register(to Target, h Handler) (unregister func())
}

type registration struct {
	handler Handler
}

// Bus is an in-process Router. Handlers run on their own goroutine so a slow
// or stuck receiver only costs the sender its timeout.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Target]*registration
	timeout  time.Duration
	logger   *slog.Logger

	sent        int64
	unavailable int64
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithTimeout bounds how long Send waits for a handler.
func WithTimeout(d time.Duration) BusOption {
	return func(b *Bus) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) BusOption {
	return func(b *Bus) { b.logger = l }
}

// NewBus creates an empty Bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		handlers: make(map[Target]*registration),
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register installs h as the receiver for to, replacing any previous one.
// The returned func removes this registration only.
func (b *Bus) Register(to Target, h Handler) func() {
	reg := &registration{handler: h}

	b.mu.Lock()
	b.handlers[to] = reg
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.handlers[to] == reg {
			delete(b.handlers, to)
		}
	}
}

// Send delivers req to the receiver registered for to. It never blocks past
// the bus timeout or ctx; those cases and a missing receiver yield Unavailable.
func (b *Bus) Send(ctx context.Context, to Target, req Request) Response {
	b.mu.Lock()
	b.sent++
	reg := b.handlers[to]
	b.mu.Unlock()

	id := uuid.NewString()
	log := b.logger.With("request_id", id, "to", string(to), "action", string(req.Action()))

	if reg == nil {
		return b.fail(log, "no listener")
	}
	if err := ctx.Err(); err != nil {
		return b.fail(log, err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	// Buffered so a late handler never blocks after Send gave up.
	done := make(chan Response, 1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		done <- reg.handler.Handle(ctx, req)
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		log.Error("handler panic", "error", err)
		done <- Unavailable{Reason: "handler failed"}
	}))

	select {
	case resp := <-done:
		if resp == nil {
			return b.fail(log, "no response")
		}
		if u, ok := resp.(Unavailable); ok {
			return b.fail(log, u.Reason)
		}
		log.Debug("message delivered")
		return resp
	case <-ctx.Done():
		return b.fail(log, ctx.Err().Error())
	}
}

func (b *Bus) fail(log *slog.Logger, reason string) Unavailable {
	b.mu.Lock()
	b.unavailable++
	b.mu.Unlock()
	log.Debug("message unavailable", "reason", reason)
	return Unavailable{Reason: reason}
}

// Targets lists the registered receivers.
func (b *Bus) Targets() []Target {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Target, 0, len(b.handlers))
	for t := range b.handlers {
		out = append(out, t)
	}
	return out
}

// BusState exposes internal state for observability.
type BusState struct {
	Receivers   int    `json:"receivers"`
	Sent        int64  `json:"sent"`
	Unavailable int64  `json:"unavailable"`
	Timeout     string `json:"timeout"`
}

// State implements introspection.Introspectable.
func (b *Bus) State() any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return BusState{
		Receivers:   len(b.handlers),
		Sent:        b.sent,
		Unavailable: b.unavailable,
		Timeout:     b.timeout.String(),
	}
}

// ComponentType implements introspection.Component.
func (b *Bus) ComponentType() string {
	return "message-bus"
}

var _ Router = (*Bus)(nil)
var _ introspection.Introspectable = (*Bus)(nil)
var _ introspection.Component = (*Bus)(nil)

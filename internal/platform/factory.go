package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/introspection"

	"github.com/aretw0/glossa/pkg/core"
	"github.com/aretw0/glossa/pkg/message"
	"github.com/aretw0/glossa/pkg/relay"
	"github.com/aretw0/glossa/pkg/settings"
	"github.com/aretw0/glossa/pkg/tabs"
)

// Runtime is the wired set of components: the store and the service that
// mutates it, the bus, the relay, the open tabs and the settings surface.
type Runtime struct {
	Store    core.Store
	Service  *core.Service
	Bus      *message.Bus
	Relay    *relay.Relay
	Tabs     *tabs.Registry
	Settings *settings.Surface
}

// New initializes the store at uri and wires the components around it.
// Nothing runs until Start.
//
//	rt, err := glossa.New("./glossary", glossa.WithAutoInit(true))
func New(uri string, opts ...Option) (*Runtime, error) {
	store, err := Init(uri, opts...)
	if err != nil {
		return nil, err
	}

	o := defaultOptions().apply(opts)
	logger := o.log()

	bus := message.NewBus(
		message.WithTimeout(o.duration("send_timeout")),
		message.WithLogger(logger.With("component", "bus")),
	)

	tabOpts := []tabs.Option{tabs.WithLogger(logger.With("component", "scanner"))}
	if d := o.duration("debounce"); d > 0 {
		tabOpts = append(tabOpts, tabs.WithDebounce(d))
	}
	if n, ok := o.config["search_limit"].(int); ok {
		tabOpts = append(tabOpts, tabs.WithSearchLimit(n))
	}
	registry := tabs.New(bus, tabOpts...)

	relayOpts := []relay.Option{relay.WithLogger(logger.With("component", "relay"))}
	if patterns, ok := o.config["exclude_urls"].([]string); ok {
		relayOpts = append(relayOpts, relay.WithExcludeURLs(patterns...))
	}
	if r, ok := o.config["broadcast_rate"].(float64); ok {
		relayOpts = append(relayOpts, relay.WithBroadcastRate(r, 1))
	}
	rel, err := relay.New(store, bus, registry, relayOpts...)
	if err != nil {
		closeStore(store)
		return nil, err
	}

	service := core.NewService(store)

	return &Runtime{
		Store:   store,
		Service: service,
		Bus:     bus,
		Relay:   rel,
		Tabs:    registry,
		Settings: settings.New(service, bus, registry,
			settings.WithLogger(logger.With("component", "settings"))),
	}, nil
}

// Start runs the relay.
func (rt *Runtime) Start(ctx context.Context) error {
	if err := rt.Relay.Start(ctx); err != nil {
		return fmt.Errorf("failed to start relay: %w", err)
	}
	return nil
}

// Close stops every component and releases the store.
func (rt *Runtime) Close() error {
	rt.Settings.Close()
	rt.Relay.Stop()
	rt.Tabs.CloseAll()
	return closeStore(rt.Store)
}

// Open opens a tab and injects its scanner unless the relay excludes its URL.
func (rt *Runtime) Open(ctx context.Context, url, src string) (tabs.Tab, error) {
	tab, err := rt.Tabs.Open(url, src)
	if err != nil {
		return tabs.Tab{}, err
	}
	if rt.Relay.Excluded(url) {
		return tab, nil
	}
	if err := rt.Tabs.Inject(ctx, tab.ID); err != nil {
		return tab, err
	}
	return tab, nil
}

// State gathers the introspection state of every component.
func (rt *Runtime) State() map[string]any {
	out := map[string]any{
		rt.Bus.ComponentType():     rt.Bus.State(),
		rt.Relay.ComponentType():   rt.Relay.State(),
		rt.Tabs.ComponentType():    rt.Tabs.State(),
		rt.Service.ComponentType(): rt.Service.State(),
	}
	if c, ok := rt.Store.(introspection.Component); ok {
		if i, ok := rt.Store.(introspection.Introspectable); ok {
			out[c.ComponentType()] = i.State()
		}
	}
	return out
}

func closeStore(store core.Store) error {
	c, ok := store.(core.Closer)
	if !ok {
		return nil
	}
	return c.Close()
}

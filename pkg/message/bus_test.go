package message_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/glossa/pkg/message"
)

func TestBus_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("No listener", func(t *testing.T) {
		bus := message.NewBus()
		resp := bus.Send(ctx, message.Tab(1), message.Ping{})
		require.True(t, message.IsUnavailable(resp))
		assert.Equal(t, "no listener", resp.(message.Unavailable).Reason)
	})

	t.Run("Delivers to the registered target", func(t *testing.T) {
		bus := message.NewBus()
		bus.Register(message.Tab(1), message.HandlerFunc(func(ctx context.Context, req message.Request) message.Response {
			return message.Pong{}
		}))

		assert.Equal(t, message.Pong{}, bus.Send(ctx, message.Tab(1), message.Ping{}))
		assert.True(t, message.IsUnavailable(bus.Send(ctx, message.Tab(2), message.Ping{})))
	})

	t.Run("Slow handler times out", func(t *testing.T) {
		bus := message.NewBus(message.WithTimeout(30 * time.Millisecond))
		release := make(chan struct{})
		defer close(release)
		bus.Register(message.Background, message.HandlerFunc(func(ctx context.Context, req message.Request) message.Response {
			<-release
			return message.Pong{}
		}))

		start := time.Now()
		resp := bus.Send(ctx, message.Background, message.Ping{})
		assert.True(t, message.IsUnavailable(resp))
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("Cancelled context", func(t *testing.T) {
		bus := message.NewBus()
		bus.Register(message.Background, message.HandlerFunc(func(ctx context.Context, req message.Request) message.Response {
			<-ctx.Done()
			return message.Pong{}
		}))

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.True(t, message.IsUnavailable(bus.Send(cctx, message.Background, message.Ping{})))
	})

	t.Run("Nil response is unavailable", func(t *testing.T) {
		bus := message.NewBus()
		bus.Register(message.Background, message.HandlerFunc(func(ctx context.Context, req message.Request) message.Response {
			return nil
		}))
		assert.True(t, message.IsUnavailable(bus.Send(ctx, message.Background, message.Ping{})))
	})
}

func TestBus_Unregister(t *testing.T) {
	ctx := context.Background()
	bus := message.NewBus()

	pong := message.HandlerFunc(func(ctx context.Context, req message.Request) message.Response {
		return message.Pong{}
	})

	first := bus.Register(message.Tab(3), pong)
	second := bus.Register(message.Tab(3), pong)

	// A stale unregister leaves the newer registration in place.
	first()
	assert.Equal(t, message.Pong{}, bus.Send(ctx, message.Tab(3), message.Ping{}))

	second()
	assert.True(t, message.IsUnavailable(bus.Send(ctx, message.Tab(3), message.Ping{})))

	state := bus.State().(message.BusState)
	assert.Equal(t, 0, state.Receivers)
	assert.Equal(t, int64(2), state.Sent)
	assert.Equal(t, int64(1), state.Unavailable)
}

func TestTab(t *testing.T) {
	assert.Equal(t, message.Target("tab:42"), message.Tab(42))
	assert.NotEqual(t, message.Background, message.Tab(0))
}

package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/glossa/pkg/adapters/lifecycle"
	"github.com/aretw0/glossa/pkg/adapters/memory"
	"github.com/aretw0/glossa/pkg/core"
)

func TestSource_BridgesStoreChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.New()
	changes, err := store.Watch(ctx, core.DictionaryKey)
	require.NoError(t, err)

	src := lifecycle.NewSource(changes)
	require.NoError(t, src.Start(ctx))

	require.NoError(t, store.Set(ctx, core.DictionaryKey, core.Dictionary{{Term: "a", Comment: "b"}}))

	select {
	case ev := <-src.Events():
		assert.Equal(t, "change dictionary: 1 entries", ev.String())
	case <-time.After(time.Second):
		t.Fatal("event not bridged")
	}

	cancel()
	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("events channel not closed")
	}
}

func TestSource_DropsRepeatedValues(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.New()
	changes, err := store.Watch(ctx, core.DictionaryKey)
	require.NoError(t, err)

	src := lifecycle.NewSource(changes)
	require.NoError(t, src.Start(ctx))

	d := core.Dictionary{{ID: 1, Term: "a", Comment: "b"}}
	next := core.Dictionary{{ID: 1, Term: "a", Comment: "c"}}

	got := make(chan core.Change, 4)
	go func() {
		for ev := range src.Events() {
			got <- ev.(core.Change)
		}
	}()

	require.NoError(t, store.Set(ctx, core.DictionaryKey, d))
	require.NoError(t, store.Set(ctx, core.DictionaryKey, d))
	require.NoError(t, store.Set(ctx, core.DictionaryKey, next))

	for _, want := range []core.Dictionary{d, next} {
		select {
		case c := <-got:
			assert.True(t, want.Equal(c.NewValue), "got %v, want %v", c.NewValue, want)
		case <-time.After(time.Second):
			t.Fatal("event not bridged")
		}
	}

	require.Eventually(t, func() bool {
		st := src.State().(lifecycle.SourceState)
		return st.Emitted == 2 && st.Dropped == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "change-source", src.ComponentType())
}

package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/glossa/pkg/adapters/fs"
	"github.com/aretw0/glossa/pkg/core"
)

func nextChange(t *testing.T, ch <-chan core.Change) core.Change {
	t.Helper()
	select {
	case c, ok := <-ch:
		require.True(t, ok, "watch channel closed early")
		return c
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for change")
		return core.Change{}
	}
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, path := setupRepo(t, func(c *fs.Config) { c.Debounce = 20 * time.Millisecond })

	changes, err := repo.Watch(ctx, core.DictionaryKey)
	require.NoError(t, err)

	t.Run("Own writes", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, core.DictionaryKey, sample()))

		c := nextChange(t, changes)
		assert.Equal(t, core.DictionaryKey, c.Key)
		assert.Len(t, c.NewValue, 2)
	})

	t.Run("External writes and other keys", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "other", sample()))
		require.NoError(t, os.WriteFile(filepath.Join(path, "dictionary.json"), []byte(`[{"id":9,"term":"edited","comment":"by hand"}]`), 0644))

		c := nextChange(t, changes)
		assert.Equal(t, core.DictionaryKey, c.Key)
		require.Len(t, c.NewValue, 1)
		assert.Equal(t, "edited", c.NewValue[0].Term)
	})

	t.Run("Removal yields nil", func(t *testing.T) {
		require.NoError(t, os.Remove(filepath.Join(path, "dictionary.json")))

		c := nextChange(t, changes)
		assert.Nil(t, c.NewValue)
	})

	state := repo.State().(fs.RepositoryState)
	assert.True(t, state.WatcherActive)

	cancel()
	select {
	case _, ok := <-changes:
		for ok {
			_, ok = <-changes
		}
	case <-time.After(3 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestWatch_BurstIsDebounced(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, _ := setupRepo(t, func(c *fs.Config) { c.Debounce = 200 * time.Millisecond })
	changes, err := repo.Watch(ctx, core.DictionaryKey)
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		require.NoError(t, repo.Set(ctx, core.DictionaryKey, make(core.Dictionary, i)))
	}

	c := nextChange(t, changes)
	assert.Len(t, c.NewValue, 5, "the burst settles on the final value")

	select {
	case extra := <-changes:
		t.Fatalf("unexpected extra change: %v", extra)
	case <-time.After(400 * time.Millisecond):
	}
}

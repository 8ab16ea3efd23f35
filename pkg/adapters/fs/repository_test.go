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
	"github.com/aretw0/glossa/pkg/git"
)

// setupRepo creates an initialized repository under a fresh temp dir.
func setupRepo(t *testing.T, opts ...func(*fs.Config)) (*fs.Repository, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "store")
	cfg := fs.Config{
		Path:     path,
		AutoInit: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	repo := fs.NewRepository(cfg)
	if err := repo.Initialize(context.Background()); err != nil {
		if cfg.Versioning && !git.IsInstalled() {
			t.Skip("git not installed")
		}
		t.Fatalf("Initialize failed: %v", err)
	}
	return repo, path
}

func sample() core.Dictionary {
	return core.Dictionary{
		{ID: 1, Term: "cache", Comment: "stored data for reuse", DateAdded: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{ID: 2, Term: "draft", Comment: ""},
	}
}

func TestInitialize(t *testing.T) {
	t.Run("Creates Directory if Missing", func(t *testing.T) {
		_, path := setupRepo(t)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("Fails if MustExist and Missing", func(t *testing.T) {
		repo := fs.NewRepository(fs.Config{
			Path:      filepath.Join(t.TempDir(), "missing"),
			MustExist: true,
		})
		assert.Error(t, repo.Initialize(context.Background()))
	})

	t.Run("Inits Git Repo when Versioning", func(t *testing.T) {
		_, path := setupRepo(t, func(c *fs.Config) { c.Versioning = true })

		_, err := os.Stat(filepath.Join(path, ".git"))
		require.NoError(t, err, "expected .git directory to be created")

		ignore, err := os.ReadFile(filepath.Join(path, ".gitignore"))
		require.NoError(t, err)
		assert.Contains(t, string(ignore), ".glossa.lock")
		assert.Contains(t, string(ignore), fs.TempFilePrefix+"*")
	})
}

func TestGetSet(t *testing.T) {
	ctx := context.Background()

	for _, ext := range []string{".json", ".yaml", ".csv"} {
		t.Run(ext, func(t *testing.T) {
			repo, path := setupRepo(t, func(c *fs.Config) { c.Ext = ext })

			_, found, err := repo.Get(ctx, core.DictionaryKey)
			require.NoError(t, err)
			assert.False(t, found, "absent key is not found")

			require.NoError(t, repo.Set(ctx, core.DictionaryKey, sample()))

			_, err = os.Stat(filepath.Join(path, core.DictionaryKey+ext))
			require.NoError(t, err, "one file per key")

			got, found, err := repo.Get(ctx, core.DictionaryKey)
			require.NoError(t, err)
			require.True(t, found)
			require.Len(t, got, 2)
			assert.Equal(t, "cache", got[0].Term)
			assert.True(t, sample()[0].DateAdded.Equal(got[0].DateAdded))
		})
	}
}

func TestSet_EmptyDictionaryIsFound(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRepo(t)

	require.NoError(t, repo.Set(ctx, core.DictionaryKey, nil))

	got, found, err := repo.Get(ctx, core.DictionaryKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, got)
}

func TestSet_ReadOnly(t *testing.T) {
	repo, path := setupRepo(t, func(c *fs.Config) { c.ReadOnly = true })

	err := repo.Set(context.Background(), core.DictionaryKey, sample())
	assert.ErrorIs(t, err, core.ErrReadOnly)

	_, err = os.Stat(filepath.Join(path, core.DictionaryKey+".json"))
	assert.True(t, os.IsNotExist(err))
}

func TestInvalidKey(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	for _, key := range []string{"", "../escape", "a/b", ".hidden"} {
		_, _, err := repo.Get(ctx, key)
		assert.Error(t, err, "key %q", key)
		assert.Error(t, repo.Set(ctx, key, nil), "key %q", key)
	}
}

func TestVersioning(t *testing.T) {
	repo, _ := setupRepo(t, func(c *fs.Config) { c.Versioning = true })

	ctx := context.WithValue(context.Background(), core.ChangeReasonKey, "add cache")
	require.NoError(t, repo.Set(ctx, core.DictionaryKey, sample()))

	// Writing the same value again records nothing.
	require.NoError(t, repo.Set(context.Background(), core.DictionaryKey, sample()))

	d := append(sample(), core.Term{ID: 3, Term: "queue", Comment: "fifo"})
	require.NoError(t, repo.Set(context.Background(), core.DictionaryKey, d))

	history, err := repo.History(context.Background(), core.DictionaryKey, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"update dictionary (3 entries)", "add cache"}, history)

	state := repo.State().(fs.RepositoryState)
	assert.NotNil(t, state.LastCommit)
}

func TestHistory_RequiresVersioning(t *testing.T) {
	repo, _ := setupRepo(t)
	_, err := repo.History(context.Background(), core.DictionaryKey, 5)
	assert.Error(t, err)
}

package platform_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/glossa/internal/platform"
	"github.com/aretw0/glossa/pkg/adapters/fs"
	"github.com/aretw0/glossa/pkg/adapters/memory"
	"github.com/aretw0/glossa/pkg/adapters/sqlite"
	"github.com/aretw0/glossa/pkg/core"
	"github.com/aretw0/glossa/pkg/git"
)

func TestInit(t *testing.T) {
	t.Run("AutoInit=true Creates Directory and Git Repo", func(t *testing.T) {
		if !git.IsInstalled() {
			t.Skip("git not installed")
		}
		storePath := filepath.Join(t.TempDir(), "glossary")

		store, err := platform.Init(storePath,
			platform.WithAutoInit(true), platform.WithVersioning(true), platform.WithForceTemp(true))
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}

		repo, ok := store.(*fs.Repository)
		if !ok {
			t.Fatalf("Expected fs repository, got %T", store)
		}
		if repo.Path != storePath {
			t.Errorf("Expected path %s, got %s", storePath, repo.Path)
		}
		if info, err := os.Stat(storePath); err != nil || !info.IsDir() {
			t.Errorf("Store directory not created")
		}
		if _, err := os.Stat(filepath.Join(storePath, ".git")); os.IsNotExist(err) {
			t.Errorf(".git directory not found")
		}
	})

	t.Run("AutoInit=false Fails if Directory Missing", func(t *testing.T) {
		storePath := filepath.Join(t.TempDir(), "missing")

		_, err := platform.Init(storePath, platform.WithMustExist(true), platform.WithForceTemp(true))
		if err == nil {
			t.Error("Expected failure for missing directory when AutoInit=false")
		}
	})

	t.Run("Versioning=false Does Not Initialize Git", func(t *testing.T) {
		storePath := filepath.Join(t.TempDir(), "plain")

		_, err := platform.Init(storePath,
			platform.WithAutoInit(true), platform.WithVersioning(false), platform.WithForceTemp(true))
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		if _, err := os.Stat(storePath); os.IsNotExist(err) {
			t.Errorf("Store directory not created")
		}
		if _, err := os.Stat(filepath.Join(storePath, ".git")); !os.IsNotExist(err) {
			t.Errorf(".git directory should not exist without versioning")
		}
	})

	t.Run("Format Selects File Extension", func(t *testing.T) {
		storePath := filepath.Join(t.TempDir(), "yaml")
		store, err := platform.Init(storePath,
			platform.WithAutoInit(true), platform.WithVersioning(false),
			platform.WithForceTemp(true), platform.WithFormat("yaml"))
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		if err := store.Set(context.Background(), core.DictionaryKey, core.Dictionary{}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if _, err := os.Stat(filepath.Join(storePath, "dictionary.yaml")); err != nil {
			t.Errorf("dictionary.yaml not written: %v", err)
		}
	})

	t.Run("Read Only Store Rejects Writes", func(t *testing.T) {
		store, err := platform.Init("", platform.WithAdapter("memory"), platform.WithReadOnly(true))
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		err = store.Set(context.Background(), core.DictionaryKey, core.Dictionary{})
		if !errors.Is(err, core.ErrReadOnly) {
			t.Errorf("Expected ErrReadOnly, got %v", err)
		}
	})

	t.Run("SQLite Adapter", func(t *testing.T) {
		dir := t.TempDir()
		store, err := platform.Init(dir, platform.WithAdapter("sqlite"))
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		s, ok := store.(*sqlite.Store)
		if !ok {
			t.Fatalf("Expected sqlite store, got %T", store)
		}
		defer s.Close()
		if _, err := os.Stat(filepath.Join(dir, platform.DefaultDatabase)); err != nil {
			t.Errorf("database file not created: %v", err)
		}
	})

	t.Run("Injected Store Wins", func(t *testing.T) {
		injected := memory.New()
		store, err := platform.Init("ignored", platform.WithStore(injected), platform.WithAdapter("sqlite"))
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		if store != injected {
			t.Errorf("Expected injected store")
		}
	})

	t.Run("Unknown Adapter", func(t *testing.T) {
		if _, err := platform.Init("", platform.WithAdapter("s3")); err == nil {
			t.Error("Expected error for unknown adapter")
		}
	})
}

func TestResolvePath(t *testing.T) {
	inTemp := filepath.Join(os.TempDir(), "x", "glossary")
	if got := platform.ResolvePath(inTemp, true); got != inTemp {
		t.Errorf("paths inside temp are kept, got %s", got)
	}
	if got := platform.ResolvePath("/home/user/glossary", true); got != filepath.Join(os.TempDir(), "glossa-dev", "glossary") {
		t.Errorf("unexpected sandbox path %s", got)
	}
	if got := platform.ResolvePath("", false); got != "." {
		t.Errorf("empty path resolves to ., got %s", got)
	}
}

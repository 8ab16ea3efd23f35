package reactivity_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/glossa"
	"github.com/aretw0/glossa/pkg/adapters/sqlite"
	"github.com/aretw0/glossa/pkg/core"
	"github.com/aretw0/glossa/pkg/tabs"
)

const page = `<html><head></head><body><p>The cache is warm.</p><p>Ask the API.</p></body></html>`

// startRuntime opens a runtime at uri and one tab showing page.
func startRuntime(t *testing.T, uri string, opts ...glossa.Option) (*glossa.Runtime, tabs.Tab) {
	t.Helper()
	base := []glossa.Option{
		glossa.WithLogger(slog.New(slog.DiscardHandler)),
		glossa.WithAutoInit(true),
		glossa.WithVersioning(false),
		glossa.WithDebounce(20 * time.Millisecond),
		glossa.WithPollInterval(20 * time.Millisecond),
	}
	rt, err := glossa.New(uri, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	ctx := context.Background()
	require.NoError(t, rt.Start(ctx))
	tab, err := rt.Open(ctx, "https://example.com", page)
	require.NoError(t, err)
	return rt, tab
}

func eventuallyContains(t *testing.T, rt *glossa.Runtime, id int, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		html, err := rt.Tabs.HTML(id)
		return err == nil && strings.Contains(html, want)
	}, 3*time.Second, 10*time.Millisecond, "tab never contained %q", want)
}

// TestReactivity_ExternalFileEdit edits the dictionary file behind the
// runtime's back and expects the open tab to follow.
func TestReactivity_ExternalFileEdit(t *testing.T) {
	tmp := t.TempDir()
	rt, tab := startRuntime(t, tmp, glossa.WithAdapter("fs"))

	// Let the watcher settle before writing.
	time.Sleep(100 * time.Millisecond)

	content := `[{"id": 1, "term": "cache", "comment": "stored data for reuse", "dateAdded": "2024-01-01T00:00:00Z"}]`
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "dictionary.json"), []byte(content), 0644))

	eventuallyContains(t, rt, tab.ID, `data-definition="stored data for reuse"`)

	// A second edit redefines the term in place.
	content = `[{"id": 1, "term": "cache", "comment": "a fast store", "dateAdded": "2024-01-01T00:00:00Z"}]`
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "dictionary.json"), []byte(content), 0644))

	eventuallyContains(t, rt, tab.ID, `data-definition="a fast store"`)
	html, err := rt.Tabs.HTML(tab.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(html, `data-term="cache"`))
}

// TestReactivity_SettingsRoundTrip goes through the settings surface only.
func TestReactivity_SettingsRoundTrip(t *testing.T) {
	rt, tab := startRuntime(t, t.TempDir(), glossa.WithAdapter("fs"))
	ctx := context.Background()

	term, err := rt.Settings.AddTerm(ctx, "API", "application programming interface")
	require.NoError(t, err)
	eventuallyContains(t, rt, tab.ID, `data-term="API"`)

	ok, err := rt.Settings.DeleteTerm(ctx, term.ID)
	require.NoError(t, err)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		html, err := rt.Tabs.HTML(tab.ID)
		return err == nil && !strings.Contains(html, `data-term="API"`) && strings.Contains(html, "Ask the API.")
	}, 3*time.Second, 10*time.Millisecond)
}

// TestReactivity_SQLiteSecondWriter writes through a separate connection
// and relies on the version poll to notice.
func TestReactivity_SQLiteSecondWriter(t *testing.T) {
	tmp := t.TempDir()
	rt, tab := startRuntime(t, tmp, glossa.WithAdapter("sqlite"))

	other, err := sqlite.Open(filepath.Join(tmp, "glossa.db"), sqlite.WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	defer other.Close()
	require.NoError(t, other.Initialize(context.Background()))

	svc := core.NewService(other)
	_, err = svc.AddTerm(context.Background(), "cache", "stored data for reuse")
	require.NoError(t, err)

	eventuallyContains(t, rt, tab.ID, `data-term="cache"`)

	stats, err := rt.Service.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.Stats{Total: 1, Active: 1}, stats)
}

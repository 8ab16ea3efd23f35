package e2e

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/glossa/pkg/core"
)

const page = `<html><head></head><body><p>The cache is warm.</p><script>var cache = 1;</script></body></html>`

func TestCLI_Glossary(t *testing.T) {
	tmpDir := t.TempDir()
	bin := buildGlossaBinary(t, tmpDir)

	work := filepath.Join(tmpDir, "glossary")
	if err := os.Mkdir(work, 0755); err != nil {
		t.Fatal(err)
	}

	out := run(t, work, nil, bin, "init", "--no-versioning")
	if !strings.Contains(out, "Initialized empty glossary") {
		t.Errorf("unexpected init output: %q", out)
	}
	out = run(t, work, nil, bin, "init", "--no-versioning")
	if !strings.Contains(out, "already initialized") {
		t.Errorf("second init should keep the dictionary, got %q", out)
	}

	run(t, work, nil, bin, "add", "cache", "stored", "data", "for", "reuse")
	run(t, work, nil, bin, "add", "API", "application programming interface, e.g. Client<T>")

	t.Run("Duplicate is rejected", func(t *testing.T) {
		out := runFail(t, work, bin, "add", "CACHE", "again")
		if !strings.Contains(out, "already") {
			t.Errorf("expected duplicate error, got %q", out)
		}
	})

	t.Run("List JSON", func(t *testing.T) {
		out := run(t, work, nil, bin, "list", "--json")
		var view core.PageView
		if err := json.Unmarshal([]byte(out), &view); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if len(view.Items) != 2 {
			t.Fatalf("expected 2 terms, got %d", len(view.Items))
		}
		if view.Items[1].Comment != "application programming interface, e.g. Client<T>" {
			t.Errorf("definition should be stored as typed, got %q", view.Items[1].Comment)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		out := run(t, work, nil, bin, "stats")
		if !strings.Contains(out, "2") {
			t.Errorf("unexpected stats output: %q", out)
		}
	})

	t.Run("Highlight", func(t *testing.T) {
		src := filepath.Join(tmpDir, "page.html")
		if err := os.WriteFile(src, []byte(page), 0644); err != nil {
			t.Fatal(err)
		}
		out := run(t, work, nil, bin, "highlight", src)
		if !strings.Contains(out, `data-term="cache"`) {
			t.Errorf("cache not highlighted:\n%s", out)
		}
		if !strings.Contains(out, "var cache = 1;") {
			t.Errorf("script text must stay intact:\n%s", out)
		}
		if strings.Count(out, `data-term="cache"`) != 1 {
			t.Errorf("script text must not be tagged:\n%s", out)
		}
	})

	t.Run("Highlight escapes definitions", func(t *testing.T) {
		out := run(t, work, []byte(`<p>The API</p>`), bin, "highlight")
		if !strings.Contains(out, `data-definition="application programming interface, e.g. Client&lt;T&gt;"`) {
			t.Errorf("definition should be escaped in the attribute:\n%s", out)
		}
	})

	t.Run("Highlight sanitize", func(t *testing.T) {
		dirty := `<p onclick="steal()">The cache is warm.</p><script>var cache = 1;</script>`
		out := run(t, work, []byte(dirty), bin, "highlight", "--sanitize")
		if strings.Contains(out, "<script") || strings.Contains(out, "onclick") {
			t.Errorf("unsafe markup should be removed:\n%s", out)
		}
		if strings.Count(out, `data-term="cache"`) != 1 {
			t.Errorf("cache should still be tagged once:\n%s", out)
		}
	})

	t.Run("Highlight text from stdin", func(t *testing.T) {
		out := run(t, work, []byte("Call the API, not the APIs."), bin, "highlight", "--text")
		want := "Call the [API: application programming interface, e.g. Client<T>], not the APIs."
		if out != want {
			t.Errorf("got %q, want %q", out, want)
		}
	})

	t.Run("Search", func(t *testing.T) {
		out := run(t, work, []byte(page), bin, "search", "cache", "--json")
		var matches []core.Match
		if err := json.Unmarshal([]byte(out), &matches); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if len(matches) != 1 {
			t.Errorf("expected 1 visible match, got %d", len(matches))
		}
	})

	t.Run("Send raw messages", func(t *testing.T) {
		out := run(t, work, nil, bin, "send", `{"action":"getStats"}`)
		var stats struct{ Total, Active int }
		if err := json.Unmarshal([]byte(out), &stats); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if stats.Total != 2 || stats.Active != 2 {
			t.Errorf("unexpected stats: %s", out)
		}

		src := filepath.Join(tmpDir, "send.html")
		if err := os.WriteFile(src, []byte(page), 0644); err != nil {
			t.Fatal(err)
		}
		out = run(t, work, []byte(`{"action":"searchOnPage","term":"warm"}`), bin, "send", "--open", src, "--tab", "1")
		var found struct {
			Matches []core.Match `json:"matches"`
		}
		if err := json.Unmarshal([]byte(out), &found); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if len(found.Matches) != 1 {
			t.Errorf("expected 1 match on the open tab, got %s", out)
		}

		out = run(t, work, nil, bin, "send", "--tab", "9", `{"action":"ping"}`)
		if !strings.Contains(out, `"error"`) {
			t.Errorf("a missing tab should answer with an error, got %q", out)
		}

		out = runFail(t, work, bin, "send", `{"action":"explode"}`)
		if !strings.Contains(out, "unknown action") {
			t.Errorf("unexpected decode failure: %q", out)
		}
	})

	t.Run("Export and import", func(t *testing.T) {
		csvPath := filepath.Join(tmpDir, "terms.csv")
		run(t, work, nil, bin, "export", "--as", "csv", "-o", csvPath)
		data, err := os.ReadFile(csvPath)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(string(data), "id,term,comment,dateAdded") {
			t.Errorf("unexpected CSV header:\n%s", data)
		}

		other := filepath.Join(tmpDir, "other")
		if err := os.Mkdir(other, 0755); err != nil {
			t.Fatal(err)
		}
		run(t, other, nil, bin, "init", "--no-versioning")
		out := run(t, other, nil, bin, "import", csvPath)
		if !strings.Contains(out, "Imported 2 of 2") {
			t.Errorf("unexpected import output: %q", out)
		}
		out = run(t, other, nil, bin, "import", csvPath)
		if !strings.Contains(out, "Imported 0 of 2") {
			t.Errorf("re-import should skip existing terms, got %q", out)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		out := run(t, work, nil, bin, "list", "--json")
		var view core.PageView
		if err := json.Unmarshal([]byte(out), &view); err != nil {
			t.Fatal(err)
		}
		id := view.Items[0].ID
		run(t, work, nil, bin, "delete", jsonNumber(id))

		out = run(t, work, nil, bin, "list")
		if strings.Contains(out, "cache") {
			t.Errorf("cache should be gone:\n%s", out)
		}
	})
}

func TestCLI_History(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	tmpDir := t.TempDir()
	bin := buildGlossaBinary(t, tmpDir)

	work := filepath.Join(tmpDir, "glossary")
	if err := os.Mkdir(work, 0755); err != nil {
		t.Fatal(err)
	}
	run(t, tmpDir, nil, "git", "init", work)
	run(t, work, nil, "git", "config", "user.email", "test@example.com")
	run(t, work, nil, "git", "config", "user.name", "Test")

	run(t, work, nil, bin, "init")
	run(t, work, nil, bin, "add", "-m", "add cache", "cache", "stored data")

	out := run(t, work, nil, bin, "history")
	if !strings.Contains(out, "add cache") {
		t.Errorf("history should list the change reason:\n%s", out)
	}
}

func jsonNumber(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

package platform

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("YAML", func(t *testing.T) {
		dir := t.TempDir()
		src := `
adapter: sqlite
versioning: false
storage:
  poll_interval: 250ms
relay:
  exclude_urls: ["file://**"]
  send_timeout: 2s
scanner:
  search_limit: 20
logging:
  level: debug
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "glossa.yaml"), []byte(src), 0644))

		cfg, path, err := LoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "glossa.yaml"), path)
		assert.Equal(t, "sqlite", cfg.Adapter)
		require.NotNil(t, cfg.Versioning)
		assert.False(t, *cfg.Versioning)
		assert.Equal(t, []string{"file://**"}, cfg.Relay.ExcludeURLs)
		assert.Equal(t, 20, cfg.Scanner.SearchLimit)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("TOML", func(t *testing.T) {
		dir := t.TempDir()
		src := `
adapter = "memory"
read_only = true

[relay]
broadcast_rate = 50.0

[storage]
debounce = "80ms"
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "glossa.toml"), []byte(src), 0644))

		cfg, _, err := LoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, "memory", cfg.Adapter)
		assert.True(t, cfg.ReadOnly)
		assert.Nil(t, cfg.Versioning)
		assert.Equal(t, 50.0, cfg.Relay.BroadcastRate)
		assert.Equal(t, "80ms", cfg.Storage.Debounce)
	})

	t.Run("Missing File", func(t *testing.T) {
		cfg, path, err := LoadConfig(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, path)
		assert.Equal(t, Config{}, cfg)
	})

	t.Run("Malformed File", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "glossa.toml"), []byte("adapter = ["), 0644))
		_, _, err := LoadConfig(dir)
		assert.Error(t, err)
	})
}

func TestConfig_Options(t *testing.T) {
	versioning := true
	cfg := Config{
		Adapter:    "sqlite",
		Format:     "yaml",
		Versioning: &versioning,
		Storage:    StorageConfig{Debounce: "75ms", PollInterval: "2s"},
		Relay:      RelayConfig{ExcludeURLs: []string{"file://**"}, SendTimeout: "3s"},
		Scanner:    ScannerConfig{SearchLimit: 4},
	}

	opts, err := cfg.Options()
	require.NoError(t, err)

	// Later options override the file, as CLI flags do.
	o := defaultOptions().apply(append(opts, WithAdapter("memory")))
	assert.Equal(t, "memory", o.adapter)
	assert.Equal(t, "yaml", o.text("format"))
	assert.True(t, o.flag("versioning"))
	assert.Equal(t, 75*time.Millisecond, o.duration("debounce"))
	assert.Equal(t, 2*time.Second, o.duration("poll_interval"))
	assert.Equal(t, 3*time.Second, o.duration("send_timeout"))
	assert.Equal(t, []string{"file://**"}, o.config["exclude_urls"])
	assert.Equal(t, 4, o.config["search_limit"])

	_, err = Config{Storage: StorageConfig{Debounce: "soon"}}.Options()
	assert.ErrorContains(t, err, "storage.debounce")
}

package platform

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ConfigFiles are the file names LoadConfig looks for, in order.
var ConfigFiles = []string{"glossa.yaml", "glossa.yml", "glossa.toml"}

// Config is the on-disk configuration of a glossary directory.
// Durations use time.ParseDuration syntax ("250ms", "1s").
type Config struct {
	Adapter    string        `yaml:"adapter" toml:"adapter"`
	Path       string        `yaml:"path" toml:"path"`
	Format     string        `yaml:"format" toml:"format"`
	Versioning *bool         `yaml:"versioning" toml:"versioning"`
	ReadOnly   bool          `yaml:"read_only" toml:"read_only"`
	Storage    StorageConfig `yaml:"storage" toml:"storage"`
	Relay      RelayConfig   `yaml:"relay" toml:"relay"`
	Scanner    ScannerConfig `yaml:"scanner" toml:"scanner"`
	Logging    LogConfig     `yaml:"logging" toml:"logging"`
}

// StorageConfig tunes the store adapters.
type StorageConfig struct {
	Debounce     string `yaml:"debounce" toml:"debounce"`
	PollInterval string `yaml:"poll_interval" toml:"poll_interval"`
	SystemDir    string `yaml:"system_dir" toml:"system_dir"`
}

// RelayConfig tunes the relay and the bus.
type RelayConfig struct {
	ExcludeURLs   []string `yaml:"exclude_urls" toml:"exclude_urls"`
	SendTimeout   string   `yaml:"send_timeout" toml:"send_timeout"`
	BroadcastRate float64  `yaml:"broadcast_rate" toml:"broadcast_rate"`
}

// ScannerConfig tunes page scanners.
type ScannerConfig struct {
	SearchLimit int `yaml:"search_limit" toml:"search_limit"`
}

// LogConfig selects the CLI log output.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // "text" or "json"
}

// LoadConfig reads the first config file found in dir. A directory without
// one yields a zero Config and an empty path.
func LoadConfig(dir string) (Config, string, error) {
	for _, name := range ConfigFiles {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return Config{}, "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		cfg, err := ParseConfig(name, data)
		if err != nil {
			return Config{}, "", fmt.Errorf("invalid %s: %w", path, err)
		}
		return cfg, path, nil
	}
	return Config{}, "", nil
}

// ParseConfig decodes data according to the extension of name.
func ParseConfig(name string, data []byte) (Config, error) {
	var cfg Config
	switch filepath.Ext(name) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	case ".yaml", ".yml":
		if len(bytes.TrimSpace(data)) == 0 {
			return cfg, nil
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", filepath.Ext(name))
	}
	return cfg, nil
}

// Options translates the file into runtime options. Options passed after
// these win, which is how flags override the file.
func (c Config) Options() ([]Option, error) {
	var opts []Option
	if c.Adapter != "" {
		opts = append(opts, WithAdapter(c.Adapter))
	}
	if c.Format != "" {
		opts = append(opts, WithFormat(c.Format))
	}
	if c.Versioning != nil {
		opts = append(opts, WithVersioning(*c.Versioning))
	}
	if c.ReadOnly {
		opts = append(opts, WithReadOnly(true))
	}
	if c.Storage.SystemDir != "" {
		opts = append(opts, WithSystemDir(c.Storage.SystemDir))
	}
	if len(c.Relay.ExcludeURLs) > 0 {
		opts = append(opts, WithExcludeURLs(c.Relay.ExcludeURLs...))
	}
	if c.Relay.BroadcastRate > 0 {
		opts = append(opts, WithBroadcastRate(c.Relay.BroadcastRate))
	}
	if c.Scanner.SearchLimit > 0 {
		opts = append(opts, WithSearchLimit(c.Scanner.SearchLimit))
	}

	durations := []struct {
		field string
		value string
		opt   func(time.Duration) Option
	}{
		{"storage.debounce", c.Storage.Debounce, WithDebounce},
		{"storage.poll_interval", c.Storage.PollInterval, WithPollInterval},
		{"relay.send_timeout", c.Relay.SendTimeout, WithSendTimeout},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.field, err)
		}
		opts = append(opts, d.opt(v))
	}
	return opts, nil
}

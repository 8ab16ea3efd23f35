// Package sqlite stores values in a single SQLite key-value table and detects
// changes, including writes from other processes, by polling a per-key
// version counter.
//
// Usage:
//
//	store, err := sqlite.Open("glossa.db", sqlite.WithPollInterval(200*time.Millisecond))
//	defer store.Close()
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/aretw0/introspection"
	_ "modernc.org/sqlite"

	"github.com/aretw0/glossa/pkg/core"
)

const (
	// DefaultPollInterval is how often Watch checks the key version.
	DefaultPollInterval = time.Second
	// DefaultBusyTimeout is PRAGMA busy_timeout in milliseconds.
	DefaultBusyTimeout = 10_000
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key     TEXT PRIMARY KEY,
	value   TEXT NOT NULL,
	version INTEGER NOT NULL DEFAULT 1
)`

type config struct {
	interval    time.Duration
	busyTimeout int
	readOnly    bool
	logger      *slog.Logger
}

// Option customises Open behaviour.
type Option func(*config)

// WithPollInterval sets the Watch polling frequency. Default: 1s.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) Option { return func(c *config) { c.busyTimeout = ms } }

// WithReadOnly rejects Set with core.ErrReadOnly.
func WithReadOnly(enabled bool) Option { return func(c *config) { c.readOnly = enabled } }

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// Store implements core.Store on top of database/sql with the modernc driver.
type Store struct {
	db   *sql.DB
	path string
	cfg  config

	checks   atomic.Int64
	changes  atomic.Int64
	errors   atomic.Int64
	watchers atomic.Int64
}

// Open opens (or creates) the database at path and applies pragmas.
// ":memory:" opens a private in-memory database.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := config{
		interval:    DefaultPollInterval,
		busyTimeout: DefaultBusyTimeout,
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: mkdir: %w", err)
		}
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
			path, cfg.busyTimeout)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	return &Store{db: db, path: path, cfg: cfg}, nil
}

// Initialize creates the kv table.
func (s *Store) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite: schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value under key.
func (s *Store) Get(ctx context.Context, key string) (core.Dictionary, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: get %s: %w", key, err)
	}

	var d core.Dictionary
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, false, fmt.Errorf("sqlite: decode %s: %w", key, err)
	}
	return d.Clone(), true, nil
}

// Set upserts the value under key and bumps its version.
func (s *Store) Set(ctx context.Context, key string, d core.Dictionary) error {
	if s.cfg.readOnly {
		return core.ErrReadOnly
	}

	raw, err := json.Marshal(d.Clone())
	if err != nil {
		return fmt.Errorf("sqlite: encode %s: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, version) VALUES (?, ?, 1)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, version = kv.version + 1`,
		key, string(raw))
	if err != nil {
		return fmt.Errorf("sqlite: set %s: %w", key, err)
	}

	s.cfg.logger.Debug("value stored", "key", key, "entries", len(d))
	return nil
}

// version returns the current version of key, or 0 when absent.
func (s *Store) version(ctx context.Context, key string) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx, `SELECT version FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return v, err
}

// Stats are point-in-time counters.
type Stats struct {
	Checks   int64 `json:"checks"`
	Changes  int64 `json:"changes_detected"`
	Errors   int64 `json:"errors"`
	Watchers int64 `json:"watchers"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	return map[string]any{
		"path":          s.path,
		"poll_interval": s.cfg.interval.String(),
		"read_only":     s.cfg.readOnly,
		"stats": Stats{
			Checks:   s.checks.Load(),
			Changes:  s.changes.Load(),
			Errors:   s.errors.Load(),
			Watchers: s.watchers.Load(),
		},
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "sqlite-store"
}

var _ core.Store = (*Store)(nil)
var _ core.Closer = (*Store)(nil)
var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)

package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/glossa/pkg/adapters/fs"
	"github.com/aretw0/glossa/pkg/adapters/memory"
	"github.com/aretw0/glossa/pkg/adapters/sqlite"
	"github.com/aretw0/glossa/pkg/core"
)

// DefaultDatabase is the sqlite file used when the uri names a directory.
const DefaultDatabase = "glossa.db"

// Init opens and initializes the store named by the options.
// The uri is adapter-specific: a directory for "fs", a database file (or
// ":memory:") for "sqlite", ignored for "memory".
func Init(uri string, opts ...Option) (core.Store, error) {
	o := defaultOptions().apply(opts)

	if o.store != nil {
		return o.store, nil
	}

	var (
		store core.Store
		err   error
	)
	switch o.adapter {
	case "fs", "":
		store, err = initFS(uri, o)
	case "sqlite":
		store, err = initSQLite(uri, o)
	case "memory":
		store = memory.New(memory.WithReadOnly(o.flag("read_only")), memory.WithLogger(o.log()))
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
	if err != nil {
		return nil, err
	}

	if err := store.Initialize(context.Background()); err != nil {
		if c, ok := store.(core.Closer); ok {
			_ = c.Close()
		}
		return nil, err
	}
	return store, nil
}

// initFS resolves the store path and decides on versioning.
func initFS(path string, o *options) (core.Store, error) {
	logger := o.log()
	autoInit := o.flag("auto_init")
	readOnly := o.flag("read_only")
	systemDir := o.text("system_dir")
	if systemDir == "" {
		systemDir = fs.DefaultSystemDir
	}

	devSafety := true
	if v, ok := o.config["dev_safety"].(bool); ok {
		devSafety = v
	}
	useTemp := o.flag("temp_dir") || (IsDevRun() && devSafety && !readOnly)
	resolved := ResolvePath(path, useTemp)
	if useTemp && resolved != filepath.Clean(path) {
		logger.Warn("running in SAFE MODE (dev sandbox)", "original_path", path, "resolved_path", resolved)
	}

	versioning, explicit := o.config["versioning"].(bool)
	if !explicit {
		// An existing .git means a versioned store; otherwise plain files.
		_, err := os.Stat(filepath.Join(resolved, ".git"))
		versioning = err == nil
		if !versioning {
			logger.Debug("auto-detected unversioned mode", "reason", ".git missing")
		}
	}

	handler, _ := o.config["watcher_error_handler"].(func(error))

	return fs.NewRepository(fs.Config{
		Path:         resolved,
		Ext:          o.text("format"),
		AutoInit:     autoInit,
		Versioning:   versioning,
		MustExist:    o.flag("must_exist") || (!autoInit && !useTemp),
		ReadOnly:     readOnly,
		Debounce:     o.duration("debounce"),
		Logger:       logger,
		ErrorHandler: handler,
		SystemDir:    systemDir,
	}), nil
}

func initSQLite(uri string, o *options) (core.Store, error) {
	path := uri
	if path == "" {
		path = DefaultDatabase
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultDatabase)
	}
	store, err := sqlite.Open(path,
		sqlite.WithPollInterval(o.duration("poll_interval")),
		sqlite.WithReadOnly(o.flag("read_only")),
		sqlite.WithLogger(o.log()),
	)
	if err != nil {
		return nil, err
	}
	return store, nil
}

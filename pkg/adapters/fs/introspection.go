package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path          string     `json:"path"`
	Ext           string     `json:"ext"`
	SystemDir     string     `json:"system_dir"`
	Versioning    bool       `json:"versioning"`
	ReadOnly      bool       `json:"read_only"`
	Watchers      int        `json:"watchers"`
	WatcherActive bool       `json:"watcher_active"`
	LastReconcile *time.Time `json:"last_reconcile,omitempty"`
	LastCommit    *time.Time `json:"last_commit,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return RepositoryState{
		Path:          r.Path,
		Ext:           r.config.Ext,
		SystemDir:     r.config.SystemDir,
		Versioning:    r.config.Versioning,
		ReadOnly:      r.config.ReadOnly,
		Watchers:      r.watchers,
		WatcherActive: r.watchers > 0,
		LastReconcile: r.lastReconcile,
		LastCommit:    r.lastCommit,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "fs-repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)

func (r *Repository) watcherStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers++
}

func (r *Repository) watcherStopped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watchers > 0 {
		r.watchers--
	}
}

func (r *Repository) recordReconcile() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.lastReconcile = &now
}

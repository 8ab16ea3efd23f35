package core

import (
	"context"
	"fmt"
	"time"
)

// Store is the persistence collaborator: an opaque key-value store holding
// the dictionary under DictionaryKey, with a change feed per key.
type Store interface {
	// Initialize ensures the underlying storage is ready (directories, schema).
	Initialize(ctx context.Context) error

	// Get returns the value stored under key. found is false when the key is absent.
	Get(ctx context.Context, key string) (d Dictionary, found bool, err error)

	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, d Dictionary) error

	// Watch streams changes to key until ctx is done. The channel is closed on exit.
	Watch(ctx context.Context, key string) (<-chan Change, error)
}

// Closer is implemented by stores holding external resources.
type Closer interface {
	Close() error
}

// Change is delivered by Store.Watch whenever the value under Key changes.
// NewValue is nil when the key was removed.
type Change struct {
	Key       string
	NewValue  Dictionary
	Timestamp int64 // Unix timestamp
}

// NewChange stamps a change for key.
func NewChange(key string, value Dictionary) Change {
	return Change{Key: key, NewValue: value, Timestamp: time.Now().Unix()}
}

// String implements lifecycle.Event.
func (c Change) String() string {
	if c.NewValue == nil {
		return fmt.Sprintf("change %s: removed", c.Key)
	}
	return fmt.Sprintf("change %s: %d entries", c.Key, len(c.NewValue))
}

type contextKey string

// ChangeReasonKey is the context key for passing a change reason (commit message) to Set.
const ChangeReasonKey contextKey = "change_reason"

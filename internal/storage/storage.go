package storage

import (
	"context"
	"errors"

	"github.com/chris-regnier/daybook/internal/entry"
)

// Sentinel errors for storage operations.
var (
	ErrStorage         = errors.New("storage error")
	ErrCorrupt         = errors.New("stored data is corrupt")
	ErrUnauthenticated = errors.New("no signed-in user")
)

// DefaultKey is the key under which the entry collection is persisted by the
// key-value backends.
const DefaultKey = "diary_entries"

// Storage persists the whole diary as one collection. Every Save overwrites
// what was there before; there is no per-entry API.
type Storage interface {
	// Load returns the persisted collection. Missing data is an empty,
	// non-nil slice and a nil error. Data that cannot be decoded yields an
	// error wrapping ErrCorrupt.
	Load(ctx context.Context) ([]entry.Entry, error)
	// Save replaces the persisted collection with entries.
	Save(ctx context.Context, entries []entry.Entry) error
	Close() error
}

// Watcher is implemented by backends that can push the collection whenever it
// changes, including changes made by other processes or devices.
type Watcher interface {
	Watch(ctx context.Context) (*Subscription, error)
}

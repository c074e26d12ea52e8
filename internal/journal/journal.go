// Package journal holds the in-memory diary for a session and keeps durable
// storage in step with it.
//
// Every mutation is applied in memory first and then persisted by a single
// background worker that writes the whole collection, one save at a time, in
// the order the mutations happened. Save failures are logged; memory is never
// rolled back.
package journal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/storage"
)

// maxSuperseded bounds how many overwritten collections are remembered.
const maxSuperseded = 32

var (
	// ErrNotLoaded is returned by mutations attempted before Load completed.
	ErrNotLoaded = errors.New("journal not loaded yet")
	// ErrClosed is returned by mutations after Close.
	ErrClosed = errors.New("journal closed")
)

// Store is the session's single source of truth for entries.
type Store struct {
	backend storage.Storage
	log     *zap.SugaredLogger

	mu      sync.Mutex
	byID    map[string]entry.Entry
	order   []string
	loaded  bool
	closed  bool
	pending int

	// saved fingerprints what the backend is known to hold. superseded
	// holds earlier contents overwritten by later local saves; a snapshot
	// matching one of them was read before those saves landed.
	saved      string
	superseded []string

	listeners map[int]func([]entry.Entry)
	nextLis   int

	queue   [][]entry.Entry
	wake    chan struct{}
	idle    chan struct{} // closed whenever pending is zero
	stop    chan struct{}
	stopped chan struct{}
}

// New returns an unloaded store persisting to backend. A nil logger discards
// log output.
func New(backend storage.Storage, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Store{
		backend:   backend,
		log:       log,
		byID:      make(map[string]entry.Entry),
		listeners: make(map[int]func([]entry.Entry)),
		wake:      make(chan struct{}, 1),
		idle:      make(chan struct{}),
		stop:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	close(s.idle)
	go s.saveLoop()
	return s
}

// Load replaces the contents with what the backend holds. Missing data is an
// empty diary. Unreadable or corrupt data is logged and also yields an empty
// diary. Either way the store is loaded afterwards and mutations are allowed.
// The only error returned is ctx's.
func (s *Store) Load(ctx context.Context) error {
	// An unreadable backend holds nothing known, so fp stays empty.
	fp := ""
	entries, err := s.backend.Load(ctx)
	if err == nil {
		fp = fingerprint(entries)
	} else {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, storage.ErrCorrupt) {
			s.log.Errorw("stored diary is corrupt, starting empty", "error", err)
		} else {
			s.log.Warnw("loading diary failed, starting empty", "error", err)
		}
		entries = nil
	}

	s.mu.Lock()
	s.replaceLocked(entries)
	s.saved, s.superseded = fp, nil
	s.loaded = true
	snapshot := s.entriesLocked()
	s.mu.Unlock()

	s.log.Debugw("diary loaded", "entries", len(snapshot))
	s.notify(snapshot)
	return nil
}

// ApplySnapshot treats a pushed snapshot from a live subscription like a
// completed load. It schedules no save. Snapshots that arrive while local
// saves are still queued are dropped, because the backend will push again
// once those saves land. So are snapshots equal to contents a later local
// save has already overwritten: they were read before that save.
func (s *Store) ApplySnapshot(entries []entry.Entry) {
	fp := fingerprint(entries)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.pending > 0 {
		pending := s.pending
		s.mu.Unlock()
		s.log.Debugw("dropping snapshot behind local saves", "pending", pending, "entries", len(entries))
		return
	}
	if fp != s.saved && slices.Contains(s.superseded, fp) {
		s.mu.Unlock()
		s.log.Debugw("dropping snapshot older than the last save", "entries", len(entries))
		return
	}
	if fp != s.saved {
		// A change made elsewhere; what we overwrote before no longer
		// tells stale reads apart.
		s.saved, s.superseded = fp, nil
	}
	s.replaceLocked(entries)
	s.loaded = true
	snapshot := s.entriesLocked()
	s.mu.Unlock()

	s.notify(snapshot)
}

// Follow applies snapshots from sub until it ends or ctx is done.
func (s *Store) Follow(ctx context.Context, sub *storage.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entries, ok := <-sub.Snapshots():
			if !ok {
				return sub.Err()
			}
			s.ApplySnapshot(entries)
		}
	}
}

// Loaded reports whether Load (or a snapshot) has completed.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Entries returns a copy of all entries in insertion order.
func (s *Store) Entries() []entry.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entriesLocked()
}

// Get returns a copy of the entry with the given ID.
func (s *Store) Get(id string) (entry.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return entry.Entry{}, false
	}
	return e.Clone(), true
}

// Upsert inserts e, or replaces the entry with the same ID in place, and
// schedules a save. It returns the updated collection.
func (s *Store) Upsert(ctx context.Context, e entry.Entry) ([]entry.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if err := s.checkWritableLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if _, exists := s.byID[e.ID]; !exists {
		s.order = append(s.order, e.ID)
	}
	s.byID[e.ID] = e.Clone()
	snapshot := s.entriesLocked()
	s.scheduleLocked(s.entriesLocked())
	s.mu.Unlock()

	s.notify(snapshot)
	return snapshot, nil
}

// Remove deletes the entry with the given ID and schedules a save. Removing
// an unknown ID changes nothing and saves nothing.
func (s *Store) Remove(ctx context.Context, id string) ([]entry.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if err := s.checkWritableLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if _, exists := s.byID[id]; !exists {
		snapshot := s.entriesLocked()
		s.mu.Unlock()
		return snapshot, nil
	}
	delete(s.byID, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	snapshot := s.entriesLocked()
	s.scheduleLocked(s.entriesLocked())
	s.mu.Unlock()

	s.notify(snapshot)
	return snapshot, nil
}

// OnChange registers fn to receive the collection after every change. All
// listeners share one slice, which they must not modify. The returned
// function unregisters fn.
func (s *Store) OnChange(fn func([]entry.Entry)) (cancel func()) {
	s.mu.Lock()
	id := s.nextLis
	s.nextLis++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Flush waits until every queued save has finished.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes queued saves and stops the save worker. It does not close
// the backend.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.Flush(ctx)
	close(s.stop)
	select {
	case <-s.stopped:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

func (s *Store) checkWritableLocked() error {
	if s.closed {
		return ErrClosed
	}
	if !s.loaded {
		return ErrNotLoaded
	}
	return nil
}

func (s *Store) replaceLocked(entries []entry.Entry) {
	s.byID = make(map[string]entry.Entry, len(entries))
	s.order = s.order[:0]
	for _, e := range entries {
		if _, dup := s.byID[e.ID]; !dup {
			s.order = append(s.order, e.ID)
		}
		s.byID[e.ID] = e.Clone()
	}
}

func (s *Store) entriesLocked() []entry.Entry {
	out := make([]entry.Entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out
}

func (s *Store) scheduleLocked(snapshot []entry.Entry) {
	if s.pending == 0 {
		s.idle = make(chan struct{})
	}
	s.pending++
	s.queue = append(s.queue, snapshot)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Store) notify(snapshot []entry.Entry) {
	s.mu.Lock()
	fns := make([]func([]entry.Entry), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

// saveLoop persists queued snapshots one at a time, oldest first.
func (s *Store) saveLoop() {
	defer close(s.stopped)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.stop:
				return
			}
		}
		next := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()

		err := s.backend.Save(context.Background(), next)
		if err != nil {
			s.log.Errorw("saving diary failed", "entries", len(next), "error", err)
		} else {
			s.log.Debugw("diary saved", "entries", len(next))
		}
		fp := fingerprint(next)

		s.mu.Lock()
		if err == nil {
			s.markSavedLocked(fp)
		}
		s.pending--
		if s.pending == 0 {
			close(s.idle)
		}
		s.mu.Unlock()
	}
}

func (s *Store) markSavedLocked(fp string) {
	if fp == s.saved {
		return
	}
	if s.saved != "" {
		s.superseded = append(s.superseded, s.saved)
		if len(s.superseded) > maxSuperseded {
			s.superseded = s.superseded[len(s.superseded)-maxSuperseded:]
		}
	}
	s.superseded = slices.DeleteFunc(s.superseded, func(p string) bool { return p == fp })
	s.saved = fp
}

// fingerprint identifies a collection by its stored form, ignoring order
// since some backends return entries sorted differently than saved.
func fingerprint(entries []entry.Entry) string {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b entry.Entry) int { return strings.Compare(a.ID, b.ID) })
	data, err := storage.MarshalEntries(sorted)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

package journal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/storage"
)

// fakeBackend records every save. Saves block while gate is non-nil and
// unreleased.
type fakeBackend struct {
	mu      sync.Mutex
	data    []entry.Entry
	loadErr error
	saveErr error
	saves   [][]entry.Entry
	gate    chan struct{}
}

func (f *fakeBackend) Load(ctx context.Context) ([]entry.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return append([]entry.Entry(nil), f.data...), nil
}

func (f *fakeBackend) Save(ctx context.Context, entries []entry.Entry) error {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, entries)
	if f.saveErr != nil {
		return f.saveErr
	}
	f.data = entries
	return nil
}

func (f *fakeBackend) Close() error { return nil }

func (f *fakeBackend) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fakeBackend) lastSave() []entry.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saves) == 0 {
		return nil
	}
	return f.saves[len(f.saves)-1]
}

func newLoaded(t *testing.T, backend *fakeBackend) *Store {
	t.Helper()
	s := New(backend, nil)
	require.NoError(t, s.Load(context.Background()))
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func flush(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Flush(ctx))
}

func ids(entries []entry.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func mk(id, title string) entry.Entry {
	return entry.Entry{ID: id, Title: title, Date: time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)}
}

func TestLoadMissingIsEmpty(t *testing.T) {
	s := newLoaded(t, &fakeBackend{})
	assert.True(t, s.Loaded())
	assert.Empty(t, s.Entries())
}

func TestLoadCorruptIsEmptyAndLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	backend := &fakeBackend{loadErr: fmt.Errorf("%w: bad json", storage.ErrCorrupt)}
	s := New(backend, zap.New(core).Sugar())
	defer s.Close(context.Background())

	require.NoError(t, s.Load(context.Background()))
	assert.True(t, s.Loaded())
	assert.Empty(t, s.Entries())
	assert.Equal(t, 1, logs.FilterMessage("stored diary is corrupt, starting empty").Len())

	// Mutations work after a failed load.
	_, err := s.Upsert(context.Background(), mk("aaaaaaaa", "after"))
	assert.NoError(t, err)
}

func TestMutationsBeforeLoadAreRejected(t *testing.T) {
	backend := &fakeBackend{}
	s := New(backend, nil)
	defer s.Close(context.Background())
	ctx := context.Background()

	_, err := s.Upsert(ctx, mk("aaaaaaaa", "early"))
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = s.Remove(ctx, "aaaaaaaa")
	assert.ErrorIs(t, err, ErrNotLoaded)

	flush(t, s)
	assert.Zero(t, backend.saveCount(), "nothing may be saved before load")
}

func TestUpsertInsertsThenReplacesByID(t *testing.T) {
	backend := &fakeBackend{}
	s := newLoaded(t, backend)
	ctx := context.Background()

	_, err := s.Upsert(ctx, mk("aaaaaaaa", "first"))
	require.NoError(t, err)
	_, err = s.Upsert(ctx, mk("bbbbbbbb", "second"))
	require.NoError(t, err)
	got, err := s.Upsert(ctx, mk("aaaaaaaa", "first edited"))
	require.NoError(t, err)

	assert.Equal(t, []string{"aaaaaaaa", "bbbbbbbb"}, ids(got), "replacement keeps position")
	assert.Equal(t, "first edited", got[0].Title)

	flush(t, s)
	assert.Equal(t, 3, backend.saveCount(), "one save per upsert")
	assert.Equal(t, got, backend.lastSave())
}

func TestUpsertRejectsInvalidEntries(t *testing.T) {
	backend := &fakeBackend{}
	s := newLoaded(t, backend)
	ctx := context.Background()

	tooMany := mk("aaaaaaaa", "photos")
	tooMany.Photo = []string{"1", "2", "3", "4", "5", "6"}
	_, err := s.Upsert(ctx, tooMany)
	assert.ErrorIs(t, err, entry.ErrTooManyPhotos)

	_, err = s.Upsert(ctx, mk("", "no id"))
	assert.ErrorIs(t, err, entry.ErrInvalidID)

	flush(t, s)
	assert.Zero(t, backend.saveCount())
	assert.Empty(t, s.Entries())
}

func TestUpsertKeepsForeignIDs(t *testing.T) {
	// Epoch-millisecond IDs from local records and Firestore auto-IDs.
	backend := &fakeBackend{data: []entry.Entry{mk("1717200000000", "local"), mk("Xk3pQ9aB7cD2eF5gH8jK", "cloud")}}
	s := newLoaded(t, backend)
	ctx := context.Background()

	for _, id := range []string{"1717200000000", "Xk3pQ9aB7cD2eF5gH8jK"} {
		e, ok := s.Get(id)
		require.True(t, ok)
		e.Title = "edited"
		_, err := s.Upsert(ctx, e)
		require.NoError(t, err, id)
	}
	flush(t, s)

	saved := backend.lastSave()
	assert.Equal(t, []string{"1717200000000", "Xk3pQ9aB7cD2eF5gH8jK"}, ids(saved))
	for _, e := range saved {
		assert.Equal(t, "edited", e.Title)
	}
}

func TestRemove(t *testing.T) {
	backend := &fakeBackend{data: []entry.Entry{mk("aaaaaaaa", "a"), mk("bbbbbbbb", "b")}}
	s := newLoaded(t, backend)
	ctx := context.Background()

	got, err := s.Remove(ctx, "zzzzzzzz")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	flush(t, s)
	assert.Zero(t, backend.saveCount(), "removing an absent id saves nothing")

	got, err = s.Remove(ctx, "aaaaaaaa")
	require.NoError(t, err)
	assert.Equal(t, []string{"bbbbbbbb"}, ids(got))
	flush(t, s)
	assert.Equal(t, 1, backend.saveCount())
	assert.Equal(t, []string{"bbbbbbbb"}, ids(backend.lastSave()))
}

func TestUpsertThenRemoveRestoresCollection(t *testing.T) {
	backend := &fakeBackend{data: []entry.Entry{mk("aaaaaaaa", "a")}}
	s := newLoaded(t, backend)
	ctx := context.Background()
	before := s.Entries()

	_, err := s.Upsert(ctx, mk("newentry", "n"))
	require.NoError(t, err)
	after, err := s.Remove(ctx, "newentry")
	require.NoError(t, err)

	assert.Equal(t, before, after)
}

func TestSavesRunInOrderAndLastWins(t *testing.T) {
	gate := make(chan struct{})
	backend := &fakeBackend{gate: gate}
	s := newLoaded(t, backend)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := s.Upsert(ctx, mk(fmt.Sprintf("entry%03d", i), "x"))
		require.NoError(t, err)
	}
	close(gate)
	flush(t, s)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.Len(t, backend.saves, 10)
	for i, saved := range backend.saves {
		assert.Len(t, saved, i+1, "save %d should hold the collection as of mutation %d", i, i)
	}
	assert.Len(t, backend.data, 10)
}

func TestSaveFailureKeepsMemory(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	backend := &fakeBackend{saveErr: errors.New("disk full")}
	s := New(backend, zap.New(core).Sugar())
	defer s.Close(context.Background())
	require.NoError(t, s.Load(context.Background()))

	_, err := s.Upsert(context.Background(), mk("aaaaaaaa", "kept"))
	require.NoError(t, err)
	flush(t, s)

	e, ok := s.Get("aaaaaaaa")
	assert.True(t, ok)
	assert.Equal(t, "kept", e.Title)
	assert.Equal(t, 1, logs.FilterMessage("saving diary failed").Len())
}

func TestGetAndEntriesReturnCopies(t *testing.T) {
	s := newLoaded(t, &fakeBackend{})
	e := mk("aaaaaaaa", "a")
	e.Photo = []string{"p.jpg"}
	_, err := s.Upsert(context.Background(), e)
	require.NoError(t, err)

	got, _ := s.Get("aaaaaaaa")
	got.Photo[0] = "changed"
	list := s.Entries()
	list[0].Title = "changed"

	again, _ := s.Get("aaaaaaaa")
	assert.Equal(t, "p.jpg", again.Photo[0])
	assert.Equal(t, "a", again.Title)
}

func TestApplySnapshot(t *testing.T) {
	backend := &fakeBackend{}
	s := New(backend, nil)
	defer s.Close(context.Background())

	s.ApplySnapshot([]entry.Entry{mk("remote01", "from another device")})
	assert.True(t, s.Loaded(), "a snapshot counts as a load")
	assert.Equal(t, []string{"remote01"}, ids(s.Entries()))

	flush(t, s)
	assert.Zero(t, backend.saveCount(), "snapshots are not saved back")
}

func TestApplySnapshotDroppedWhileSavesPending(t *testing.T) {
	gate := make(chan struct{})
	backend := &fakeBackend{gate: gate}
	s := newLoaded(t, backend)

	_, err := s.Upsert(context.Background(), mk("local001", "mine"))
	require.NoError(t, err)
	s.ApplySnapshot([]entry.Entry{})
	assert.Equal(t, []string{"local001"}, ids(s.Entries()))

	close(gate)
	flush(t, s)
	s.ApplySnapshot([]entry.Entry{mk("local001", "mine"), mk("remote01", "theirs")})
	assert.Len(t, s.Entries(), 2)
}

func TestApplySnapshotIgnoresReadsOlderThanLastSave(t *testing.T) {
	backend := &fakeBackend{}
	s := newLoaded(t, backend)
	ctx := context.Background()

	_, err := s.Upsert(ctx, mk("aaaaaaaa", "a"))
	require.NoError(t, err)
	flush(t, s)
	readBeforeB := s.Entries()

	_, err = s.Upsert(ctx, mk("bbbbbbbb", "b"))
	require.NoError(t, err)
	flush(t, s)

	// The watcher delivers a read taken before b was saved.
	s.ApplySnapshot(readBeforeB)
	assert.Equal(t, []string{"aaaaaaaa", "bbbbbbbb"}, ids(s.Entries()))
	s.ApplySnapshot([]entry.Entry{})
	assert.Len(t, s.Entries(), 2, "the loaded state was overwritten too")

	_, err = s.Upsert(ctx, mk("cccccccc", "c"))
	require.NoError(t, err)
	flush(t, s)
	assert.Equal(t, []string{"aaaaaaaa", "bbbbbbbb", "cccccccc"}, ids(s.Entries()))
	assert.Equal(t, []string{"aaaaaaaa", "bbbbbbbb", "cccccccc"}, ids(backend.lastSave()))
}

func TestApplySnapshotAcceptsEchoAndRemoteChanges(t *testing.T) {
	backend := &fakeBackend{}
	s := newLoaded(t, backend)
	ctx := context.Background()

	_, err := s.Upsert(ctx, mk("aaaaaaaa", "a"))
	require.NoError(t, err)
	_, err = s.Upsert(ctx, mk("bbbbbbbb", "b"))
	require.NoError(t, err)
	flush(t, s)

	// Echo of the last save, returned in a different order.
	s.ApplySnapshot([]entry.Entry{mk("bbbbbbbb", "b"), mk("aaaaaaaa", "a")})
	assert.Equal(t, []string{"bbbbbbbb", "aaaaaaaa"}, ids(s.Entries()))

	// Another device edits b; after that, an older-looking state is news.
	s.ApplySnapshot([]entry.Entry{mk("aaaaaaaa", "a"), mk("bbbbbbbb", "b edited")})
	b, _ := s.Get("bbbbbbbb")
	assert.Equal(t, "b edited", b.Title)
	s.ApplySnapshot([]entry.Entry{mk("aaaaaaaa", "a")})
	assert.Equal(t, []string{"aaaaaaaa"}, ids(s.Entries()))
}

func TestFollow(t *testing.T) {
	s := New(&fakeBackend{}, nil)
	defer s.Close(context.Background())

	sub := storage.NewSubscription(context.Background(), func(ctx context.Context, emit storage.EmitFunc) error {
		emit([]entry.Entry{mk("remote01", "r")})
		<-ctx.Done()
		return nil
	})

	changed := make(chan []entry.Entry, 1)
	cancel := s.OnChange(func(entries []entry.Entry) { changed <- entries })
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Follow(context.Background(), sub) }()

	select {
	case got := <-changed:
		assert.Equal(t, []string{"remote01"}, ids(got))
	case <-time.After(5 * time.Second):
		t.Fatal("snapshot not applied")
	}

	sub.Unsubscribe()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Follow did not return after unsubscribe")
	}
}

func TestOnChangeCancel(t *testing.T) {
	s := newLoaded(t, &fakeBackend{})
	calls := 0
	cancel := s.OnChange(func([]entry.Entry) { calls++ })

	_, err := s.Upsert(context.Background(), mk("aaaaaaaa", "a"))
	require.NoError(t, err)
	cancel()
	cancel()
	_, err = s.Upsert(context.Background(), mk("bbbbbbbb", "b"))
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestCloseFlushesAndRejectsFurtherWrites(t *testing.T) {
	backend := &fakeBackend{}
	s := New(backend, nil)
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))

	_, err := s.Upsert(ctx, mk("aaaaaaaa", "a"))
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx))
	assert.Equal(t, 1, backend.saveCount())

	_, err = s.Upsert(ctx, mk("bbbbbbbb", "b"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, s.Close(ctx))
}

func TestConcurrentUpserts(t *testing.T) {
	backend := &fakeBackend{}
	s := newLoaded(t, backend)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Upsert(ctx, mk(fmt.Sprintf("conc%04d", i), "x"))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	flush(t, s)

	assert.Len(t, s.Entries(), 20)
	assert.Equal(t, 20, backend.saveCount())
	assert.Len(t, backend.lastSave(), 20)
}

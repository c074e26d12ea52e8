package local

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/storage"
)

func next(t *testing.T, sub *storage.Subscription) []entry.Entry {
	t.Helper()
	select {
	case got, ok := <-sub.Snapshots():
		if !ok {
			t.Fatalf("subscription ended: %v", sub.Err())
		}
		return got
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return nil
}

func TestLoadCorrupt(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err = s.Load(context.Background())
	if !errors.Is(err, storage.ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestWatchSeesWritesFromAnotherStore(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	watched, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	other, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sub, err := watched.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer sub.Unsubscribe()

	if got := next(t, sub); len(got) != 0 {
		t.Fatalf("initial snapshot should be empty, got %d entries", len(got))
	}

	e := entry.Entry{ID: "abc12345", Title: "from elsewhere", Date: time.Now()}
	if err := other.Save(ctx, []entry.Entry{e}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := next(t, sub)
	if len(got) != 1 || got[0].Title != "from elsewhere" {
		t.Errorf("unexpected snapshot %+v", got)
	}
}

func TestWatchUnsubscribe(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sub, err := s.Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	next(t, sub)
	sub.Unsubscribe()
	sub.Unsubscribe()
	select {
	case <-sub.Done():
	default:
		t.Fatal("watch goroutine still running")
	}
}

func TestThrottleCoalesces(t *testing.T) {
	th := newThrottle(20 * time.Millisecond)
	defer th.Stop()

	fired := make(chan struct{}, 10)
	for i := 0; i < 5; i++ {
		th.Enqueue(func() { fired <- struct{}{} })
	}
	time.Sleep(100 * time.Millisecond)
	if n := len(fired); n != 1 {
		t.Errorf("fired %d times, want 1", n)
	}
}

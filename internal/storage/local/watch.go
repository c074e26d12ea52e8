package local

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/chris-regnier/daybook/internal/storage"
)

const watchDelay = 100 * time.Millisecond

// Watch emits the current collection immediately and again after every change
// to the backing file, whichever process made it. Bursts of filesystem events
// collapse into one reload. Contents that fail to decode are skipped until the
// next good write.
func (s *Store) Watch(ctx context.Context) (*storage.Subscription, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: creating watcher: %v", storage.ErrStorage, err)
	}
	// diskv replaces the file by rename, so watch the directory, not the file.
	if err := watcher.Add(s.basePath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("%w: watching %s: %v", storage.ErrStorage, s.basePath, err)
	}

	return storage.NewSubscription(ctx, func(ctx context.Context, emit storage.EmitFunc) error {
		defer watcher.Close()

		changed := make(chan struct{}, 1)
		notify := func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		}
		throttle := newThrottle(watchDelay)
		defer throttle.Stop()

		reload := func() bool {
			entries, err := s.Load(ctx)
			if err != nil {
				return ctx.Err() == nil
			}
			return emit(entries)
		}
		if !reload() {
			return nil
		}

		for {
			select {
			case <-ctx.Done():
				return nil
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				if err != nil {
					// Events may have been lost; reread to resync.
					throttle.Enqueue(notify)
				}
			case evt, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Base(evt.Name) != s.key {
					continue
				}
				throttle.Enqueue(notify)
			case <-changed:
				if !reload() {
					return nil
				}
			}
		}
	}), nil
}

// throttle coalesces rapid change notifications into one call per burst.
type throttle struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
}

func newThrottle(delay time.Duration) *throttle {
	return &throttle{delay: delay}
}

func (t *throttle) Enqueue(fire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, func() {
			t.mu.Lock()
			t.timer = nil
			t.mu.Unlock()
			fire()
		})
	}
}

func (t *throttle) Stop() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}

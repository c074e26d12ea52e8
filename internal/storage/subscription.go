package storage

import (
	"context"
	"iter"
	"sync"

	"github.com/chris-regnier/daybook/internal/entry"
)

// Subscription is a live feed of collection snapshots. Snapshots arrive in the
// order the backend produced them; the channel closes when the feed ends,
// either because Unsubscribe was called, the parent context was cancelled, or
// the backend gave up.
type Subscription struct {
	snapshots chan []entry.Entry
	cancel    context.CancelFunc
	done      chan struct{}
	once      sync.Once

	mu  sync.Mutex
	err error
}

// EmitFunc hands a snapshot to the subscriber. It returns false once the
// subscription has been cancelled and the producer should stop.
type EmitFunc func([]entry.Entry) bool

// NewSubscription starts run on its own goroutine. run must return when ctx is
// done; its return value is reported by Err.
func NewSubscription(ctx context.Context, run func(ctx context.Context, emit EmitFunc) error) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		snapshots: make(chan []entry.Entry, 1),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	emit := func(entries []entry.Entry) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		// Replace a snapshot the consumer has not picked up yet; only the
		// latest state matters.
		select {
		case <-s.snapshots:
		default:
		}
		select {
		case s.snapshots <- entries:
			return true
		case <-ctx.Done():
			return false
		}
	}

	go func() {
		defer close(s.done)
		defer close(s.snapshots)
		err := run(ctx, emit)
		if ctx.Err() == nil && err != nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
		}
	}()

	return s
}

// Snapshots returns the channel snapshots are delivered on.
func (s *Subscription) Snapshots() <-chan []entry.Entry {
	return s.snapshots
}

// All returns the snapshots as a sequence. Breaking out of the loop
// unsubscribes.
func (s *Subscription) All() iter.Seq[[]entry.Entry] {
	return func(yield func([]entry.Entry) bool) {
		for entries := range s.snapshots {
			if !yield(entries) {
				s.Unsubscribe()
				return
			}
		}
	}
}

// Unsubscribe stops the feed and waits for the producer to exit. Calling it
// more than once is harmless.
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
	<-s.done
}

// Done is closed once the producer has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err reports why the feed ended on its own. It is nil after Unsubscribe.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chris-regnier/daybook/internal/entry"
)

func TestSubscriptionDeliversSnapshots(t *testing.T) {
	sub := NewSubscription(context.Background(), func(ctx context.Context, emit EmitFunc) error {
		emit([]entry.Entry{{ID: "aaaaaaaa"}})
		<-ctx.Done()
		return nil
	})
	defer sub.Unsubscribe()

	select {
	case got := <-sub.Snapshots():
		if len(got) != 1 || got[0].ID != "aaaaaaaa" {
			t.Errorf("unexpected snapshot %v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
}

func TestSubscriptionUnsubscribeIsIdempotent(t *testing.T) {
	stopped := make(chan struct{})
	sub := NewSubscription(context.Background(), func(ctx context.Context, emit EmitFunc) error {
		<-ctx.Done()
		close(stopped)
		return ctx.Err()
	})

	sub.Unsubscribe()
	sub.Unsubscribe()

	select {
	case <-stopped:
	default:
		t.Fatal("producer still running after Unsubscribe")
	}
	if _, ok := <-sub.Snapshots(); ok {
		t.Error("snapshot channel should be closed")
	}
	if sub.Err() != nil {
		t.Errorf("Err after Unsubscribe = %v, want nil", sub.Err())
	}
}

func TestSubscriptionAllStopsOnBreak(t *testing.T) {
	sub := NewSubscription(context.Background(), func(ctx context.Context, emit EmitFunc) error {
		for i := 0; ; i++ {
			if !emit([]entry.Entry{{Title: string(rune('a' + i%26))}}) {
				return nil
			}
		}
	})

	n := 0
	for range sub.All() {
		n++
		if n == 3 {
			break
		}
	}
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("breaking out of All did not stop the producer")
	}
}

func TestSubscriptionReportsProducerError(t *testing.T) {
	boom := errors.New("boom")
	sub := NewSubscription(context.Background(), func(ctx context.Context, emit EmitFunc) error {
		return boom
	})
	<-sub.Done()
	if !errors.Is(sub.Err(), boom) {
		t.Errorf("Err = %v, want %v", sub.Err(), boom)
	}
}

func TestSubscriptionEndsWithParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := NewSubscription(ctx, func(ctx context.Context, emit EmitFunc) error {
		<-ctx.Done()
		return ctx.Err()
	})
	cancel()
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription outlived its context")
	}
}

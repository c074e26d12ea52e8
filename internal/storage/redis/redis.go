// Package redis keeps the diary as one JSON value per owner and announces
// every save on a pub/sub channel so other devices can follow along.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/storage"
)

// Options configures the Redis backend.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Key is the base key; the owner is appended to it.
	Key string
	// Owner scopes the data, typically the signed-in user's ID.
	Owner string
}

// Store implements storage.Storage and storage.Watcher on Redis.
type Store struct {
	client  *redis.Client
	key     string
	channel string
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, opts Options) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: connecting to redis at %s: %v", storage.ErrStorage, opts.Addr, err)
	}
	return NewWithClient(client, opts.Key, opts.Owner), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, key, owner string) *Store {
	k := KeyFor(key, owner)
	return &Store{client: client, key: k, channel: k + ":changed"}
}

// KeyFor returns the Redis key holding owner's collection.
func KeyFor(base, owner string) string {
	if base == "" {
		base = storage.DefaultKey
	}
	if owner == "" {
		return base
	}
	return base + ":" + owner
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Load reads the collection; a missing key is an empty diary.
func (s *Store) Load(ctx context.Context) ([]entry.Entry, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []entry.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", storage.ErrStorage, s.key, err)
	}
	return storage.UnmarshalEntries(data)
}

// Save writes the collection and publishes a change notice in one
// MULTI/EXEC transaction.
func (s *Store) Save(ctx context.Context, entries []entry.Entry) error {
	data, err := storage.MarshalEntries(entries)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key, data, 0)
		pipe.Publish(ctx, s.channel, len(entries))
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: writing %s: %v", storage.ErrStorage, s.key, err)
	}
	return nil
}

// Watch emits the collection now and after every published save.
func (s *Store) Watch(ctx context.Context) (*storage.Subscription, error) {
	ps := s.client.Subscribe(ctx, s.channel)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("%w: subscribing to %s: %v", storage.ErrStorage, s.channel, err)
	}

	return storage.NewSubscription(ctx, func(ctx context.Context, emit storage.EmitFunc) error {
		defer ps.Close()

		entries, err := s.Load(ctx)
		if err != nil {
			return err
		}
		if !emit(entries) {
			return nil
		}

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return nil
			case _, ok := <-msgs:
				if !ok {
					return fmt.Errorf("%w: subscription to %s closed", storage.ErrStorage, s.channel)
				}
				entries, err := s.Load(ctx)
				if err != nil {
					if errors.Is(err, storage.ErrCorrupt) {
						continue
					}
					return err
				}
				if !emit(entries) {
					return nil
				}
			}
		}
	}), nil
}

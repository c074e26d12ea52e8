// Package postgres stores one JSONB snapshot of the diary per owner and uses
// LISTEN/NOTIFY to push changes to other sessions.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/storage"
)

const (
	table   = "daybook_snapshots"
	channel = "daybook_changed"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Store implements storage.Storage and storage.Watcher on PostgreSQL.
type Store struct {
	pool  *pgxpool.Pool
	owner string
}

// New connects to dsn, creates the table if needed and scopes the store to owner.
func New(ctx context.Context, dsn, owner string) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing database URL: %v", storage.ErrStorage, err)
	}
	config.MaxConns = 4
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%w: creating connection pool: %v", storage.ErrStorage, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: pinging database: %v", storage.ErrStorage, err)
	}
	if err := createTable(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool, owner: owner}, nil
}

func createTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+table+` (
			owner      TEXT PRIMARY KEY,
			entries    JSONB NOT NULL DEFAULT '[]',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("%w: creating table: %v", storage.ErrStorage, err)
	}
	return nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func loadQuery(owner string) squirrel.SelectBuilder {
	return psql.Select("entries").
		From(table).
		Where(squirrel.Eq{"owner": owner})
}

func saveQuery(owner string, data []byte) squirrel.InsertBuilder {
	return psql.Insert(table).
		Columns("owner", "entries", "updated_at").
		Values(owner, data, squirrel.Expr("NOW()")).
		Suffix("ON CONFLICT (owner) DO UPDATE SET entries = EXCLUDED.entries, updated_at = EXCLUDED.updated_at")
}

// Load reads the owner's snapshot; no row is an empty diary.
func (s *Store) Load(ctx context.Context) ([]entry.Entry, error) {
	query, args, err := loadQuery(s.owner).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: building query: %v", storage.ErrStorage, err)
	}

	var data []byte
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []entry.Entry{}, nil
		}
		return nil, fmt.Errorf("%w: reading snapshot: %v", storage.ErrStorage, err)
	}
	return storage.UnmarshalEntries(data)
}

// Save upserts the owner's snapshot and notifies listeners in the same
// transaction, so the notice is only delivered once the write is visible.
func (s *Store) Save(ctx context.Context, entries []entry.Entry) error {
	data, err := storage.MarshalEntries(entries)
	if err != nil {
		return err
	}
	query, args, err := saveQuery(s.owner, data).ToSql()
	if err != nil {
		return fmt.Errorf("%w: building upsert: %v", storage.ErrStorage, err)
	}

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, "SELECT pg_notify($1, $2)", channel, s.owner)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: saving snapshot: %v", storage.ErrStorage, err)
	}
	return nil
}

// Watch emits the snapshot now and after every save for this owner.
func (s *Store) Watch(ctx context.Context) (*storage.Subscription, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquiring connection: %v", storage.ErrStorage, err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("%w: listening on %s: %v", storage.ErrStorage, channel, err)
	}

	return storage.NewSubscription(ctx, func(ctx context.Context, emit storage.EmitFunc) error {
		defer func() {
			cleanup, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if _, err := conn.Exec(cleanup, "UNLISTEN *"); err != nil {
				// Connection state is unknown; keep it out of the pool.
				conn.Hijack().Close(cleanup)
				return
			}
			conn.Release()
		}()

		entries, err := s.Load(ctx)
		if err != nil {
			return err
		}
		if !emit(entries) {
			return nil
		}

		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("%w: waiting for notification: %v", storage.ErrStorage, err)
			}
			if n.Payload != s.owner {
				continue
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
	}), nil
}

package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/chris-regnier/daybook/internal/auth"
	"github.com/chris-regnier/daybook/internal/config"
	"github.com/chris-regnier/daybook/internal/firebaseapp"
	"github.com/chris-regnier/daybook/internal/storage"
	"github.com/chris-regnier/daybook/internal/storage/firestore"
	"github.com/chris-regnier/daybook/internal/storage/local"
	"github.com/chris-regnier/daybook/internal/storage/markdown"
	"github.com/chris-regnier/daybook/internal/storage/postgres"
	"github.com/chris-regnier/daybook/internal/storage/redis"
	"github.com/chris-regnier/daybook/internal/storage/sqlite"
)

// Opener builds the storage backend for a user. A nil user means nobody is
// signed in; backends that need an identity return storage.ErrUnauthenticated.
type Opener func(ctx context.Context, user *auth.User) (storage.Storage, error)

// NewOpener returns an Opener for the backend named by cfg.Storage.
func NewOpener(cfg *config.Config, log *zap.SugaredLogger) Opener {
	return func(ctx context.Context, user *auth.User) (storage.Storage, error) {
		owner := ""
		if user != nil {
			owner = user.UID
		}
		log.Debugw("opening storage", "backend", cfg.Storage, "owner", owner)

		switch cfg.Storage {
		case "local", "":
			return local.New(cfg.DataDir)
		case "markdown":
			return markdown.New(cfg.DataDir)
		case "sqlite":
			return sqlite.New(cfg.DataDir)
		case "redis":
			return redis.New(ctx, redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
				Key:      cfg.Redis.Key,
				Owner:    owner,
			})
		case "postgres":
			if owner == "" {
				owner = "local"
			}
			return postgres.New(ctx, cfg.Postgres.DSN, owner)
		case "firestore":
			if user == nil {
				return nil, storage.ErrUnauthenticated
			}
			app, err := firebaseapp.New(ctx, cfg.Firebase)
			if err != nil {
				return nil, err
			}
			client, err := firebaseapp.Firestore(ctx, app)
			if err != nil {
				return nil, err
			}
			store, err := firestore.NewOwned(client, owner)
			if err != nil {
				client.Close()
				return nil, err
			}
			return store, nil
		default:
			return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage)
		}
	}
}

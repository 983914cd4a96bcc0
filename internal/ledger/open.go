package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/RaikyD/lengow-mws-connector/internal/config"
	"github.com/RaikyD/lengow-mws-connector/internal/migrate"
)

// Open builds the store selected by cfg.Backend. The returned close func is
// never nil.
func Open(ctx context.Context, cfg config.LedgerConfig) (Store, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case "", "file":
		return NewFileStore(cfg.Path), noop, nil

	case "sqlite":
		s, err := OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, noop, err
		}
		return s, func() { _ = s.Close() }, nil

	case "postgres":
		if err := migrate.Up(cfg.DBString); err != nil {
			return nil, noop, fmt.Errorf("migrate: %w", err)
		}
		pool, err := pgxpool.New(ctx, cfg.DBString)
		if err != nil {
			return nil, noop, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("ping postgres: %w", err)
		}
		return NewPostgresStore(pool), pool.Close, nil

	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return NewRedisStore(client, cfg.Key), func() { _ = client.Close() }, nil

	case "s3":
		s, err := NewS3Store(ctx, S3StoreConfig{
			Bucket:   cfg.Bucket,
			Key:      cfg.Key,
			Region:   cfg.AWSRegion,
			Endpoint: cfg.S3Endpoint,
		})
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	}
	return nil, noop, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
}

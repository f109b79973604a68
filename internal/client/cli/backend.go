package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/dreamwell/internal/client/config"
	"github.com/dmitrijs2005/dreamwell/internal/client/repositories/kv"
	"github.com/dmitrijs2005/dreamwell/internal/filex"
	"github.com/redis/go-redis/v9"
)

// openBackend returns the credential backend selected by c and a function
// releasing it.
func openBackend(ctx context.Context, c *config.Config) (kv.Backend, func() error, error) {
	switch c.StoreKind {
	case config.StoreMemory:
		return kv.NewMemoryBackend(), func() error { return nil }, nil

	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", c.RedisAddr, err)
		}
		return kv.NewRedisBackend(rdb, c.RedisPrefix, c.RedisTTL), rdb.Close, nil

	case config.StoreSQLite:
		if err := filex.EnsureParentDir(c.StorePath); err != nil {
			return nil, nil, err
		}
		db, err := kv.OpenSQLite(ctx, c.StorePath)
		if err != nil {
			return nil, nil, err
		}
		return kv.NewSQLiteBackend(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", c.StoreKind)
	}
}

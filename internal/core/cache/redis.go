package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache 读穿缓存；RDB 为空时只做 singleflight 合并，不落 redis
type Cache struct {
	RDB *redis.Client
	log *zap.Logger
	sf  singleflight.Group
}

// New addr 为空表示不启用 redis
func New(addr, pass string, db int, l *zap.Logger) *Cache {
	if l == nil {
		l = zap.NewNop()
	}
	c := &Cache{log: l}
	if addr != "" {
		c.RDB = redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
	}
	return c
}

func (c *Cache) Enabled() bool { return c != nil && c.RDB != nil }

func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if c.Enabled() {
		b, err := c.RDB.Get(ctx, key).Bytes()
		if err == nil {
			return b, nil
		}
		if err != redis.Nil {
			c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
	}
	v, err, _ := c.sf.Do(key, func() (any, error) {
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		if c.Enabled() {
			if e := c.RDB.Set(ctx, key, b, ttl).Err(); e != nil {
				c.log.Warn("cache set failed", zap.String("key", key), zap.Error(e))
			}
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate 写路径调用；失败只记日志
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	if err := c.RDB.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.RDB.Close()
}

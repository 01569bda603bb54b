package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is the subset of the go-redis client the cooldown needs.
type Client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Cooldown keeps per-key quiet periods in Redis so they hold across replicas.
type Cooldown struct {
	rdb    Client
	prefix string
}

func NewCooldown(rdb Client, prefix string) *Cooldown {
	return &Cooldown{rdb: rdb, prefix: prefix}
}

// Acquire starts a quiet period of ttl for key and reports true, or reports
// false when one is already running. SET NX makes the check atomic.
func (c *Cooldown) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, c.prefix+key, 1, ttl).Result()
}

// Release ends key's quiet period early.
func (c *Cooldown) Release(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, c.prefix+key).Err()
}

// NewClient builds a go-redis client from connection settings.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

package memorystore

import (
	"context"
	"sync"
	"time"
)

// Cooldown tracks per-key quiet periods in process memory.
type Cooldown struct {
	mu    sync.Mutex
	until map[string]time.Time
	now   func() time.Time
}

func NewCooldown() *Cooldown {
	return &Cooldown{until: make(map[string]time.Time), now: time.Now}
}

// Acquire starts a quiet period of ttl for key and reports true, unless one
// is already running, in which case it reports false.
func (c *Cooldown) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if until, ok := c.until[key]; ok && now.Before(until) {
		return false, nil
	}
	c.until[key] = now.Add(ttl)
	return true, nil
}

// Release ends key's quiet period early.
func (c *Cooldown) Release(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.until, key)
	return nil
}

// Purge drops finished quiet periods.
func (c *Cooldown) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, until := range c.until {
		if !now.Before(until) {
			delete(c.until, k)
		}
	}
}

package memorystore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCooldown_Acquire(t *testing.T) {
	now := time.Now()
	c := NewCooldown()
	c.now = func() time.Time { return now }

	ok, err := c.Acquire(context.Background(), "register:a@x.com", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = c.Acquire(context.Background(), "register:a@x.com", 30*time.Second)
	assert.False(t, ok)

	ok, _ = c.Acquire(context.Background(), "reset:a@x.com", 30*time.Second)
	assert.True(t, ok, "keys are independent")

	now = now.Add(31 * time.Second)
	ok, _ = c.Acquire(context.Background(), "register:a@x.com", 30*time.Second)
	assert.True(t, ok)
}

func TestCooldown_Purge(t *testing.T) {
	now := time.Now()
	c := NewCooldown()
	c.now = func() time.Time { return now }
	_, _ = c.Acquire(context.Background(), "k", time.Second)

	now = now.Add(2 * time.Second)
	c.Purge()
	assert.Empty(t, c.until)
}

func TestCooldown_Release(t *testing.T) {
	c := NewCooldown()
	ctx := context.Background()
	_, _ = c.Acquire(ctx, "register:a@x.com", time.Minute)

	require.NoError(t, c.Release(ctx, "register:a@x.com"))
	ok, _ := c.Acquire(ctx, "register:a@x.com", time.Minute)
	assert.True(t, ok)
}

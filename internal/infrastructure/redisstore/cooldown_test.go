package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockClient struct{ mock.Mock }

func (m *mockClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	args := m.Called(ctx, key, value, expiration)
	return redis.NewBoolResult(args.Bool(0), args.Error(1))
}

func (m *mockClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	return redis.NewIntResult(int64(args.Int(0)), args.Error(1))
}

func TestCooldown_AcquirePrefixesKey(t *testing.T) {
	rdb := &mockClient{}
	rdb.On("SetNX", mock.Anything, "otp:cooldown:register:a@x.com", 1, 30*time.Second).Return(true, nil).Once()
	rdb.On("SetNX", mock.Anything, "otp:cooldown:register:a@x.com", 1, 30*time.Second).Return(false, nil).Once()

	c := NewCooldown(rdb, "otp:cooldown:")
	ok, err := c.Acquire(context.Background(), "register:a@x.com", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Acquire(context.Background(), "register:a@x.com", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
	rdb.AssertExpectations(t)
}

func TestCooldown_PropagatesError(t *testing.T) {
	rdb := &mockClient{}
	rdb.On("SetNX", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("connection refused"))

	_, err := NewCooldown(rdb, "").Acquire(context.Background(), "k", time.Second)
	assert.ErrorContains(t, err, "connection refused")
}

func TestCooldown_ReleaseDeletesPrefixedKey(t *testing.T) {
	rdb := &mockClient{}
	rdb.On("Del", mock.Anything, []string{"otp:cooldown:reset:a@x.com"}).Return(1, nil)

	require.NoError(t, NewCooldown(rdb, "otp:cooldown:").Release(context.Background(), "reset:a@x.com"))
	rdb.AssertExpectations(t)
}

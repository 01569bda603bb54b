package memorystore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-otp-nosql/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *OtpStore, now time.Time) {
	t.Helper()
	require.NoError(t, s.Upsert(context.Background(), &domain.OtpRecord{
		Email:     "a@x.com",
		Code:      "4821",
		Purpose:   domain.PurposeRegister,
		IssuedAt:  now,
		ExpiresAt: now.Add(10 * time.Minute),
		PurgeAt:   now.Add(20 * time.Minute).Unix(),
	}))
}

func TestOtpStore_UpsertOverwrites(t *testing.T) {
	s := NewOtpStore()
	now := time.Now()
	seed(t, s, now)
	require.NoError(t, s.Upsert(context.Background(), &domain.OtpRecord{Email: "a@x.com", Code: "1010", ExpiresAt: now.Add(time.Minute)}))

	rec, err := s.Find(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "1010", rec.Code)
	assert.Zero(t, rec.Attempts)
}

func TestOtpStore_FindMissing(t *testing.T) {
	_, err := NewOtpStore().Find(context.Background(), "nobody@x.com")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestOtpStore_InvalidateIsIdempotent(t *testing.T) {
	s := NewOtpStore()
	now := time.Now()
	assert.NoError(t, s.Invalidate(context.Background(), "a@x.com", now))

	seed(t, s, now)
	require.NoError(t, s.Invalidate(context.Background(), "a@x.com", now))
	require.NoError(t, s.Invalidate(context.Background(), "a@x.com", now.Add(time.Second)))

	rec, err := s.Find(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.True(t, rec.Expired(now.Add(time.Second)))
	require.NotNil(t, rec.InvalidatedAt)
	assert.True(t, rec.InvalidatedAt.Equal(now))
}

func TestOtpStore_MarkVerified_OnlyOnce(t *testing.T) {
	s := NewOtpStore()
	now := time.Now()
	seed(t, s, now)
	v := domain.Verification{Code: "4821", Now: now, MaxAttempts: 5, EnforceExpiry: true}

	rec, err := s.MarkVerified(context.Background(), "a@x.com", v)
	require.NoError(t, err)
	assert.NotNil(t, rec.VerifiedAt)

	_, err = s.MarkVerified(context.Background(), "a@x.com", v)
	assert.ErrorIs(t, err, domain.ErrConditionFailed)
}

func TestOtpStore_MarkVerified_ConcurrentCallersSeeOneSuccess(t *testing.T) {
	s := NewOtpStore()
	now := time.Now()
	seed(t, s, now)
	v := domain.Verification{Code: "4821", Now: now, EnforceExpiry: true}

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.MarkVerified(context.Background(), "a@x.com", v); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestOtpStore_RecordFailedAttempt(t *testing.T) {
	s := NewOtpStore()
	seed(t, s, time.Now())
	require.NoError(t, s.RecordFailedAttempt(context.Background(), "a@x.com"))
	require.NoError(t, s.RecordFailedAttempt(context.Background(), "a@x.com"))
	assert.NoError(t, s.RecordFailedAttempt(context.Background(), "missing@x.com"))

	rec, err := s.Find(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Attempts)
}

func TestOtpStore_ClaimConsumesOnce(t *testing.T) {
	s := NewOtpStore()
	now := time.Now()
	seed(t, s, now)
	_, err := s.MarkVerified(context.Background(), "a@x.com", domain.Verification{Code: "4821", Now: now})
	require.NoError(t, err)

	c := domain.Claim{Purpose: domain.PurposeRegister, Now: now, VerifiedSince: now.Add(-time.Minute), RequireVerified: true}
	rec, err := s.Claim(context.Background(), "a@x.com", c)
	require.NoError(t, err)
	assert.True(t, rec.Consumed())

	_, err = s.Claim(context.Background(), "a@x.com", c)
	assert.ErrorIs(t, err, domain.ErrConditionFailed)
}

func TestOtpStore_Purge(t *testing.T) {
	s := NewOtpStore()
	now := time.Now()
	seed(t, s, now)

	assert.Zero(t, s.Purge(now))
	assert.Equal(t, 1, s.Purge(now.Add(21*time.Minute)))
	_, err := s.Find(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

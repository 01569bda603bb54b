package memorystore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-otp-nosql/internal/domain"
)

// OtpStore is an in-process OTP store. Each method holds the mutex for its
// whole check-and-write, which gives the same atomicity as the DynamoDB
// conditional writes. It is only safe for single-process deployments.
type OtpStore struct {
	mu    sync.Mutex
	items map[string]domain.OtpRecord
}

func NewOtpStore() *OtpStore {
	return &OtpStore{items: make(map[string]domain.OtpRecord)}
}

func (s *OtpStore) Upsert(ctx context.Context, rec *domain.OtpRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.Email] = *rec
	return nil
}

func (s *OtpStore) Find(ctx context.Context, email string) (*domain.OtpRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[email]
	if !ok {
		return nil, fmt.Errorf("otp not found: %w", domain.ErrNotFound)
	}
	return &rec, nil
}

func (s *OtpStore) Invalidate(ctx context.Context, email string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[email]
	if !ok {
		return nil
	}
	rec.ExpiresAt = at
	if rec.InvalidatedAt == nil {
		rec.InvalidatedAt = &at
	}
	s.items[email] = rec
	return nil
}

func (s *OtpStore) MarkVerified(ctx context.Context, email string, v domain.Verification) (*domain.OtpRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[email]
	if !ok || !v.Allows(&rec) {
		return nil, domain.ErrConditionFailed
	}
	now := v.Now
	rec.VerifiedAt = &now
	rec.InvalidatedAt = &now
	rec.ExpiresAt = now
	s.items[email] = rec
	return &rec, nil
}

func (s *OtpStore) RecordFailedAttempt(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[email]
	if !ok {
		return nil
	}
	rec.Attempts++
	s.items[email] = rec
	return nil
}

func (s *OtpStore) Claim(ctx context.Context, email string, c domain.Claim) (*domain.OtpRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[email]
	if !ok || !c.Allows(&rec) {
		return nil, domain.ErrConditionFailed
	}
	now := c.Now
	rec.ConsumedAt = &now
	rec.ExpiresAt = now
	if rec.InvalidatedAt == nil {
		rec.InvalidatedAt = &now
	}
	s.items[email] = rec
	return &rec, nil
}

// Purge removes records whose purge time has passed and reports how many
// were removed. It plays the role of the DynamoDB TTL sweeper.
func (s *OtpStore) Purge(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for email, rec := range s.items {
		if rec.PurgeAt <= now.Unix() {
			delete(s.items, email)
			n++
		}
	}
	return n
}

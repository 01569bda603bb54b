package otp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-otp-nosql/internal/domain"
	"github.com/go-otp-nosql/internal/observability/metrics"
)

// Store persists one OtpRecord per email. Every mutating method is a single
// atomic write; MarkVerified and Claim return domain.ErrConditionFailed when
// their condition does not hold.
type Store interface {
	Upsert(ctx context.Context, rec *domain.OtpRecord) error
	Find(ctx context.Context, email string) (*domain.OtpRecord, error)
	Invalidate(ctx context.Context, email string, at time.Time) error
	MarkVerified(ctx context.Context, email string, v domain.Verification) (*domain.OtpRecord, error)
	RecordFailedAttempt(ctx context.Context, email string) error
	Claim(ctx context.Context, email string, c domain.Claim) (*domain.OtpRecord, error)
}

// Options tunes the code lifecycle.
type Options struct {
	TTL             time.Duration
	MaxAttempts     int
	EnforceExpiry   bool
	RequireVerified bool
	VerifiedWindow  time.Duration
}

type Service interface {
	Issue(ctx context.Context, email string, purpose domain.Purpose) (*domain.OtpRecord, error)
	Find(ctx context.Context, email string) (*domain.OtpRecord, error)
	Invalidate(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) (*domain.OtpRecord, error)
	Consume(ctx context.Context, email string, purpose domain.Purpose, code string) error
}

type ServiceDeps struct {
	Store     Store
	Generator Generator
	Options   Options
	// Now defaults to time.Now.
	Now func() time.Time
}

type service struct {
	store     Store
	generator Generator
	opts      Options
	now       func() time.Time
}

func NewService(deps ServiceDeps) Service {
	if deps.Generator == nil {
		deps.Generator = NewGenerator()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{
		store:     deps.Store,
		generator: deps.Generator,
		opts:      deps.Options,
		now:       deps.Now,
	}
}

// Issue generates a fresh code and overwrites whatever record the email had.
func (s *service) Issue(ctx context.Context, email string, purpose domain.Purpose) (*domain.OtpRecord, error) {
	email = domain.NormalizeEmail(email)
	now := s.now().UTC()
	rec := &domain.OtpRecord{
		Email:     email,
		Code:      s.generator.Generate(),
		Purpose:   purpose,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.opts.TTL),
		// Keep the row around long enough for a verified code to be claimed.
		PurgeAt: now.Add(s.opts.TTL + s.opts.VerifiedWindow).Unix(),
	}
	if err := s.store.Upsert(ctx, rec); err != nil {
		return nil, domain.Dependency("store otp", err)
	}
	metrics.OtpIssuedTotal.WithLabelValues(string(purpose)).Inc()
	return rec, nil
}

// Find returns the email's live code. Invalidated and expired records are
// reported as domain.ErrOtpNotFound even while the row still exists.
func (s *service) Find(ctx context.Context, email string) (*domain.OtpRecord, error) {
	rec, err := s.store.Find(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrOtpNotFound
		}
		return nil, domain.Dependency("find otp", err)
	}
	if rec.Invalidated() || (s.opts.EnforceExpiry && rec.Expired(s.now().UTC())) {
		return nil, domain.ErrOtpNotFound
	}
	return rec, nil
}

func (s *service) Invalidate(ctx context.Context, email string) error {
	if err := s.store.Invalidate(ctx, domain.NormalizeEmail(email), s.now().UTC()); err != nil {
		return domain.Dependency("invalidate otp", err)
	}
	return nil
}

// Verify checks code against the stored record and invalidates it on success.
// The check and the invalidation are one conditional write, so concurrent
// callers with the same code see at most one success. A failed attempt only
// bumps the attempt counter.
func (s *service) Verify(ctx context.Context, email, code string) (*domain.OtpRecord, error) {
	email = domain.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	v := domain.Verification{
		Code:          code,
		Now:           s.now().UTC(),
		MaxAttempts:   s.opts.MaxAttempts,
		EnforceExpiry: s.opts.EnforceExpiry,
	}
	rec, err := s.store.MarkVerified(ctx, email, v)
	if err == nil {
		metrics.OtpVerificationsTotal.WithLabelValues("verified").Inc()
		return rec, nil
	}
	if !errors.Is(err, domain.ErrConditionFailed) {
		metrics.OtpVerificationsTotal.WithLabelValues("error").Inc()
		return nil, domain.Dependency("verify otp", err)
	}

	verr := s.classify(ctx, email, v)
	switch {
	case errors.Is(verr, domain.ErrOtpMismatch):
		metrics.OtpVerificationsTotal.WithLabelValues("mismatch").Inc()
	case errors.Is(verr, domain.ErrOtpExpired):
		metrics.OtpVerificationsTotal.WithLabelValues("expired").Inc()
	case errors.Is(verr, domain.ErrOtpNotFound):
		metrics.OtpVerificationsTotal.WithLabelValues("not_found").Inc()
	default:
		metrics.OtpVerificationsTotal.WithLabelValues("error").Inc()
	}
	return nil, verr
}

// classify explains why a conditional verify did not apply. It only reads,
// apart from counting a wrong code as a failed attempt.
func (s *service) classify(ctx context.Context, email string, v domain.Verification) error {
	cur, err := s.store.Find(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrOtpNotFound
		}
		return domain.Dependency("find otp", err)
	}
	switch {
	case cur.Invalidated():
		return domain.ErrOtpNotFound
	case v.EnforceExpiry && cur.Expired(v.Now):
		return domain.ErrOtpExpired
	case v.MaxAttempts > 0 && cur.Attempts >= v.MaxAttempts:
		return fmt.Errorf("too many attempts: %w", domain.ErrOtpExpired)
	case cur.Code != v.Code:
		if err := s.store.RecordFailedAttempt(ctx, email); err != nil {
			slog.Warn("failed to record otp attempt", "email", email, "err", err)
		}
		return domain.ErrOtpMismatch
	default:
		// The record changed between the write and the read (re-issued or
		// verified concurrently).
		return domain.ErrOtpNotFound
	}
}

// Consume is the gate in front of credential changes. It atomically claims
// the email's record for purpose, marking it consumed. With a code, a record
// that was never verified is verified inline first.
func (s *service) Consume(ctx context.Context, email string, purpose domain.Purpose, code string) error {
	email = domain.NormalizeEmail(email)
	code = strings.TrimSpace(code)

	_, err := s.store.Claim(ctx, email, s.claim(purpose, code))
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrConditionFailed) {
		return domain.Dependency("claim otp", err)
	}
	if code == "" {
		return domain.ErrOtpNotIssued
	}

	cur, err := s.store.Find(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrOtpNotIssued
		}
		return domain.Dependency("find otp", err)
	}
	if cur.Purpose != purpose || cur.Consumed() {
		return domain.ErrOtpNotIssued
	}
	if _, err := s.Verify(ctx, email, code); err != nil {
		if errors.Is(err, domain.ErrOtpNotFound) {
			return domain.ErrOtpNotIssued
		}
		return err
	}
	if _, err := s.store.Claim(ctx, email, s.claim(purpose, code)); err != nil {
		if errors.Is(err, domain.ErrConditionFailed) {
			return domain.ErrOtpNotIssued
		}
		return domain.Dependency("claim otp", err)
	}
	return nil
}

func (s *service) claim(purpose domain.Purpose, code string) domain.Claim {
	now := s.now().UTC()
	return domain.Claim{
		Purpose:         purpose,
		Code:            code,
		Now:             now,
		VerifiedSince:   now.Add(-s.opts.VerifiedWindow),
		RequireVerified: s.opts.RequireVerified,
		MaxAttempts:     s.opts.MaxAttempts,
	}
}

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-otp-nosql/internal/domain"
)

// AccountChecker answers whether an account exists for an email.
type AccountChecker interface {
	Exists(ctx context.Context, email string) (bool, error)
}

// Issuer creates and checks one-time codes.
type Issuer interface {
	Issue(ctx context.Context, email string, purpose domain.Purpose) (*domain.OtpRecord, error)
	Verify(ctx context.Context, email, code string) (*domain.OtpRecord, error)
}

// Cooldown rate-limits code requests per key.
type Cooldown interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Dispatcher hands a code to the delivery gateway.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg domain.OtpMessage) error
}

// Service drives the code request and verification flows in front of the
// OTP store: who may ask for a code, how often, and how it gets delivered.
type Service interface {
	RequestCode(ctx context.Context, email string, purpose domain.Purpose) error
	VerifyCode(ctx context.Context, email, code string) error
}

type ServiceDeps struct {
	Accounts   AccountChecker
	Issuer     Issuer
	Cooldown   Cooldown // nil disables the resend cooldown
	Dispatcher Dispatcher
	// ResendCooldown is the minimum gap between two codes for the same email and purpose.
	ResendCooldown time.Duration
}

type service struct {
	accounts       AccountChecker
	issuer         Issuer
	cooldown       Cooldown
	dispatcher     Dispatcher
	resendCooldown time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		accounts:       deps.Accounts,
		issuer:         deps.Issuer,
		cooldown:       deps.Cooldown,
		dispatcher:     deps.Dispatcher,
		resendCooldown: deps.ResendCooldown,
	}
}

// RequestCode issues a fresh code for purpose and sends it. Registration
// codes are refused for known emails, reset codes for unknown ones.
func (s *service) RequestCode(ctx context.Context, email string, purpose domain.Purpose) error {
	email = domain.NormalizeEmail(email)

	exists, err := s.accounts.Exists(ctx, email)
	if err != nil {
		return err
	}
	switch purpose {
	case domain.PurposeRegister:
		if exists {
			return domain.ErrAlreadyExists
		}
	case domain.PurposeReset:
		if !exists {
			return domain.ErrUserNotFound
		}
	default:
		return fmt.Errorf("unknown purpose %q: %w", purpose, domain.ErrValidation)
	}

	key := string(purpose) + ":" + email
	held, err := s.acquireCooldown(ctx, key)
	if err != nil {
		return err
	}

	if err := s.issueAndSend(ctx, email, purpose); err != nil {
		// Nothing reached the user, so the next attempt must not wait.
		if held {
			s.releaseCooldown(ctx, key)
		}
		return err
	}
	return nil
}

func (s *service) issueAndSend(ctx context.Context, email string, purpose domain.Purpose) error {
	rec, err := s.issuer.Issue(ctx, email, purpose)
	if err != nil {
		return err
	}
	return s.dispatcher.Dispatch(ctx, domain.OtpMessage{
		To:        rec.Email,
		Code:      rec.Code,
		Purpose:   rec.Purpose,
		ExpiresAt: rec.ExpiresAt,
	})
}

// acquireCooldown reports whether a quiet period was started for key.
func (s *service) acquireCooldown(ctx context.Context, key string) (bool, error) {
	if s.cooldown == nil || s.resendCooldown <= 0 {
		return false, nil
	}
	ok, err := s.cooldown.Acquire(ctx, key, s.resendCooldown)
	if err != nil {
		// A broken cooldown backend must not lock users out of their codes.
		slog.Warn("resend cooldown unavailable", "key", key, "err", err)
		return false, nil
	}
	if !ok {
		return false, domain.ErrCodeCooldown
	}
	return true, nil
}

func (s *service) releaseCooldown(ctx context.Context, key string) {
	if err := s.cooldown.Release(context.WithoutCancel(ctx), key); err != nil {
		slog.Warn("failed to release resend cooldown", "key", key, "err", err)
	}
}

// VerifyCode checks a submitted code. A verified code stays claimable by the
// matching credential change for a limited window.
func (s *service) VerifyCode(ctx context.Context, email, code string) error {
	_, err := s.issuer.Verify(ctx, email, code)
	return err
}

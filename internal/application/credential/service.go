package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-otp-nosql/internal/domain"
	"github.com/go-otp-nosql/internal/observability/metrics"
	"github.com/go-otp-nosql/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// AccountStore persists accounts keyed by email. Create fails with
// domain.ErrConflict on a duplicate email; lookups and updates fail with
// domain.ErrNotFound when the account is missing.
type AccountStore interface {
	Create(ctx context.Context, a *domain.UserAccount) error
	GetByEmail(ctx context.Context, email string) (*domain.UserAccount, error)
	UpdatePasswordHash(ctx context.Context, email, hash string, at time.Time) error
}

// OtpGate consumes the email's one-time code before a credential change.
type OtpGate interface {
	Consume(ctx context.Context, email string, purpose domain.Purpose, code string) error
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.UserAccount, error)
	ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error
	Authenticate(ctx context.Context, email, password string) (*domain.UserAccount, error)
	Exists(ctx context.Context, email string) (bool, error)
}

type ServiceDeps struct {
	Accounts   AccountStore
	Gate       OtpGate
	BcryptCost int
	Now        func() time.Time
}

type service struct {
	accounts AccountStore
	gate     OtpGate
	cost     int
	now      func() time.Time
}

func NewService(deps ServiceDeps) Service {
	if deps.BcryptCost == 0 {
		deps.BcryptCost = bcrypt.DefaultCost
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{accounts: deps.Accounts, gate: deps.Gate, cost: deps.BcryptCost, now: deps.Now}
}

// Register creates the account once the email's register code has been
// verified. A duplicate email is rejected before any hashing happens.
func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.UserAccount, error) {
	email := domain.NormalizeEmail(req.Email)

	exists, err := s.Exists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		metrics.CredentialChangesTotal.WithLabelValues("register", "conflict").Inc()
		return nil, domain.ErrAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.gate.Consume(ctx, email, domain.PurposeRegister, ""); err != nil {
		metrics.CredentialChangesTotal.WithLabelValues("register", "rejected").Inc()
		return nil, err
	}

	now := s.now().UTC()
	a := &domain.UserAccount{
		UserID:       id.New(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			metrics.CredentialChangesTotal.WithLabelValues("register", "conflict").Inc()
			return nil, domain.ErrAlreadyExists
		}
		return nil, domain.Dependency("create account", err)
	}
	metrics.CredentialChangesTotal.WithLabelValues("register", "ok").Inc()
	slog.Info("account registered", "user_id", a.UserID)
	return a, nil
}

// ResetPassword overwrites the password hash after consuming the reset code.
// A missing account is reported even when the code is valid.
func (s *service) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	email := domain.NormalizeEmail(req.Email)

	exists, err := s.Exists(ctx, email)
	if err != nil {
		return err
	}
	if !exists {
		metrics.CredentialChangesTotal.WithLabelValues("reset", "not_found").Inc()
		return domain.ErrUserNotFound
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.gate.Consume(ctx, email, domain.PurposeReset, req.OTP.String()); err != nil {
		metrics.CredentialChangesTotal.WithLabelValues("reset", "rejected").Inc()
		return err
	}
	if err := s.accounts.UpdatePasswordHash(ctx, email, string(hash), s.now().UTC()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return domain.Dependency("update password", err)
	}
	metrics.CredentialChangesTotal.WithLabelValues("reset", "ok").Inc()
	slog.Info("password reset", "email", email)
	return nil
}

// Authenticate checks password against the stored hash. It issues nothing;
// callers own whatever session follows.
func (s *service) Authenticate(ctx context.Context, email, password string) (*domain.UserAccount, error) {
	a, err := s.accounts.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.LoginAttemptsTotal.WithLabelValues("not_found").Inc()
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.Dependency("get account", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("wrong_password").Inc()
		return nil, domain.ErrPasswordIncorrect
	}
	metrics.LoginAttemptsTotal.WithLabelValues("ok").Inc()
	return a, nil
}

func (s *service) Exists(ctx context.Context, email string) (bool, error) {
	_, err := s.accounts.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, domain.Dependency("get account", err)
}

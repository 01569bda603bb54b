package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrExpired     = errors.New("expired")
	ErrDependency  = errors.New("dependency unavailable")
	ErrRateLimited = errors.New("rate limited")
)

// Specific outcomes of the OTP and credential flows. Each wraps one of the
// sentinels above, so errors.Is works against either level.
var (
	ErrOtpNotFound       = fmt.Errorf("otp not found, send a code first: %w", ErrNotFound)
	ErrOtpMismatch       = fmt.Errorf("invalid otp: %w", ErrValidation)
	ErrOtpExpired        = fmt.Errorf("otp expired: %w", ErrExpired)
	ErrOtpNotIssued      = fmt.Errorf("send otp first: %w", ErrNotFound)
	ErrAlreadyExists     = fmt.Errorf("email is already in use: %w", ErrConflict)
	ErrUserNotFound      = fmt.Errorf("user not found: %w", ErrNotFound)
	ErrPasswordIncorrect = fmt.Errorf("password incorrect: %w", ErrValidation)
	ErrCodeCooldown      = fmt.Errorf("a code was sent recently, try again later: %w", ErrRateLimited)
)

// ErrConditionFailed is returned by stores when an atomic conditional write
// did not apply. It never leaves the application layer.
var ErrConditionFailed = errors.New("condition failed")

// Dependency wraps an infrastructure error so that it matches ErrDependency
// while keeping the cause for logging.
func Dependency(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrDependency, err)
}

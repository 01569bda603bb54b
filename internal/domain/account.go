package domain

import "time"

// UserAccount is keyed by email; the partition key makes uniqueness a
// conditional write rather than a lookup.
type UserAccount struct {
	UserID       string    `json:"id" dynamodbav:"user_id"`
	Email        string    `json:"email" dynamodbav:"email"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type ResetPasswordRequest struct {
	Email    string `json:"email" validate:"required,email"`
	OTP      Code   `json:"otp" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest checks a password only; no session or token is issued.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

func (r *RegisterRequest) Normalize()      { r.Email = NormalizeEmail(r.Email) }
func (r *ResetPasswordRequest) Normalize() { r.Email = NormalizeEmail(r.Email) }
func (r *LoginRequest) Normalize()         { r.Email = NormalizeEmail(r.Email) }

package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Purpose names the flow a code was issued for.
type Purpose string

const (
	PurposeRegister Purpose = "register"
	PurposeReset    Purpose = "reset"
)

// OtpRecord is the single outstanding one-time code for an email.
// PK: email. PurgeAt is a Unix timestamp used as DynamoDB TTL.
// A record whose ExpiresAt is not after now is logically absent.
type OtpRecord struct {
	Email         string     `json:"email" dynamodbav:"email"`
	Code          string     `json:"-" dynamodbav:"code"`
	Purpose       Purpose    `json:"purpose" dynamodbav:"purpose"`
	IssuedAt      time.Time  `json:"issued_at" dynamodbav:"issued_at,unixtime"`
	ExpiresAt     time.Time  `json:"expires_at" dynamodbav:"expires_at,unixtime"`
	Attempts      int        `json:"attempts" dynamodbav:"attempts"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty" dynamodbav:"verified_at,unixtime,omitempty"`
	InvalidatedAt *time.Time `json:"invalidated_at,omitempty" dynamodbav:"invalidated_at,unixtime,omitempty"`
	ConsumedAt    *time.Time `json:"consumed_at,omitempty" dynamodbav:"consumed_at,unixtime,omitempty"`
	PurgeAt       int64      `json:"-" dynamodbav:"purge_at"`
}

func (r *OtpRecord) Invalidated() bool { return r.InvalidatedAt != nil }

func (r *OtpRecord) Expired(now time.Time) bool { return !r.ExpiresAt.After(now) }

func (r *OtpRecord) Consumed() bool { return r.ConsumedAt != nil }

// Verification holds the conditions under which a submitted code verifies a record.
type Verification struct {
	Code          string
	Now           time.Time
	MaxAttempts   int // <= 0 disables the cap
	EnforceExpiry bool
}

// Allows reports whether r would be verified by v.
func (v Verification) Allows(r *OtpRecord) bool {
	if r == nil || r.Invalidated() || r.Code != v.Code {
		return false
	}
	if v.MaxAttempts > 0 && r.Attempts >= v.MaxAttempts {
		return false
	}
	if v.EnforceExpiry && r.Expired(v.Now) {
		return false
	}
	return true
}

// Claim holds the conditions under which a credential change may consume a record.
type Claim struct {
	Purpose Purpose
	// Code is compared against the stored code when non-empty.
	Code            string
	Now             time.Time
	VerifiedSince   time.Time
	RequireVerified bool
	// MaxAttempts caps failed attempts on the unverified path; <= 0 disables it.
	MaxAttempts int
}

// Allows reports whether r may be consumed under c. Without RequireVerified an
// unverified record that is still active is accepted too.
func (c Claim) Allows(r *OtpRecord) bool {
	if r == nil || r.Consumed() || r.Purpose != c.Purpose {
		return false
	}
	if c.Code != "" && r.Code != c.Code {
		return false
	}
	verified := r.VerifiedAt != nil && !r.VerifiedAt.Before(c.VerifiedSince)
	if verified {
		return true
	}
	if c.RequireVerified || r.Invalidated() || r.Expired(c.Now) {
		return false
	}
	return c.MaxAttempts <= 0 || r.Attempts < c.MaxAttempts
}

// OtpMessage is what the delivery gateway sends.
type OtpMessage struct {
	To        string
	Code      string
	Purpose   Purpose
	ExpiresAt time.Time
}

// NormalizeEmail is the canonical key form of an email: trimmed and lower-cased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Code is a submitted OTP. Clients send it either as a JSON string or as a
// number; both decode to the same digit string.
type Code string

func (c *Code) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*c = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*c = Code(strings.TrimSpace(str))
		return nil
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return fmt.Errorf("otp must be a string of digits, got %s", s)
		}
	}
	*c = Code(s)
	return nil
}

func (c Code) String() string { return string(c) }

type RequestCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   Code   `json:"otp" validate:"required"`
}

func (r *RequestCodeRequest) Normalize() { r.Email = NormalizeEmail(r.Email) }
func (r *VerifyOTPRequest) Normalize()   { r.Email = NormalizeEmail(r.Email) }

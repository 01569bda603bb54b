package smtp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-otp-nosql/internal/config"
	"github.com/go-otp-nosql/internal/domain"
	"github.com/stretchr/testify/assert"
)

func testMailer() *mailer {
	return NewMailer(&config.Config{
		SMTPHost:     "127.0.0.1",
		SMTPPort:     "1",
		SMTPFrom:     "noreply@example.com",
		SMTPFromName: "Yoga Path",
		AppName:      "Yoga Path",
		AppURL:       "https://yogpathwellness.com",
	}).(*mailer)
}

func TestCompose_Register(t *testing.T) {
	subject, body := testMailer().compose(domain.OtpMessage{To: "a@x.com", Code: "4821", Purpose: domain.PurposeRegister})

	assert.Equal(t, "OTP Verification", subject)
	assert.Contains(t, body, "https://yogpathwellness.com is 4821")
	assert.NotContains(t, body, "expires")
}

func TestCompose_ResetMentionsExpiry(t *testing.T) {
	exp := time.Date(2026, 3, 1, 12, 10, 0, 0, time.UTC)
	subject, body := testMailer().compose(domain.OtpMessage{To: "a@x.com", Code: "4821", Purpose: domain.PurposeReset, ExpiresAt: exp})

	assert.Contains(t, subject, "password reset")
	assert.Contains(t, body, "4821")
	assert.Contains(t, body, "Sun, 01 Mar 2026 12:10:00 UTC")
}

func TestMessage_Headers(t *testing.T) {
	raw := string(testMailer().message("a@x.com", "OTP Verification", "body"))

	head, body, ok := strings.Cut(raw, "\r\n\r\n")
	assert.True(t, ok)
	assert.Contains(t, head, `From: "Yoga Path" <noreply@example.com>`)
	assert.Contains(t, head, "To: a@x.com")
	assert.Contains(t, head, "Content-Type: text/plain; charset=UTF-8")
	assert.Equal(t, "body", body)
}

func TestSendOTP_DialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := testMailer().SendOTP(ctx, domain.OtpMessage{To: "a@x.com", Code: "4821"})
	assert.ErrorContains(t, err, "dial smtp")
}

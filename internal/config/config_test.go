package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OTP_TTL", "")
	t.Setenv("OTP_DELIVERY_MODE", "")
	t.Setenv("TRUSTED_PROXIES", "")
	cfg := Load()

	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, 10*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 5, cfg.OTP.MaxAttempts)
	assert.True(t, cfg.OTP.EnforceExpiry)
	assert.True(t, cfg.OTP.RequireVerified)
	assert.True(t, cfg.OTP.DeliveryAsync)
	assert.Equal(t, "otps", cfg.DynamoTables.Otps)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("OTP_TTL", "120")
	t.Setenv("OTP_RESEND_COOLDOWN", "1m")
	t.Setenv("OTP_ENFORCE_EXPIRY", "false")
	t.Setenv("OTP_DELIVERY_MODE", "sync")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, ,127.0.0.1")
	cfg := Load()

	assert.Equal(t, 2*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, time.Minute, cfg.OTP.ResendCooldown)
	assert.False(t, cfg.OTP.EnforceExpiry)
	assert.False(t, cfg.OTP.DeliveryAsync)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)
}

func TestGetEnvInt_IgnoresGarbage(t *testing.T) {
	t.Setenv("BCRYPT_COST", "lots")
	assert.Equal(t, 10, Load().BcryptCost)
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string
	AppEnv   string
	AppName  string
	AppURL   string
	LogLevel string

	StoreBackend   string // "dynamo" | "memory"
	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPFromName string
	SMTPUsername string
	SMTPPassword string

	SNSRegion        string
	SNSAlertTopicARN string // empty disables delivery-failure alerts

	RedisAddr     string // empty falls back to the in-process cooldown
	RedisPassword string
	RedisDB       int

	AllowedOrigins []string // CORS allowed origins
	TrustedProxies []string // IPs or CIDRs whose forwarding headers are believed
	BcryptCost     int
	OTP            OTP
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Otps     string
	Accounts string
}

// OTP tunes the one-time code lifecycle.
type OTP struct {
	TTL             time.Duration
	MaxAttempts     int
	EnforceExpiry   bool
	RequireVerified bool
	// VerifiedWindow is how long a verified code stays claimable by register/reset.
	VerifiedWindow  time.Duration
	ResendCooldown  time.Duration
	DeliveryAsync   bool
	DeliveryTimeout time.Duration
	SweepSchedule   string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		AppName:        getEnv("APP_NAME", "Yoga Path"),
		AppURL:         getEnv("APP_URL", "http://localhost:3000"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		StoreBackend:   getEnv("STORE_BACKEND", "dynamo"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Otps:     getEnv("DYNAMO_TABLE_OTPS", "otps"),
			Accounts: getEnv("DYNAMO_TABLE_ACCOUNTS", "accounts"),
		},
		SMTPHost:         getEnv("SMTP_HOST", "localhost"),
		SMTPPort:         getEnv("SMTP_PORT", "1025"),
		SMTPFrom:         getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPFromName:     getEnv("SMTP_FROM_NAME", "Yoga Path"),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SNSRegion:        getEnv("SNS_REGION", "us-east-1"),
		SNSAlertTopicARN: getEnv("SNS_ALERT_TOPIC_ARN", ""),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		AllowedOrigins:   strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		TrustedProxies:   getEnvList("TRUSTED_PROXIES"),
		BcryptCost:       getEnvInt("BCRYPT_COST", 10),
		OTP: OTP{
			TTL:             getEnvDuration("OTP_TTL", 10*time.Minute),
			MaxAttempts:     getEnvInt("OTP_MAX_ATTEMPTS", 5),
			EnforceExpiry:   getEnvBool("OTP_ENFORCE_EXPIRY", true),
			RequireVerified: getEnvBool("OTP_REQUIRE_VERIFIED", true),
			VerifiedWindow:  getEnvDuration("OTP_VERIFIED_WINDOW", 10*time.Minute),
			ResendCooldown:  getEnvDuration("OTP_RESEND_COOLDOWN", 30*time.Second),
			DeliveryAsync:   getEnv("OTP_DELIVERY_MODE", "async") != "sync",
			DeliveryTimeout: getEnvDuration("OTP_DELIVERY_TIMEOUT", 15*time.Second),
			SweepSchedule:   getEnv("OTP_SWEEP_SCHEDULE", "@every 1m"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("10m") or plain seconds ("600").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

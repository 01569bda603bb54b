package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-otp-nosql/internal/application/auth"
	"github.com/go-otp-nosql/internal/application/credential"
	"github.com/go-otp-nosql/internal/application/otp"
	"github.com/go-otp-nosql/internal/config"
	"github.com/go-otp-nosql/internal/domain"
	"github.com/go-otp-nosql/internal/infrastructure/memorystore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// captureDispatcher records the last code handed to delivery.
type captureDispatcher struct{ last domain.OtpMessage }

func (d *captureDispatcher) Dispatch(_ context.Context, msg domain.OtpMessage) error {
	d.last = msg
	return nil
}

func newTestServer(t *testing.T) (http.Handler, *captureDispatcher) {
	t.Helper()
	otps := otp.NewService(otp.ServiceDeps{
		Store: memorystore.NewOtpStore(),
		Options: otp.Options{
			TTL: 10 * time.Minute, MaxAttempts: 5, EnforceExpiry: true,
			RequireVerified: true, VerifiedWindow: 10 * time.Minute,
		},
	})
	creds := credential.NewService(credential.ServiceDeps{
		Accounts:   memorystore.NewAccountStore(),
		Gate:       otps,
		BcryptCost: bcrypt.MinCost,
	})
	d := &captureDispatcher{}
	codes := auth.NewService(auth.ServiceDeps{Accounts: creds, Issuer: otps, Dispatcher: d})
	return NewRouter(&config.Config{AllowedOrigins: []string{"*"}}, &Deps{Codes: codes, Credentials: creds}), d
}

func do(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_RegisterThenResetFlow(t *testing.T) {
	h, d := newTestServer(t)

	require.Equal(t, http.StatusOK, do(t, h, "/v1/register/otp", `{"email":"a@x.com"}`).Code)
	code := d.last.Code
	require.Len(t, code, 4)

	rr := do(t, h, "/v1/register", `{"email":"a@x.com","password":"password123"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "OTP_NOT_ISSUED")

	require.Equal(t, http.StatusOK, do(t, h, "/v1/otp/verify", `{"email":"a@x.com","otp":"`+code+`"}`).Code)
	rr = do(t, h, "/v1/otp/verify", `{"email":"a@x.com","otp":"`+code+`"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "OTP_NOT_FOUND")

	require.Equal(t, http.StatusOK, do(t, h, "/v1/register", `{"email":"a@x.com","password":"password123"}`).Code)

	rr = do(t, h, "/v1/register/otp", `{"email":"a@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "ALREADY_EXISTS")

	require.Equal(t, http.StatusOK, do(t, h, "/v1/forgot/otp", `{"email":"a@x.com"}`).Code)
	resetBody := `{"email":"a@x.com","otp":"` + d.last.Code + `","password":"newpassword1"}`
	assert.Equal(t, http.StatusOK, do(t, h, "/v1/forgot", resetBody).Code)

	rr = do(t, h, "/v1/login", `{"email":"a@x.com","password":"password123"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "PASSWORD_INCORRECT")
	rr = do(t, h, "/v1/login", `{"email":" A@x.com","password":"newpassword1"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Login successful")
}

func TestRouter_ForgotUnknownUser(t *testing.T) {
	h, _ := newTestServer(t)

	rr := do(t, h, "/v1/forgot/otp", `{"email":"nobody@x.com"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, "/v1/forgot", `{"email":"nobody@x.com","otp":"1234","password":"newpassword1"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "USER_NOT_FOUND")

	rr = do(t, h, "/v1/login", `{"email":"nobody@x.com","password":"password123"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "USER_NOT_FOUND")
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	h, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health-check/ping", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

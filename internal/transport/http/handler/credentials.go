package handler

import (
	"context"
	"net/http"

	"github.com/go-otp-nosql/internal/domain"
	"github.com/go-otp-nosql/internal/pkg/validate"
)

// CredentialService is what the account endpoints need.
type CredentialService interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.UserAccount, error)
	ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error
	Authenticate(ctx context.Context, email, password string) (*domain.UserAccount, error)
}

// CredentialHandler creates accounts and resets passwords behind a consumed
// OTP, and checks passwords for login.
type CredentialHandler struct {
	svc CredentialService
}

func NewCredentialHandler(svc CredentialService) *CredentialHandler {
	return &CredentialHandler{svc: svc}
}

func (h *CredentialHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decode(w, r, &req, validate.Struct) {
		return
	}
	a, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AccountEnvelope{Message: "User Registered", User: a})
}

func (h *CredentialHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if !decode(w, r, &req, validate.Struct) {
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Password updated"})
}

// Login checks the password and returns the account. Session handling is left
// to the caller.
func (h *CredentialHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decode(w, r, &req, validate.Struct) {
		return
	}
	a, err := h.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AccountEnvelope{Message: "Login successful", User: a})
}

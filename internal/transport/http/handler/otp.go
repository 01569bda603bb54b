package handler

import (
	"context"
	"net/http"

	"github.com/go-otp-nosql/internal/domain"
	"github.com/go-otp-nosql/internal/pkg/validate"
)

// CodeService is what the OTP endpoints need from the auth flow.
type CodeService interface {
	RequestCode(ctx context.Context, email string, purpose domain.Purpose) error
	VerifyCode(ctx context.Context, email, code string) error
}

// OTPHandler issues and verifies one-time codes.
type OTPHandler struct {
	svc CodeService
}

func NewOTPHandler(svc CodeService) *OTPHandler {
	return &OTPHandler{svc: svc}
}

// RequestRegisterCode sends a code to an email that has no account yet.
func (h *OTPHandler) RequestRegisterCode(w http.ResponseWriter, r *http.Request) {
	h.requestCode(w, r, domain.PurposeRegister)
}

// RequestResetCode sends a code to the email of an existing account.
func (h *OTPHandler) RequestResetCode(w http.ResponseWriter, r *http.Request) {
	h.requestCode(w, r, domain.PurposeReset)
}

func (h *OTPHandler) requestCode(w http.ResponseWriter, r *http.Request, purpose domain.Purpose) {
	var req domain.RequestCodeRequest
	if !decode(w, r, &req, validate.Struct) {
		return
	}
	if err := h.svc.RequestCode(r.Context(), req.Email, purpose); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "OTP sent"})
}

func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if !decode(w, r, &req, validate.Struct) {
		return
	}
	if err := h.svc.VerifyCode(r.Context(), req.Email, req.OTP.String()); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "OTP verified"})
}

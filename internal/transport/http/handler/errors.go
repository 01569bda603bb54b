package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-otp-nosql/internal/domain"
)

// Error codes returned in MessageEnvelope.ErrorCode.
const (
	CodeOtpNotFound       = "OTP_NOT_FOUND"
	CodeOtpMismatch       = "OTP_MISMATCH"
	CodeOtpExpired        = "OTP_EXPIRED"
	CodeOtpNotIssued      = "OTP_NOT_ISSUED"
	CodeAlreadyExists     = "ALREADY_EXISTS"
	CodeUserNotFound      = "USER_NOT_FOUND"
	CodePasswordIncorrect = "PASSWORD_INCORRECT"
	CodeInvalidFields     = "INVALID_FIELDS"
	CodeRateLimited       = "RATE_LIMITED"
	CodeServerError       = "SERVER_ERROR"
)

// httpError maps a service error onto status and error code. Anything that
// is not a known domain outcome is logged and answered generically.
func httpError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, status, code, "something went wrong, please try again")
		return
	}
	writeError(w, status, code, userMessage(err))
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrDependency):
		return http.StatusInternalServerError, CodeServerError
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, CodeUserNotFound
	case errors.Is(err, domain.ErrOtpNotIssued):
		return http.StatusBadRequest, CodeOtpNotIssued
	case errors.Is(err, domain.ErrOtpNotFound):
		return http.StatusBadRequest, CodeOtpNotFound
	case errors.Is(err, domain.ErrOtpMismatch):
		return http.StatusBadRequest, CodeOtpMismatch
	case errors.Is(err, domain.ErrPasswordIncorrect):
		return http.StatusBadRequest, CodePasswordIncorrect
	case errors.Is(err, domain.ErrExpired):
		return http.StatusBadRequest, CodeOtpExpired
	case errors.Is(err, domain.ErrConflict):
		return http.StatusBadRequest, CodeAlreadyExists
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, CodeRateLimited
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, CodeInvalidFields
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusBadRequest, CodeOtpNotFound
	default:
		return http.StatusInternalServerError, CodeServerError
	}
}

// userMessage drops the sentinel suffix, so "invalid otp: validation failed"
// reads "invalid otp".
func userMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{
		domain.ErrValidation, domain.ErrNotFound, domain.ErrConflict, domain.ErrExpired, domain.ErrRateLimited,
	} {
		if errors.Is(err, sentinel) {
			return strings.TrimSuffix(msg, ": "+sentinel.Error())
		}
	}
	return msg
}

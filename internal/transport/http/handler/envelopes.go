package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-otp-nosql/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

// AccountEnvelope wraps the register and login responses.
type AccountEnvelope struct {
	Message string              `json:"message"`
	User    *domain.UserAccount `json:"user,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg, ErrorCode: code})
}

type normalizer interface {
	Normalize()
}

// decode reads a JSON body into dst, normalizes it and validates it. On
// failure it has already written the response.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}, validate func(interface{}) error) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidFields, "invalid request body")
		return false
	}
	if n, ok := dst.(normalizer); ok {
		n.Normalize()
	}
	if err := validate(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidFields, err.Error())
		return false
	}
	return true
}

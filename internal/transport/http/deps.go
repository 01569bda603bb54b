package http

import (
	"github.com/go-otp-nosql/internal/transport/http/handler"
)

// Deps holds the application services the router exposes.
type Deps struct {
	Codes       handler.CodeService
	Credentials handler.CredentialService
}

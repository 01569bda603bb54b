package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-otp-nosql/internal/config"
	"github.com/go-otp-nosql/internal/transport/http/handler"
	appmiddleware "github.com/go-otp-nosql/internal/transport/http/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10; applied to every endpoint that sends
	// mail or touches credentials.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10, cfg.TrustedProxies)

	healthH := handler.NewHealthHandler()
	otpH := handler.NewOTPHandler(deps.Codes)
	credH := handler.NewCredentialHandler(deps.Credentials)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		r.Group(func(r chi.Router) {
			r.Use(sensitiveRL.Limit)

			r.Post("/register/otp", otpH.RequestRegisterCode)
			r.Post("/forgot/otp", otpH.RequestResetCode)
			r.Post("/otp/verify", otpH.Verify)
			r.Post("/register", credH.Register)
			r.Post("/forgot", credH.ResetPassword)
			r.Post("/login", credH.Login)
		})
	})

	return r
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	OtpIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_issued_total",
			Help: "Total number of one-time codes issued.",
		},
		[]string{"purpose"},
	)

	OtpVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_verifications_total",
			Help: "Total number of code verification attempts by outcome.",
		},
		[]string{"result"},
	)

	OtpDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_deliveries_total",
			Help: "Total number of code deliveries by outcome.",
		},
		[]string{"result"},
	)

	CredentialChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credential_changes_total",
			Help: "Total number of registrations and password resets by outcome.",
		},
		[]string{"flow", "result"},
	)

	LoginAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Total number of password checks by outcome.",
		},
		[]string{"result"},
	)
)

// MustRegister registers every collector with the default registry, tagging
// each series with the service name. Collectors work unregistered, which is
// what the tests rely on.
func MustRegister(serviceName string) {
	prometheus.WrapRegistererWith(prometheus.Labels{"service": serviceName}, prometheus.DefaultRegisterer).MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		OtpIssuedTotal,
		OtpVerificationsTotal,
		OtpDeliveriesTotal,
		CredentialChangesTotal,
		LoginAttemptsTotal,
	)
}

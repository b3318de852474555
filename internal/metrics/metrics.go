package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Registrations = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "pokeruta_registrations_total", Help: "Total participant registrations (including repeat upserts)"},
	)
	Captures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "pokeruta_captures_total", Help: "Total new captures recorded"},
	)
	Finishes = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "pokeruta_finishes_total", Help: "Total completion codes issued"},
	)
	Verifications = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "pokeruta_verifications_total", Help: "Total completion codes verified in person"},
	)
	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "pokeruta_rate_limited_total", Help: "Total requests rejected by the rate limiter"},
	)
)

func Register() {
	prometheus.MustRegister(Registrations, Captures, Finishes, Verifications, RateLimited)
}

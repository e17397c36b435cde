package obs

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	loginTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_total",
			Help: "Login attempts by outcome.",
		},
		[]string{"result"},
	)

	tokenRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_refresh_total",
			Help: "Refresh token exchanges by outcome.",
		},
		[]string{"result"},
	)

	csrfConsumedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_csrf_consumed_total",
			Help: "CSRF token consumptions by outcome.",
		},
		[]string{"result"},
	)

	lockoutsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_account_lockouts_total",
		Help: "Accounts locked after exceeding the failure threshold.",
	})

	sweepDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_token_sweep_deleted_total",
		Help: "Expired token rows removed by the sweeper.",
	})

	auditDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_audit_dropped_total",
		Help: "Audit events that could not be persisted.",
	})

	passwordHashDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "auth_password_hash_seconds",
		Help:    "Password hashing latency in seconds.",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})
)

// Init registers the auth metrics with the default registry.
func Init() {
	prometheus.MustRegister(
		loginTotal,
		tokenRefreshTotal,
		csrfConsumedTotal,
		lockoutsTotal,
		sweepDeletedTotal,
		auditDroppedTotal,
		passwordHashDuration,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveLogin(result string) { loginTotal.WithLabelValues(result).Inc() }

func ObserveTokenRefresh(result string) { tokenRefreshTotal.WithLabelValues(result).Inc() }

func ObserveCSRFConsume(result string) { csrfConsumedTotal.WithLabelValues(result).Inc() }

func ObserveLockout() { lockoutsTotal.Inc() }

func ObserveSweep(deleted int64) { sweepDeletedTotal.Add(float64(deleted)) }

func ObserveAuditDropped() { auditDroppedTotal.Inc() }

func ObservePasswordHash(d time.Duration) { passwordHashDuration.Observe(d.Seconds()) }

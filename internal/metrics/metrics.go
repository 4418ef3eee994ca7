package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	unlockAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "noorgate_unlock_attempts_total",
		Help: "Total number of unlock attempts by result",
	}, []string{"result"})
	lockoutsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "noorgate_lockouts_total",
		Help: "Total number of lockouts triggered",
	})
	resetRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "noorgate_reset_requests_total",
		Help: "Total number of reset-code requests accepted",
	})
	rotationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "noorgate_passcode_rotations_total",
		Help: "Total number of successful passcode rotations",
	})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(unlockAttemptsTotal, lockoutsTotal, resetRequestsTotal, rotationsTotal)
}

// IncUnlockAttempt increments the attempt counter for a result label.
func IncUnlockAttempt(result string) { unlockAttemptsTotal.WithLabelValues(result).Inc() }

// IncLockout increments the lockout counter.
func IncLockout() { lockoutsTotal.Inc() }

// IncResetRequest increments the accepted reset-request counter.
func IncResetRequest() { resetRequestsTotal.Inc() }

// IncRotation increments the successful rotation counter.
func IncRotation() { rotationsTotal.Inc() }

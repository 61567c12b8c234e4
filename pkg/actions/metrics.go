package actions

import (
	"context"
	"errors"
	"time"

	"github.com/entrhq/steer/pkg/engine"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for browser actions. A nil *Metrics
// records nothing.
type Metrics struct {
	attempts *prometheus.CounterVec
	retries  *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the action collectors with reg. Collectors already
// registered under the same names are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "steer",
			Subsystem: "actions",
			Name:      "attempts_total",
			Help:      "Engine invocations made by browser actions, retries included.",
		}, []string{"action"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "steer",
			Subsystem: "actions",
			Name:      "retries_total",
			Help:      "Failed attempts that were retried.",
		}, []string{"action"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "steer",
			Subsystem: "actions",
			Name:      "failures_total",
			Help:      "Actions that returned an error to the caller.",
		}, []string{"action", "reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "steer",
			Subsystem: "actions",
			Name:      "duration_seconds",
			Help:      "Wall time of browser actions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action", "status"}),
	}

	var err error
	if m.attempts, err = registerCounterVec(reg, m.attempts); err != nil {
		return nil, err
	}
	if m.retries, err = registerCounterVec(reg, m.retries); err != nil {
		return nil, err
	}
	if m.failures, err = registerCounterVec(reg, m.failures); err != nil {
		return nil, err
	}
	if err := reg.Register(m.duration); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		existing, ok := already.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, err
		}
		m.duration = existing
	}

	return m, nil
}

// MustNewMetrics is NewMetrics that panics on registration errors.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	m, err := NewMetrics(reg)
	if err != nil {
		panic(err)
	}
	return m
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		return existing, nil
	}
	return c, nil
}

func (m *Metrics) incAttempt(action string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(action).Inc()
}

func (m *Metrics) incRetry(action string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(action).Inc()
}

func (m *Metrics) observe(action string, took time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
		m.failures.WithLabelValues(action, failureReason(err)).Inc()
	}
	m.duration.WithLabelValues(action, status).Observe(took.Seconds())
}

// failureReason maps an action error to a low-cardinality label.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrSelectorTimeout):
		return "selector_timeout"
	case errors.Is(err, ErrNavigationBlocked):
		return "navigation_blocked"
	case errors.Is(err, engine.ErrNotInitialized):
		return "not_initialized"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case engine.IsTimeout(err):
		return "timeout"
	default:
		return "error"
	}
}

package actions

import (
	"time"

	"github.com/entrhq/steer/pkg/logging"
)

// Option configures Actions.
type Option func(*Actions)

// WithRetryPolicy replaces the default retry policy of every action.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(a *Actions) {
		a.retry = policy
	}
}

// WithNavigationPolicy restricts the hosts GoToURL may open.
func WithNavigationPolicy(policy *NavigationPolicy) Option {
	return func(a *Actions) {
		a.navigation = policy
	}
}

// WithMetrics records action metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(a *Actions) {
		a.metrics = metrics
	}
}

// WithLogger sets the logger actions are reported to.
func WithLogger(logger *logging.Logger) Option {
	return func(a *Actions) {
		a.logger = logger
	}
}

// CallOption overrides settings for a single action call.
type CallOption func(*call)

type call struct {
	timeoutMS float64
	retry     RetryPolicy
}

// WithTimeout overrides the configured timeout for one call. Durations
// below a millisecond are kept as fractional milliseconds.
func WithTimeout(d time.Duration) CallOption {
	return func(c *call) {
		if d > 0 {
			c.timeoutMS = float64(d) / float64(time.Millisecond)
		}
	}
}

// WithRetry overrides the retry policy for one call.
func WithRetry(policy RetryPolicy) CallOption {
	return func(c *call) {
		c.retry = policy
	}
}

package ai

import (
	"talentsift/internal/config"
	"talentsift/internal/errors"
	"talentsift/internal/types"

	"github.com/sony/gobreaker/v2"
)

// CompletionBreaker wraps provider completion calls with the circuit breaker
// pattern so a failing provider stops receiving traffic for a cool-down
// period instead of burning through a whole batch. A nil breaker is valid
// and passes every call straight through.
type CompletionBreaker struct {
	cb *gobreaker.CircuitBreaker[types.CompletionResult]
}

// NewCompletionBreaker creates a circuit breaker for a provider. Returns nil
// when the breaker is disabled in configuration.
func NewCompletionBreaker(providerName string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *CompletionBreaker {
	if !cfg.Enabled {
		return nil
	}

	trip := func(counts gobreaker.Counts) bool {
		if counts.Requests < cfg.MinRequests {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
	}
	logTransition := func(name string, from, to gobreaker.State) {
		logger.Info("Circuit breaker state changed",
			"name", name,
			"provider", providerName,
			"from", from.String(),
			"to", to.String(),
			"max_requests", cfg.MaxRequests,
			"failure_threshold", cfg.FailureThreshold)
	}

	return &CompletionBreaker{
		cb: gobreaker.NewCircuitBreaker[types.CompletionResult](gobreaker.Settings{
			Name:          "AI-" + providerName,
			MaxRequests:   cfg.MaxRequests,
			Interval:      cfg.Interval,
			Timeout:       cfg.Timeout,
			ReadyToTrip:   trip,
			OnStateChange: logTransition,
		}),
	}
}

// Execute runs fn under breaker protection, or directly when disabled
func (cb *CompletionBreaker) Execute(fn func() (types.CompletionResult, error)) (types.CompletionResult, error) {
	if cb == nil || cb.cb == nil {
		return fn()
	}
	return cb.cb.Execute(fn)
}

// GetStats reports the breaker state for the health endpoint
func (cb *CompletionBreaker) GetStats() map[string]any {
	if cb == nil || cb.cb == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"name":    cb.cb.Name(),
		"state":   cb.cb.State().String(),
		"counts":  cb.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy reports whether calls are flowing. A disabled breaker never
// blocks calls, so it counts as healthy.
func (cb *CompletionBreaker) IsHealthy() bool {
	return cb == nil || cb.cb == nil || cb.cb.State() == gobreaker.StateClosed
}

package transport

import (
	"context"
	"errors"
	"time"

	"laundrychat/internal/logging"

	"github.com/sony/gobreaker"
)

// BreakerSettings configures fail-fast after consecutive failures.
type BreakerSettings struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

func newBreaker(s BreakerSettings) *gobreaker.CircuitBreaker {
	if s.MaxFailures == 0 {
		s.MaxFailures = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "chat-api",
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		// Caller cancellation says nothing about backend health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.TransportWarn("breaker %s: %s -> %s", name, from, to)
		},
	})
}

func mapBreakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

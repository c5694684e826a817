// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

/*
Package breaker wraps sony/gobreaker for the outbound HTTP clients.

Every breaker exports its state through the circuit_breaker_* metric family
and logs state transitions. Thresholds:
  - Trip when at least 10 requests in the interval failed at a rate of 60% or more
  - Stay open for 2 minutes before probing
  - Allow 3 probe requests while half-open
*/
package breaker

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/marketpanel/internal/logging"
	"github.com/tomtom215/marketpanel/internal/metrics"
)

// ErrOpen is returned when a call is rejected without being attempted.
var ErrOpen = errors.New("circuit breaker is open")

// Settings tunes a Breaker. Zero values fall back to the defaults above.
type Settings struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64

	// IsSuccessful reports whether a non-nil error should still count as a
	// success for tripping purposes (for example a 4xx answer). Context
	// cancellation always counts as success.
	IsSuccessful func(err error) bool
}

// Breaker is a named circuit breaker with metrics.
type Breaker struct {
	name       string
	cb         *gobreaker.CircuitBreaker[any]
	successful func(err error) bool
}

// New creates a breaker. Its state gauge starts at closed.
func New(s Settings) *Breaker {
	if s.MaxRequests == 0 {
		s.MaxRequests = 3
	}
	if s.Interval == 0 {
		s.Interval = time.Minute
	}
	if s.Timeout == 0 {
		s.Timeout = 2 * time.Minute
	}
	if s.MinRequests == 0 {
		s.MinRequests = 10
	}
	if s.FailureRatio == 0 {
		s.FailureRatio = 0.6
	}

	name := s.Name
	isSuccessful := s.IsSuccessful
	successful := func(err error) bool {
		if err == nil || errors.Is(err, context.Canceled) {
			return true
		}
		return isSuccessful != nil && isSuccessful(err)
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= s.FailureRatio
		},
		IsSuccessful: successful,
		OnStateChange: func(cbName string, from, to gobreaker.State) {
			logging.Warn().
				Str("circuit_breaker", cbName).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("Circuit breaker state changed")

			metrics.CircuitBreakerState.WithLabelValues(cbName).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(cbName, stateToString(from), stateToString(to)).Inc()

			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbName).Set(0)
			}
		},
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return &Breaker{
		name:       name,
		cb:         gobreaker.NewCircuitBreaker[any](st),
		successful: successful,
	}
}

// Name returns the breaker name used in metric labels.
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// Counts returns the counters of the current interval.
func (b *Breaker) Counts() gobreaker.Counts {
	return b.cb.Counts()
}

// Execute runs fn through the breaker. A rejected call returns an error
// wrapping both ErrOpen and the gobreaker sentinel.
func Execute[T any](b *Breaker, fn func() (T, error)) (T, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return fn()
	})

	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			return zero, &rejectedError{name: b.name, cause: err}
		}
		if b.successful(err) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(b.cb.Counts().ConsecutiveFailures))
		}
		if v, ok := result.(T); ok {
			return v, err
		}
		return zero, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	v, _ := result.(T)
	return v, nil
}

type rejectedError struct {
	name  string
	cause error
}

func (e *rejectedError) Error() string {
	return e.name + ": " + ErrOpen.Error() + ": " + e.cause.Error()
}

func (e *rejectedError) Unwrap() []error {
	return []error{ErrOpen, e.cause}
}

// stateToFloat maps the state onto the circuit_breaker_state gauge.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

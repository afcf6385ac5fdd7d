// Package decorators wraps a ports.JournalStore with cross-cutting behavior:
// circuit breaking, metrics and tracing. Each decorator implements the same
// interface, so they stack in any order.
package decorators

import (
	"context"
	"errors"
	"time"

	"journals-backend/application/ports"
	"journals-backend/domain/journal"
	apperrors "journals-backend/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// CircuitBreakerConfig holds configuration for the store circuit breaker
type CircuitBreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureThreshold is the failure ratio at which the breaker opens
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultCircuitBreakerConfig returns a default configuration for the store breaker
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// CircuitBreakerStore stops calling the store after repeated unexpected
// failures. Only store errors count: validation and not-found outcomes are
// answers, not faults.
type CircuitBreakerStore struct {
	inner ports.JournalStore
	cb    *gobreaker.CircuitBreaker
}

// NewCircuitBreakerStore wraps inner with a breaker
func NewCircuitBreakerStore(inner ports.JournalStore, config CircuitBreakerConfig, logger *zap.Logger) *CircuitBreakerStore {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !apperrors.IsStore(err)
		},
	})

	return &CircuitBreakerStore{inner: inner, cb: cb}
}

// State returns the breaker state
func (s *CircuitBreakerStore) State() gobreaker.State {
	return s.cb.State()
}

func (s *CircuitBreakerStore) List(ctx context.Context, opts ports.ListOptions) ([]journal.Journal, error) {
	res, err := s.execute(func() (any, error) {
		return s.inner.List(ctx, opts)
	})
	if err != nil {
		return nil, err
	}
	return res.([]journal.Journal), nil
}

func (s *CircuitBreakerStore) Create(ctx context.Context, fields journal.Fields) (journal.Journal, error) {
	res, err := s.execute(func() (any, error) {
		return s.inner.Create(ctx, fields)
	})
	if err != nil {
		return journal.Journal{}, err
	}
	return res.(journal.Journal), nil
}

func (s *CircuitBreakerStore) Update(ctx context.Context, id string, patch journal.Patch) (journal.Journal, error) {
	res, err := s.execute(func() (any, error) {
		return s.inner.Update(ctx, id, patch)
	})
	if err != nil {
		return journal.Journal{}, err
	}
	return res.(journal.Journal), nil
}

func (s *CircuitBreakerStore) Delete(ctx context.Context, id string) error {
	_, err := s.execute(func() (any, error) {
		return nil, s.inner.Delete(ctx, id)
	})
	return err
}

func (s *CircuitBreakerStore) execute(fn func() (any, error)) (any, error) {
	res, err := s.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, apperrors.NewConnection("record store temporarily unavailable", err)
	}
	return res, err
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Hmmmm3247/ContractGuard/config"
	"github.com/Hmmmm3247/ContractGuard/pkg/apperr"
)

// BreakerGenerator wraps a Generator in a circuit breaker. While open every
// call fails fast with ServiceUnavailable.
type BreakerGenerator struct {
	next Generator
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerGenerator(next Generator, cfg *config.BreakerConfig) *BreakerGenerator {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.IntervalSeconds) * time.Second,
		Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
		// A caller giving up is not a service failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &BreakerGenerator{next: next, cb: cb}
}

func (b *BreakerGenerator) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	out, err := b.cb.Execute(func() (any, error) {
		return b.next.Generate(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, apperr.NewUnavailable("AI service temporarily unavailable. Please try again shortly.", err)
		}
		return nil, err
	}
	return out.(*GenerateResult), nil
}

// State reports the breaker state for health checks.
func (b *BreakerGenerator) State() string {
	return b.cb.State().String()
}

package insight

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"docsight-backend/internal/shared/telemetry"
)

// BreakerClient wraps a Client with a circuit breaker so a down provider
// sheds load fast instead of tying up request handlers. It performs no
// retries; a single call either completes or fails with its own error.
type BreakerClient struct {
	inner   Client
	breaker *gobreaker.CircuitBreaker[Result]
}

// WithBreaker wraps inner with a circuit breaker. Only transient provider
// failures count toward tripping; malformed responses do not.
func WithBreaker(inner Client) *BreakerClient {
	settings := gobreaker.Settings{
		Name:    "insight",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrServiceUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			telemetry.Info("insight.breaker_state", map[string]any{
				"name": name,
				"from": from.String(),
				"to":   to.String(),
			})
		},
	}
	return &BreakerClient{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[Result](settings),
	}
}

// Analyze delegates to the wrapped client through the breaker. An open
// circuit reports ErrServiceUnavailable.
func (c *BreakerClient) Analyze(ctx context.Context, input Input) (Result, error) {
	result, err := c.breaker.Execute(func() (Result, error) {
		return c.inner.Analyze(ctx, input)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Result{}, ErrServiceUnavailable
		}
		return Result{}, err
	}
	return result, nil
}

var _ Client = (*BreakerClient)(nil)

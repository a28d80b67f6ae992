package provider

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limiter throttles outbound calls to a single upstream API.
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// NewLimiter allows requestsPerMinute calls with a burst of a tenth of that.
func NewLimiter(name string, requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1), name: name}
	}

	rps := float64(requestsPerMinute) / 60.0
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    name,
	}
}

func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter %s: %w", l.name, err)
	}
	return nil
}

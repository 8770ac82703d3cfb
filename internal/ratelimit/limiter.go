package ratelimit

import "context"

// Limiter paces outbound requests to an external source.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Strategy selects a Limiter implementation.
type Strategy string

const (
	StrategyTokenBucket Strategy = "token_bucket"
	StrategyFixedDelay  Strategy = "fixed_delay"
	StrategyNone        Strategy = "none"
)

// NewLimiter creates a rate limiter based on config.
func NewLimiter(cfg Config) Limiter {
	cfg = applyDefaults(cfg)
	switch cfg.Strategy {
	case StrategyFixedDelay:
		return NewFixedDelayLimiter(cfg)
	case StrategyNone:
		return Unlimited{}
	default:
		return NewTokenBucket(cfg)
	}
}

// Unlimited never blocks.
type Unlimited struct{}

func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }

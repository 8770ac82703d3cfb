package ratelimit

import (
	"fmt"
	"time"
)

// Config holds rate limiter configuration for one source.
type Config struct {
	Strategy       Strategy      `yaml:"strategy" json:"strategy"`
	RequestsPerSec float64       `yaml:"requests_per_second" json:"requests_per_second"`
	Burst          int           `yaml:"burst" json:"burst"`
	FixedDelay     time.Duration `yaml:"fixed_delay" json:"fixed_delay"`
}

// DefaultConfig allows a short burst and then one request per second, which
// is plenty for a refresh that makes one call per source.
func DefaultConfig() Config {
	return Config{
		Strategy:       StrategyTokenBucket,
		RequestsPerSec: 1.0,
		Burst:          2,
		FixedDelay:     1 * time.Second,
	}
}

func applyDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Strategy == "" {
		cfg.Strategy = def.Strategy
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = def.RequestsPerSec
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.FixedDelay <= 0 {
		cfg.FixedDelay = def.FixedDelay
	}
	return cfg
}

// SourceConfigs maps an external source name to its limiter config.
type SourceConfigs struct {
	RateLimits map[string]Config `yaml:"rate_limits" json:"rate_limits"`
}

// Get returns limiter config for a source, or the default with an error
// describing why nothing was found.
func (s SourceConfigs) Get(source string) (Config, error) {
	if s.RateLimits == nil {
		return DefaultConfig(), fmt.Errorf("no rate_limits configured")
	}
	cfg, ok := s.RateLimits[source]
	if !ok {
		return DefaultConfig(), fmt.Errorf("rate_limits for %s not found", source)
	}
	return applyDefaults(cfg), nil
}

// For builds the limiter for a source, falling back to defaults.
func (s SourceConfigs) For(source string) Limiter {
	cfg, _ := s.Get(source)
	return NewLimiter(cfg)
}

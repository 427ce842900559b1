package pipeline

import (
	"math"
	"math/rand/v2"
	"time"
)

const (
	defaultRetryAttempts = 2
	defaultInitialDelay  = time.Second
	defaultMaxDelay      = 30 * time.Second
	defaultMultiplier    = 2.0
	defaultJitter        = 0.1
)

// RetryConfig bounds the automatic retry of idempotent requests.
// Attempts counts retries beyond the initial send; production deployments
// run with fewer attempts than development.
type RetryConfig struct {
	Attempts     int           `mapstructure:"attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
	Multiplier   float64       `mapstructure:"multiplier"`
	Jitter       float64       `mapstructure:"jitter"`
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.Attempts < 0 {
		c.Attempts = defaultRetryAttempts
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = defaultInitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = defaultMaxDelay
	}
	if c.Multiplier <= 0 {
		c.Multiplier = defaultMultiplier
	}
	if c.Jitter < 0 || c.Jitter > 1 {
		c.Jitter = defaultJitter
	}
	return c
}

// delay returns the exponential backoff interval for the given retry,
// with jitter to avoid thundering herds.
func (c RetryConfig) delay(retry int) time.Duration {
	interval := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(retry))
	if c.Jitter > 0 {
		jitter := interval * c.Jitter
		interval += (rand.Float64()*2 - 1) * jitter
	}
	if interval > float64(c.MaxDelay) {
		interval = float64(c.MaxDelay)
	}
	if interval < 0 {
		interval = float64(c.InitialDelay)
	}
	return time.Duration(interval)
}

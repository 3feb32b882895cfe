package config

import (
	"time"

	"git.home.luguber.info/inful/sitebaker/internal/retry"
)

const (
	defaultCleanAttempts = 10
	defaultCleanDelay    = time.Second
)

// RetryConfig bounds the output-directory clean.
type RetryConfig struct {
	Attempts int           `yaml:"attempts"`
	Delay    time.Duration `yaml:"delay"`
	Backoff  string        `yaml:"backoff,omitempty"` // fixed (default), linear or exponential
	MaxDelay time.Duration `yaml:"max_delay,omitempty"`
}

// Policy converts the configuration into a retry policy.
func (r RetryConfig) Policy() retry.Policy {
	mode := retry.NormalizeMode(r.Backoff)
	if mode == "" {
		mode = retry.ModeFixed
	}
	maxDelay := r.MaxDelay
	if maxDelay <= 0 && mode == retry.ModeFixed {
		maxDelay = r.Delay
	}
	return retry.NewPolicy(mode, r.Delay, maxDelay, r.Attempts-1)
}

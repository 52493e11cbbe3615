package calcjob

import (
	"math"
	"math/rand"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
	DefaultMaxDelay    = 30 * time.Second
)

// RetryPolicy bounds how often a transiently failed job is rescheduled.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

func (p RetryPolicy) Normalize() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = DefaultMaxDelay
	}

	return p
}

// Backoff returns the wait before the given retry attempt: exponential growth
// capped at MaxDelay, halved and jittered so synchronized retries spread out.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	policy := p.Normalize()
	if attempt <= 0 {
		return policy.BaseDelay
	}

	exp := float64(policy.BaseDelay) * math.Pow(2, float64(attempt-1))
	wait := time.Duration(exp)
	if wait > policy.MaxDelay {
		wait = policy.MaxDelay
	}

	half := wait / 2
	if half <= 0 {
		return wait
	}

	return half + time.Duration(rand.Int63n(int64(half)))
}

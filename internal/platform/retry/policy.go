// Package retry runs fallible operations under a bounded exponential backoff
// policy with additive jitter.
//
// The engine decides whether a failure is worth another attempt, waits
// between attempts, and reports each state transition to an Observer.
// Client errors (any failure carrying a 4xx status) and failures that declare
// themselves non-retryable abort immediately; everything else is retried
// until the attempt budget is spent.
//
// Each call to Do owns its attempt state. An Engine holds no mutable state
// of its own and is safe for concurrent use as long as its Sleeper,
// JitterSource and Observer are.
package retry

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Default policy values.
const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = time.Second
	DefaultMultiplier   = 2.0
	DefaultJitterMax    = 500 * time.Millisecond
)

// Policy configures backoff. A Policy is a value; copies never affect each other.
type Policy struct {
	// MaxAttempts is the total number of invocations, including the first.
	MaxAttempts int

	// InitialDelay is the base wait before the first retry.
	InitialDelay time.Duration

	// Multiplier grows the base wait on each subsequent retry.
	Multiplier float64

	// JitterMax bounds the uniform random delay added to every wait.
	JitterMax time.Duration
}

// DefaultPolicy returns three attempts starting at one second, doubling,
// with up to half a second of jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		Multiplier:   DefaultMultiplier,
		JitterMax:    DefaultJitterMax,
	}
}

// Validate checks the policy invariants.
func (p Policy) Validate() error {
	var errs []error

	if p.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts))
	}

	if p.InitialDelay <= 0 {
		errs = append(errs, fmt.Errorf("initial delay must be positive, got %s", p.InitialDelay))
	}

	if p.Multiplier < 1 || math.IsNaN(p.Multiplier) || math.IsInf(p.Multiplier, 0) {
		errs = append(errs, fmt.Errorf("multiplier must be a finite value >= 1, got %v", p.Multiplier))
	}

	if p.JitterMax < 0 {
		errs = append(errs, fmt.Errorf("jitter max must not be negative, got %s", p.JitterMax))
	}

	return errors.Join(errs...)
}

// BaseDelay returns the wait before retry n (0-based) without jitter:
// InitialDelay * Multiplier^n. The result saturates at the largest Duration.
func (p Policy) BaseDelay(n int) time.Duration {
	d := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(n))
	if d >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}

	return time.Duration(d)
}

// Delay returns the wait before retry n (0-based), drawing jitter from src.
// The result lies in [BaseDelay(n), BaseDelay(n)+JitterMax).
func (p Policy) Delay(n int, src JitterSource) time.Duration {
	base := p.BaseDelay(n)
	if p.JitterMax <= 0 || src == nil {
		return base
	}

	jitter := time.Duration(src.Float64() * float64(p.JitterMax))
	if base > time.Duration(math.MaxInt64)-jitter {
		return time.Duration(math.MaxInt64)
	}

	return base + jitter
}

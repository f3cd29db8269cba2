package retry

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Sleeper waits between attempts. Sleep returns early with ctx.Err() if the
// context ends before the duration elapses.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to the Sleeper interface.
type SleeperFunc func(ctx context.Context, d time.Duration) error

// Sleep calls f(ctx, d).
func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// JitterSource yields uniform values in [0, 1). *rand.Rand satisfies it,
// but is not safe for concurrent use; see NewSeededJitter.
type JitterSource interface {
	Float64() float64
}

type globalJitter struct{}

func (globalJitter) Float64() float64 {
	return rand.Float64() //nolint:gosec // jitter does not need crypto-grade randomness
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.r.Float64()
}

// NewSeededJitter returns a deterministic, goroutine-safe jitter source.
// Two sources built from the same seed yield the same sequence.
func NewSeededJitter(seed uint64) JitterSource {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed))} //nolint:gosec // deterministic by intent
}

package ports

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultCheckTimeout bounds a single readiness check when the caller's
// context has no earlier deadline.
const DefaultCheckTimeout = 2 * time.Second

// ErrDuplicateChecker is returned by Register for a name already in use.
var ErrDuplicateChecker = errors.New("duplicate health checker")

// HealthChecker is implemented by adapters whose availability gates readiness.
type HealthChecker interface {
	Name() string

	// Check returns nil when the component can serve traffic. It must
	// return promptly once ctx is done.
	Check(ctx context.Context) error
}

// HealthDetailer is optionally implemented by a HealthChecker to attach
// diagnostic fields, such as circuit breaker state, to its result.
type HealthDetailer interface {
	HealthDetails() map[string]string
}

// HealthRegistry is what the readiness endpoint depends on.
type HealthRegistry interface {
	Register(checker HealthChecker) error
	CheckAll(ctx context.Context) *HealthResult
}

// HealthStatus is "healthy" or "unhealthy".
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResult aggregates one readiness evaluation.
type HealthResult struct {
	Status    HealthStatus            `json:"status"`
	Checks    map[string]*CheckResult `json:"checks"`
	Timestamp time.Time               `json:"timestamp"`
}

// CheckResult is the outcome of one checker.
type CheckResult struct {
	Status    HealthStatus      `json:"status"`
	Message   string            `json:"message,omitempty"`
	LatencyMS int64             `json:"latencyMs"`
	Details   map[string]string `json:"details,omitempty"`
}

// CheckerRegistry runs every registered checker concurrently, each under
// its own timeout. It is safe for concurrent use.
type CheckerRegistry struct {
	mu       sync.RWMutex
	checkers []HealthChecker
	timeout  time.Duration
}

var _ HealthRegistry = (*CheckerRegistry)(nil)

// NewHealthRegistry creates an empty registry using DefaultCheckTimeout.
func NewHealthRegistry() *CheckerRegistry {
	return &CheckerRegistry{timeout: DefaultCheckTimeout}
}

// WithTimeout changes the per-check timeout. Zero or negative leaves only
// the caller's deadline in force.
func (r *CheckerRegistry) WithTimeout(d time.Duration) *CheckerRegistry {
	r.mu.Lock()
	r.timeout = d
	r.mu.Unlock()

	return r
}

// Register adds checker. Names must be unique.
func (r *CheckerRegistry) Register(checker HealthChecker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.checkers {
		if existing.Name() == checker.Name() {
			return fmt.Errorf("%w: %s", ErrDuplicateChecker, checker.Name())
		}
	}

	r.checkers = append(r.checkers, checker)

	return nil
}

// Len reports how many checkers are registered.
func (r *CheckerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.checkers)
}

// CheckAll runs every checker. One unhealthy checker makes the whole
// result unhealthy; an empty registry is healthy.
func (r *CheckerRegistry) CheckAll(ctx context.Context) *HealthResult {
	r.mu.RLock()
	checkers := append([]HealthChecker(nil), r.checkers...)
	timeout := r.timeout
	r.mu.RUnlock()

	results := make([]*CheckResult, len(checkers))

	var wg sync.WaitGroup
	for i, checker := range checkers {
		wg.Go(func() {
			results[i] = runCheck(ctx, checker, timeout)
		})
	}
	wg.Wait()

	out := &HealthResult{
		Status:    HealthStatusHealthy,
		Checks:    make(map[string]*CheckResult, len(checkers)),
		Timestamp: time.Now().UTC(),
	}

	for i, checker := range checkers {
		out.Checks[checker.Name()] = results[i]
		if results[i].Status == HealthStatusUnhealthy {
			out.Status = HealthStatusUnhealthy
		}
	}

	return out
}

func runCheck(ctx context.Context, checker HealthChecker, timeout time.Duration) *CheckResult {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	err := checker.Check(ctx)

	res := &CheckResult{
		Status:    HealthStatusHealthy,
		LatencyMS: time.Since(start).Milliseconds(),
	}

	if err != nil {
		res.Status = HealthStatusUnhealthy
		res.Message = err.Error()
	}

	if d, ok := checker.(HealthDetailer); ok {
		res.Details = d.HealthDetails()
	}

	return res
}

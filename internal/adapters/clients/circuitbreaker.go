package clients

import (
	"sync"
	"time"

	"github.com/jsamuelsen/ecomarket-gateway/internal/platform/config"
)

// State is the position of the circuit breaker.
type State int

const (
	// StateClosed lets every request through.
	StateClosed State = iota

	// StateOpen blocks requests until the cool-down elapses.
	StateOpen

	// StateHalfOpen lets a limited number of trial requests through.
	StateHalfOpen
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Outcome is what an attempt reports back to the breaker.
type Outcome int

const (
	// OutcomeSuccess means the upstream answered; 4xx answers count as success.
	OutcomeSuccess Outcome = iota
	// OutcomeFailure means a 5xx answer or no answer at all.
	OutcomeFailure
	// OutcomeIgnored means the caller gave up; it says nothing about upstream health.
	OutcomeIgnored
)

// Counts is a snapshot of breaker counters, reported by the readiness check.
type Counts struct {
	State               State
	ConsecutiveFailures int
	HalfOpenSuccesses   int
	HalfOpenInFlight    int
}

// CircuitBreaker stops calling an upstream that keeps failing.
//
// State transitions:
//   - Closed → Open: after MaxFailures consecutive failures
//   - Open → HalfOpen: once Timeout has passed since the last failure
//   - HalfOpen → Closed: after HalfOpenLimit successful trial requests
//   - HalfOpen → Open: on any failed trial request
type CircuitBreaker struct {
	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	inFlight    int
	lastFailure time.Time
	cfg         config.CircuitBreakerConfig

	onStateChange func(from, to State)

	// now is overridable for testing.
	now func() time.Time
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(cfg config.CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures < 1 {
		cfg.MaxFailures = 1
	}

	if cfg.HalfOpenLimit < 1 {
		cfg.HalfOpenLimit = 1
	}

	return &CircuitBreaker{
		state: StateClosed,
		cfg:   cfg,
		now:   time.Now,
	}
}

// OnStateChange registers a callback run after every transition, outside the lock.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.onStateChange = fn
}

// Allow reports whether a request may proceed. Every allowed request must be
// followed by exactly one Record call.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	from, notify := cb.state, cb.onStateChange

	allowed := false
	switch cb.state {
	case StateClosed:
		allowed = true
	case StateOpen:
		if cb.now().Sub(cb.lastFailure) >= cb.cfg.Timeout {
			cb.setState(StateHalfOpen)
			cb.inFlight = 1
			allowed = true
		}
	case StateHalfOpen:
		if cb.inFlight < cb.cfg.HalfOpenLimit {
			cb.inFlight++
			allowed = true
		}
	}

	to := cb.state
	cb.mu.Unlock()

	cb.notify(notify, from, to)

	return allowed
}

// Record reports the outcome of an allowed request.
func (cb *CircuitBreaker) Record(outcome Outcome) {
	cb.mu.Lock()
	from, notify := cb.state, cb.onStateChange

	if cb.state == StateHalfOpen && cb.inFlight > 0 {
		cb.inFlight--
	}

	switch outcome {
	case OutcomeSuccess:
		switch cb.state {
		case StateClosed:
			cb.failures = 0
		case StateHalfOpen:
			cb.successes++
			if cb.successes >= cb.cfg.HalfOpenLimit {
				cb.setState(StateClosed)
			}
		}
	case OutcomeFailure:
		cb.lastFailure = cb.now()
		switch cb.state {
		case StateClosed:
			cb.failures++
			if cb.failures >= cb.cfg.MaxFailures {
				cb.setState(StateOpen)
			}
		case StateHalfOpen:
			cb.setState(StateOpen)
		}
	}

	to := cb.state
	cb.mu.Unlock()

	cb.notify(notify, from, to)
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// Counts returns a snapshot of the breaker counters.
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return Counts{
		State:               cb.state,
		ConsecutiveFailures: cb.failures,
		HalfOpenSuccesses:   cb.successes,
		HalfOpenInFlight:    cb.inFlight,
	}
}

// setState must be called with the lock held.
func (cb *CircuitBreaker) setState(s State) {
	if cb.state == s {
		return
	}

	cb.state = s
	cb.failures = 0
	cb.successes = 0
	if s != StateHalfOpen {
		cb.inFlight = 0
	}
}

func (cb *CircuitBreaker) notify(fn func(from, to State), from, to State) {
	if fn != nil && from != to {
		fn(from, to)
	}
}

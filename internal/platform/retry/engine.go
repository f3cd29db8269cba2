package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Operation is one attempt of a fallible call.
type Operation[T any] func(ctx context.Context) (T, error)

// StatusCoder is implemented by failures that carry an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// Retryabler is implemented by failures that know whether another attempt
// could succeed.
type Retryabler interface {
	Retryable() bool
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not retryable. Do returns the wrapped error
// itself, not the marker.
func Permanent(err error) error {
	if err == nil {
		return nil
	}

	return &permanentError{err: err}
}

// IsRetryable is the default retry predicate.
//
// Not retried: failures with a status in [400, 500), failures whose
// Retryable method reports false, errors marked Permanent, and context
// cancellation. Everything else is retried, including errors the engine
// knows nothing about.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		status := sc.StatusCode()
		if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
			return false
		}
	}

	var r Retryabler
	if errors.As(err, &r) && !r.Retryable() {
		return false
	}

	return !errors.Is(err, context.Canceled)
}

// Option configures an Engine.
type Option func(*Engine)

// WithSleeper replaces the timer-based wait.
func WithSleeper(s Sleeper) Option {
	return func(e *Engine) {
		if s != nil {
			e.sleeper = s
		}
	}
}

// WithJitter replaces the process-wide random source.
func WithJitter(src JitterSource) Option {
	return func(e *Engine) {
		if src != nil {
			e.jitter = src
		}
	}
}

// WithObserver sets the lifecycle observer. Use Observers to attach several.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithRetryable replaces IsRetryable as the retry predicate.
func WithRetryable(fn func(error) bool) Option {
	return func(e *Engine) {
		if fn != nil {
			e.retryable = fn
		}
	}
}

// Engine applies a Policy to operations. The zero value is not usable; call New.
type Engine struct {
	policy    Policy
	sleeper   Sleeper
	jitter    JitterSource
	observer  Observer
	retryable func(error) bool
	now       func() time.Time
}

// New creates an engine after validating the policy.
func New(policy Policy, opts ...Option) (*Engine, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry policy: %w", err)
	}

	e := &Engine{
		policy:    policy,
		sleeper:   timerSleeper{},
		jitter:    globalJitter{},
		observer:  noopObserver{},
		retryable: IsRetryable,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Policy returns the engine's policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Run is Do for operations without a result.
func (e *Engine) Run(ctx context.Context, op func(ctx context.Context) error) error {
	_, err := Do(ctx, e, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})

	return err
}

// Do invokes op until it succeeds, fails with a non-retryable error, or the
// policy's attempt budget is spent.
//
// On abort or exhaustion the failure of the last attempt is returned as is,
// so callers can inspect it with errors.As. If ctx ends during a wait, the
// returned error wraps both ctx.Err() and the last failure.
func Do[T any](ctx context.Context, e *Engine, op Operation[T]) (T, error) {
	var zero T

	name := OperationFromContext(ctx)
	start := e.now()
	emit := func(ev Event) {
		ev.Operation = name
		ev.Elapsed = e.now().Sub(start)
		e.observer.Observe(ctx, ev)
	}

	for attempt := 0; ; attempt++ {
		emit(Event{State: StateAttempting, Attempt: attempt + 1})

		v, err := op(ctx)
		if err == nil {
			emit(Event{State: StateSucceeded, Attempt: attempt + 1})
			return v, nil
		}

		if !e.retryable(err) {
			err = unwrapPermanent(err)
			emit(Event{State: StateAborted, Attempt: attempt + 1, Err: err})
			return zero, err
		}

		if attempt+1 >= e.policy.MaxAttempts {
			emit(Event{State: StateExhausted, Attempt: attempt + 1, Err: err})
			return zero, err
		}

		delay := e.policy.Delay(attempt, e.jitter)
		emit(Event{State: StateRetrying, Attempt: attempt + 1, Err: err, Delay: delay})

		if sleepErr := e.sleeper.Sleep(ctx, delay); sleepErr != nil {
			emit(Event{State: StateAborted, Attempt: attempt + 1, Err: err})
			return zero, fmt.Errorf("%w: %w", sleepErr, err)
		}
	}
}

func unwrapPermanent(err error) error {
	if p, ok := err.(*permanentError); ok { //nolint:errorlint // only the outermost marker is stripped
		return p.err
	}

	return err
}

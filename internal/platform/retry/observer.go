package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/jsamuelsen/ecomarket-gateway/internal/platform/logging"
)

// State is a step of the attempt lifecycle.
type State int

// Attempt lifecycle states.
const (
	// StateAttempting means the operation is being invoked.
	StateAttempting State = iota
	// StateRetrying means the last attempt failed and a wait is scheduled.
	StateRetrying
	// StateSucceeded is terminal: the operation returned a result.
	StateSucceeded
	// StateExhausted is terminal: every attempt failed with a retryable error.
	StateExhausted
	// StateAborted is terminal: a failure was not retryable or the context ended.
	StateAborted
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateRetrying:
		return "retrying"
	case StateSucceeded:
		return "succeeded"
	case StateExhausted:
		return "exhausted"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further attempt follows s.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateExhausted || s == StateAborted
}

// Event describes one state transition of a Do call.
type Event struct {
	// Operation is the name set with WithOperation, or empty.
	Operation string
	State     State
	// Attempt is the 1-based invocation number the event refers to.
	Attempt int
	// Err is the failure of the attempt, nil for Attempting and Succeeded.
	Err error
	// Delay is the scheduled wait; set only for Retrying.
	Delay time.Duration
	// Elapsed is the time since the first attempt started.
	Elapsed time.Duration
}

// Observer receives lifecycle events. Observe is called synchronously from
// the goroutine running Do and must not block.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, ev Event)

// Observe calls f(ctx, ev).
func (f ObserverFunc) Observe(ctx context.Context, ev Event) {
	f(ctx, ev)
}

type multiObserver []Observer

func (m multiObserver) Observe(ctx context.Context, ev Event) {
	for _, o := range m {
		o.Observe(ctx, ev)
	}
}

// Observers fans events out to every non-nil observer in order.
func Observers(observers ...Observer) Observer {
	var m multiObserver
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}

	return m
}

type noopObserver struct{}

func (noopObserver) Observe(context.Context, Event) {}

// LogObserver writes retry events to a structured logger. If logger is nil
// the logger carried by the context is used, so request and trace IDs are kept.
func LogObserver(logger *slog.Logger) Observer {
	return ObserverFunc(func(ctx context.Context, ev Event) {
		l := logger
		if l == nil {
			l = logging.FromContext(ctx)
		}

		attrs := []any{
			slog.String("operation", ev.Operation),
			slog.Int("attempt", ev.Attempt),
			slog.Duration("elapsed", ev.Elapsed),
		}
		if ev.Err != nil {
			attrs = append(attrs, slog.Any("error", ev.Err))
		}

		switch ev.State {
		case StateAttempting:
			l.Log(ctx, logging.LevelTrace, "attempt started", attrs...)
		case StateRetrying:
			l.Warn("attempt failed, retrying", append(attrs, slog.Duration("backoff", ev.Delay))...)
		case StateSucceeded:
			if ev.Attempt > 1 {
				l.Info("operation succeeded after retry", attrs...)
			}
		case StateAborted:
			l.Debug("operation aborted, error not retryable", attrs...)
		case StateExhausted:
			l.Error("retries exhausted", attrs...)
		}
	})
}

type operationKey struct{}

// WithOperation names the operation for events emitted by Do under ctx.
func WithOperation(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, operationKey{}, name)
}

// OperationFromContext returns the name set with WithOperation.
func OperationFromContext(ctx context.Context) string {
	name, _ := ctx.Value(operationKey{}).(string)
	return name
}

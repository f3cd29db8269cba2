package retry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/ecomarket-gateway/internal/platform/logging"
)

type eventLog struct {
	events []Event
}

func (l *eventLog) Observe(_ context.Context, ev Event) {
	l.events = append(l.events, ev)
}

func (l *eventLog) states() []State {
	out := make([]State, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.State
	}

	return out
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "attempting", StateAttempting.String())
	assert.Equal(t, "retrying", StateRetrying.String())
	assert.Equal(t, "succeeded", StateSucceeded.String())
	assert.Equal(t, "exhausted", StateExhausted.String())
	assert.Equal(t, "aborted", StateAborted.String())
	assert.Equal(t, "unknown", State(99).String())

	assert.True(t, StateAborted.Terminal())
	assert.False(t, StateRetrying.Terminal())
}

func TestDo_EmitsLifecycle(t *testing.T) {
	tests := []struct {
		name     string
		max      int
		failures []error
		want     []State
	}{
		{
			name:     "recovered",
			max:      3,
			failures: []error{&statusError{500}},
			want:     []State{StateAttempting, StateRetrying, StateAttempting, StateSucceeded},
		},
		{
			name:     "aborted",
			max:      5,
			failures: []error{&statusError{401}},
			want:     []State{StateAttempting, StateAborted},
		},
		{
			name:     "exhausted",
			max:      2,
			failures: []error{&statusError{503}, &statusError{503}},
			want:     []State{StateAttempting, StateRetrying, StateAttempting, StateExhausted},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &eventLog{}
			e, _ := newTestEngine(t, tt.max, WithObserver(log))
			var calls atomic.Int32

			ctx := WithOperation(context.Background(), "products.list")
			_, _ = Do(ctx, e, sequence(&calls, tt.failures...))

			assert.Equal(t, tt.want, log.states())
			for _, ev := range log.events {
				assert.Equal(t, "products.list", ev.Operation)
			}
		})
	}
}

func TestDo_RetryEventCarriesDelayAndError(t *testing.T) {
	log := &eventLog{}
	e, _ := newTestEngine(t, 2, WithObserver(log))
	failure := &statusError{502}
	var calls atomic.Int32

	_, _ = Do(context.Background(), e, sequence(&calls, failure))

	require.Len(t, log.events, 4)
	retry := log.events[1]
	assert.Equal(t, StateRetrying, retry.State)
	assert.Equal(t, 1, retry.Attempt)
	assert.Same(t, failure, retry.Err)
	assert.Equal(t, e.Policy().InitialDelay, retry.Delay)
	assert.Equal(t, 2, log.events[3].Attempt)
}

func TestObservers_FanOutSkipsNil(t *testing.T) {
	a, b := &eventLog{}, &eventLog{}
	o := Observers(a, nil, b)

	o.Observe(context.Background(), Event{State: StateSucceeded})

	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

func TestOperationFromContext_Empty(t *testing.T) {
	assert.Empty(t, OperationFromContext(context.Background()))
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	o := LogObserver(logger)
	ctx := context.Background()

	o.Observe(ctx, Event{State: StateRetrying, Operation: "orders.create", Attempt: 1, Err: errors.New("502")})
	assert.Contains(t, buf.String(), "attempt failed, retrying")
	assert.Contains(t, buf.String(), `"operation":"orders.create"`)
	assert.Contains(t, buf.String(), `"level":"WARN"`)

	buf.Reset()
	o.Observe(ctx, Event{State: StateSucceeded, Attempt: 1})
	assert.Empty(t, buf.String(), "first-try success is not logged")

	o.Observe(ctx, Event{State: StateSucceeded, Attempt: 3})
	assert.Contains(t, buf.String(), "operation succeeded after retry")

	buf.Reset()
	o.Observe(ctx, Event{State: StateExhausted, Attempt: 3, Err: errors.New("503")})
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}

func TestLogObserver_UsesContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.WithContext(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx = logging.WithRequestID(ctx, "req-42")

	LogObserver(nil).Observe(ctx, Event{State: StateExhausted, Attempt: 2})

	assert.Contains(t, buf.String(), "req-42")
}

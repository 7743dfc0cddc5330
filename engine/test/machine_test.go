package engine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chirpmesh/chirp-go/engine"
)

// The test machine is a two-state toggle: idle <-> busy. Entering busy
// starts a "work" effect which completes with a done event, sending the
// machine back to idle.

type testEvent struct {
	name string
}

type testInvocation struct {
	id      string
	managed bool
	cancels string
}

func (i testInvocation) ID() string           { return i.id }
func (i testInvocation) Managed() bool        { return i.managed }
func (i testInvocation) Cancelling() bool     { return i.cancels != "" }
func (i testInvocation) CancelTarget() string { return i.cancels }

type testState interface {
	Enter() []testInvocation
	Exit() []testInvocation
	Transition(ev testEvent) (engine.Transition[testState, testInvocation], bool)
}

type idleState struct{}

func (idleState) Enter() []testInvocation { return nil }
func (idleState) Exit() []testInvocation  { return nil }
func (s idleState) Transition(ev testEvent) (engine.Transition[testState, testInvocation], bool) {
	if ev.name != "start" {
		return engine.Transition[testState, testInvocation]{}, false
	}
	return engine.MakeTransition[testState, testEvent, testInvocation](s, busyState{}), true
}

type busyState struct{}

func (busyState) Enter() []testInvocation {
	return []testInvocation{{id: "WORK", managed: true}}
}
func (busyState) Exit() []testInvocation {
	return []testInvocation{{id: "CANCEL_WORK", cancels: "WORK"}}
}
func (s busyState) Transition(ev testEvent) (engine.Transition[testState, testInvocation], bool) {
	switch ev.name {
	case "done", "stop":
		return engine.MakeTransition[testState, testEvent, testInvocation](s, idleState{}), true
	default:
		return engine.Transition[testState, testInvocation]{}, false
	}
}

// testHandler runs the WORK effect: it blocks on a gate channel, then
// yields a done event; cancellation yields nothing.
type testHandler struct {
	mu        sync.Mutex
	gate      chan struct{}
	started   int
	cancelled int
}

func (h *testHandler) Create(inv testInvocation) (engine.Effect[testEvent], bool) {
	if inv.id != "WORK" {
		return nil, false
	}
	return &workEffect{handler: h}, true
}

type workEffect struct {
	handler *testHandler
}

func (e *workEffect) ID() string { return "WORK" }

func (e *workEffect) Run(ctx context.Context) []testEvent {
	e.handler.mu.Lock()
	e.handler.started++
	gate := e.handler.gate
	e.handler.mu.Unlock()

	select {
	case <-gate:
		return []testEvent{{name: "done"}}
	case <-ctx.Done():
		e.handler.mu.Lock()
		e.handler.cancelled++
		e.handler.mu.Unlock()
		return nil
	}
}

func newTestMachine(handler *testHandler) *engine.Machine[testState, testEvent, testInvocation] {
	return engine.NewMachine[testState, testEvent, testInvocation](idleState{}, handler, zerolog.Nop())
}

func TestUnhandledEventsAreNoOps(t *testing.T) {
	handler := &testHandler{gate: make(chan struct{})}
	machine := newTestMachine(handler)
	defer machine.Stop()

	machine.Post(testEvent{name: "done"})
	machine.Post(testEvent{name: "bogus"})

	// Still idle, and no effect was started by the ignored events.
	require.Never(t, func() bool {
		_, busy := machine.CurrentState().(busyState)
		return busy
	}, 100*time.Millisecond, 10*time.Millisecond)

	handler.mu.Lock()
	defer handler.mu.Unlock()
	assert.Equal(t, 0, handler.started)
}

func TestEffectCompletionDrivesTransition(t *testing.T) {
	handler := &testHandler{gate: make(chan struct{})}
	machine := newTestMachine(handler)
	defer machine.Stop()

	machine.Post(testEvent{name: "start"})
	require.Eventually(t, func() bool {
		_, busy := machine.CurrentState().(busyState)
		return busy
	}, 2*time.Second, 5*time.Millisecond)

	// Releasing the effect produces the done event which toggles the
	// machine back.
	close(handler.gate)
	require.Eventually(t, func() bool {
		_, idle := machine.CurrentState().(idleState)
		return idle
	}, 2*time.Second, 5*time.Millisecond)
}

func TestExitCancelsInFlightEffect(t *testing.T) {
	handler := &testHandler{gate: make(chan struct{})}
	machine := newTestMachine(handler)
	defer machine.Stop()

	machine.Post(testEvent{name: "start"})
	require.Eventually(t, func() bool {
		handler.mu.Lock()
		defer handler.mu.Unlock()
		return handler.started == 1
	}, 2*time.Second, 5*time.Millisecond)

	// Leaving busy cancels WORK; the cancelled effect must not produce
	// a done event and the machine stays idle.
	machine.Post(testEvent{name: "stop"})
	require.Eventually(t, func() bool {
		handler.mu.Lock()
		defer handler.mu.Unlock()
		return handler.cancelled == 1
	}, 2*time.Second, 5*time.Millisecond)

	_, idle := machine.CurrentState().(idleState)
	assert.True(t, idle)
}

func TestStopJoinsEffects(t *testing.T) {
	handler := &testHandler{gate: make(chan struct{})}
	machine := newTestMachine(handler)

	machine.Post(testEvent{name: "start"})
	require.Eventually(t, func() bool {
		handler.mu.Lock()
		defer handler.mu.Unlock()
		return handler.started == 1
	}, 2*time.Second, 5*time.Millisecond)

	// Stop cancels the in-flight effect and returns only once its
	// goroutine finished.
	machine.Stop()

	handler.mu.Lock()
	defer handler.mu.Unlock()
	assert.Equal(t, 1, handler.cancelled)
}

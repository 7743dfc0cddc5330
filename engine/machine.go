package engine

import (
	"sync"

	"github.com/rs/zerolog"
)

// Machine drives one engine: a current state, an unbounded event queue and
// an effect dispatcher. A single consumer goroutine applies transitions in
// queue order, so state updates never race with themselves; effects run
// concurrently and post their events back through the queue.
type Machine[S State[S, E, I], E any, I Invocation] struct {
	dispatcher *Dispatcher[E, I]
	queue      *eventQueue[E]
	log        zerolog.Logger

	mu      sync.Mutex
	current S

	stopOnce sync.Once
	done     chan struct{}
}

// NewMachine creates a machine in the initial state and starts its
// consumer goroutine. The handler builds runnable effects for the
// invocations produced by transitions.
func NewMachine[S State[S, E, I], E any, I Invocation](initial S, handler EffectHandler[E, I], log zerolog.Logger) *Machine[S, E, I] {
	m := &Machine[S, E, I]{
		queue:   newEventQueue[E](),
		log:     log,
		current: initial,
		done:    make(chan struct{}),
	}
	m.dispatcher = NewDispatcher[E, I](handler, m.PostAll, log)

	go m.consume()
	return m
}

// Post enqueues an event for processing.
func (m *Machine[S, E, I]) Post(event E) {
	m.queue.push(event)
}

// PostAll enqueues events in order.
func (m *Machine[S, E, I]) PostAll(events []E) {
	for _, event := range events {
		m.queue.push(event)
	}
}

// CurrentState returns a snapshot of the machine's state. The snapshot is
// consistent: a transition is fully applied before the next event is
// processed.
func (m *Machine[S, E, I]) CurrentState() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Stop shuts the machine down: the queue stops accepting events, pending
// events are drained, in-flight effects are cancelled and their
// goroutines joined.
func (m *Machine[S, E, I]) Stop() {
	m.stopOnce.Do(func() {
		m.queue.close()
		<-m.done
		m.dispatcher.Close()
	})
}

func (m *Machine[S, E, I]) consume() {
	defer close(m.done)
	for {
		event, ok := m.queue.pop()
		if !ok {
			return
		}
		m.process(event)
	}
}

// process applies a single event: unhandled events leave the state and
// any running effects untouched.
func (m *Machine[S, E, I]) process(event E) {
	m.mu.Lock()
	transition, ok := m.current.Transition(event)
	if !ok {
		m.mu.Unlock()
		m.log.Debug().Type("event", event).Msg("event ignored by current state")
		return
	}
	m.current = transition.State
	m.mu.Unlock()

	m.dispatcher.Dispatch(transition.Invocations)
}

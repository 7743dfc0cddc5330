package subscribe

import (
	"github.com/rs/zerolog"

	"github.com/chirpmesh/chirp-go/engine"
	"github.com/chirpmesh/chirp-go/retry"
	"github.com/chirpmesh/chirp-go/types"
)

// Engine is the running subscribe state machine.
type Engine struct {
	machine *engine.Machine[State, Event, Invocation]
}

// EngineConfig wires the subscribe engine's collaborators.
type EngineConfig struct {
	// Handshake performs the initial subscribe call, Receive the long
	// poll. Both usually come from NewExecutor.
	Handshake ExecuteFunc
	Receive   ExecuteFunc
	// EmitStatus and EmitMessages fan results out to listeners,
	// usually Manager.NotifyStatus and Manager.NotifyMessages.
	EmitStatus   EmitStatusFunc
	EmitMessages EmitMessagesFunc
	// RetryPolicy gates reconnection attempts.
	RetryPolicy retry.Policy
	// Log receives debug-level engine activity.
	Log zerolog.Logger
}

// NewEngine starts a subscribe engine in the Unsubscribed state.
func NewEngine(cfg EngineConfig) *Engine {
	handler := NewEffectHandler(
		cfg.Handshake,
		cfg.Receive,
		cfg.EmitStatus,
		cfg.EmitMessages,
		cfg.RetryPolicy,
		cfg.Log,
	)
	return &Engine{
		machine: engine.NewMachine[State, Event, Invocation](Unsubscribed{}, handler, cfg.Log),
	}
}

// Post enqueues an event for the state machine.
func (e *Engine) Post(event Event) {
	e.machine.Post(event)
}

// CurrentState returns a consistent snapshot of the machine's state.
func (e *Engine) CurrentState() State {
	return e.machine.CurrentState()
}

// CurrentInput returns the channels and groups of the current state, or
// an empty input when unsubscribed.
func (e *Engine) CurrentInput() types.SubscriptionInput {
	switch s := e.CurrentState().(type) {
	case Handshaking:
		return s.Input
	case HandshakeReconnecting:
		return s.Input
	case HandshakeStopped:
		return s.Input
	case HandshakeFailed:
		return s.Input
	case Receiving:
		return s.Input
	case ReceiveReconnecting:
		return s.Input
	case ReceiveStopped:
		return s.Input
	case ReceiveFailed:
		return s.Input
	default:
		return types.SubscriptionInput{}
	}
}

// Stop drains pending events, cancels in-flight effects and joins their
// goroutines.
func (e *Engine) Stop() {
	e.machine.Stop()
}

package presence

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/chirpmesh/chirp-go/engine"
	"github.com/chirpmesh/chirp-go/retry"
)

// DefaultHeartbeatInterval is the pause between heartbeats when the
// configuration leaves it unset.
const DefaultHeartbeatInterval = 300 * time.Second

// Engine is the running presence state machine.
type Engine struct {
	machine *engine.Machine[State, Event, Invocation]
}

// EngineConfig wires the presence engine's collaborators.
type EngineConfig struct {
	// Heartbeat announces presence, Leave withdraws it. Both usually
	// come from NewHeartbeatExecutor / NewLeaveExecutor.
	Heartbeat HeartbeatFunc
	Leave     LeaveFunc
	// HeartbeatInterval is the pause between successful heartbeats.
	// Zero selects DefaultHeartbeatInterval.
	HeartbeatInterval time.Duration
	// RetryPolicy gates heartbeat reconnection attempts.
	RetryPolicy retry.Policy
	// Log receives debug-level engine activity.
	Log zerolog.Logger
}

// NewEngine starts a presence engine in the Inactive state.
func NewEngine(cfg EngineConfig) *Engine {
	interval := cfg.HeartbeatInterval
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	handler := NewEffectHandler(cfg.Heartbeat, cfg.Leave, interval, cfg.RetryPolicy, cfg.Log)
	return &Engine{
		machine: engine.NewMachine[State, Event, Invocation](Inactive{}, handler, cfg.Log),
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

// Stop drains pending events, cancels in-flight effects and joins their
// goroutines. Posting LeftAll before Stop guarantees the final leave is
// sent.
func (e *Engine) Stop() {
	e.machine.Stop()
}

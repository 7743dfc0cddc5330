package presence

import (
	"github.com/chirpmesh/chirp-go/engine"
	"github.com/chirpmesh/chirp-go/types"
)

// Stable effect identifiers of the presence engine.
const (
	EffectHeartbeat        = "HEARTBEAT"
	EffectDelayedHeartbeat = "DELAYED_HEARTBEAT"
	EffectWait             = "WAIT"
	EffectLeave            = "LEAVE"
)

// Invocation is an effect start or cancellation produced by presence
// state transitions.
type Invocation interface {
	engine.Invocation
	isPresenceInvocation()
}

// HeartbeatInvocation starts a presence announce for the input.
type HeartbeatInvocation struct {
	Input types.SubscriptionInput
}

// ID implements engine.Invocation.
func (HeartbeatInvocation) ID() string { return EffectHeartbeat }

// Managed implements engine.Invocation.
func (HeartbeatInvocation) Managed() bool { return true }

// Cancelling implements engine.Invocation.
func (HeartbeatInvocation) Cancelling() bool { return false }

// CancelTarget implements engine.Invocation.
func (HeartbeatInvocation) CancelTarget() string { return "" }

func (HeartbeatInvocation) isPresenceInvocation() {}

// DelayedHeartbeatInvocation starts a retry-policy gated heartbeat
// attempt.
type DelayedHeartbeatInvocation struct {
	Input    types.SubscriptionInput
	Attempts uint8
	Reason   error
}

// ID implements engine.Invocation.
func (DelayedHeartbeatInvocation) ID() string { return EffectDelayedHeartbeat }

// Managed implements engine.Invocation.
func (DelayedHeartbeatInvocation) Managed() bool { return true }

// Cancelling implements engine.Invocation.
func (DelayedHeartbeatInvocation) Cancelling() bool { return false }

// CancelTarget implements engine.Invocation.
func (DelayedHeartbeatInvocation) CancelTarget() string { return "" }

func (DelayedHeartbeatInvocation) isPresenceInvocation() {}

// WaitInvocation starts the pause between successful heartbeats.
type WaitInvocation struct {
	Input types.SubscriptionInput
}

// ID implements engine.Invocation.
func (WaitInvocation) ID() string { return EffectWait }

// Managed implements engine.Invocation.
func (WaitInvocation) Managed() bool { return true }

// Cancelling implements engine.Invocation.
func (WaitInvocation) Cancelling() bool { return false }

// CancelTarget implements engine.Invocation.
func (WaitInvocation) CancelTarget() string { return "" }

func (WaitInvocation) isPresenceInvocation() {}

// LeaveInvocation fires a one-shot leave for the input. It runs
// synchronously so a leave issued during shutdown still goes out before
// the dispatcher stops, and it produces no events.
type LeaveInvocation struct {
	Input types.SubscriptionInput
}

// ID implements engine.Invocation.
func (LeaveInvocation) ID() string { return EffectLeave }

// Managed implements engine.Invocation.
func (LeaveInvocation) Managed() bool { return false }

// Cancelling implements engine.Invocation.
func (LeaveInvocation) Cancelling() bool { return false }

// CancelTarget implements engine.Invocation.
func (LeaveInvocation) CancelTarget() string { return "" }

func (LeaveInvocation) isPresenceInvocation() {}

// CancelInvocation aborts the in-flight effect with the targeted id.
type CancelInvocation struct {
	// Name is the invocation's own identifier.
	Name string
	// Target is the id of the effect to abort.
	Target string
}

// ID implements engine.Invocation.
func (c CancelInvocation) ID() string { return c.Name }

// Managed implements engine.Invocation.
func (CancelInvocation) Managed() bool { return false }

// Cancelling implements engine.Invocation.
func (CancelInvocation) Cancelling() bool { return true }

// CancelTarget implements engine.Invocation.
func (c CancelInvocation) CancelTarget() string { return c.Target }

func (CancelInvocation) isPresenceInvocation() {}

// Cancellation invocations for each managed presence effect.
var (
	CancelHeartbeat        = CancelInvocation{Name: "CANCEL_HEARTBEAT", Target: EffectHeartbeat}
	CancelDelayedHeartbeat = CancelInvocation{Name: "CANCEL_DELAYED_HEARTBEAT", Target: EffectDelayedHeartbeat}
	CancelWait             = CancelInvocation{Name: "CANCEL_WAIT", Target: EffectWait}
)

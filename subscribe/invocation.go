package subscribe

import (
	"github.com/chirpmesh/chirp-go/engine"
	"github.com/chirpmesh/chirp-go/types"
)

// Stable effect identifiers used by the dispatcher to track and cancel
// in-flight subscribe effects.
const (
	EffectHandshake          = "HANDSHAKE"
	EffectHandshakeReconnect = "HANDSHAKE_RECONNECT"
	EffectReceive            = "RECEIVE_MESSAGES"
	EffectReceiveReconnect   = "RECEIVE_RECONNECT"
	EffectEmitStatus         = "EMIT_STATUS"
	EffectEmitMessages       = "EMIT_MESSAGES"
)

// Invocation is an effect start or cancellation produced by subscribe
// state transitions.
type Invocation interface {
	engine.Invocation
	isSubscribeInvocation()
}

// HandshakeInvocation starts the initial subscribe call acquiring a time
// cursor.
type HandshakeInvocation struct {
	Input  types.SubscriptionInput
	Cursor *types.Cursor
}

// ID implements engine.Invocation.
func (HandshakeInvocation) ID() string { return EffectHandshake }

// Managed implements engine.Invocation.
func (HandshakeInvocation) Managed() bool { return true }

// Cancelling implements engine.Invocation.
func (HandshakeInvocation) Cancelling() bool { return false }

// CancelTarget implements engine.Invocation.
func (HandshakeInvocation) CancelTarget() string { return "" }

func (HandshakeInvocation) isSubscribeInvocation() {}

// HandshakeReconnectInvocation starts a retry-policy gated handshake
// attempt.
type HandshakeReconnectInvocation struct {
	Input    types.SubscriptionInput
	Cursor   *types.Cursor
	Attempts uint8
	Reason   error
}

// ID implements engine.Invocation.
func (HandshakeReconnectInvocation) ID() string { return EffectHandshakeReconnect }

// Managed implements engine.Invocation.
func (HandshakeReconnectInvocation) Managed() bool { return true }

// Cancelling implements engine.Invocation.
func (HandshakeReconnectInvocation) Cancelling() bool { return false }

// CancelTarget implements engine.Invocation.
func (HandshakeReconnectInvocation) CancelTarget() string { return "" }

func (HandshakeReconnectInvocation) isSubscribeInvocation() {}

// ReceiveInvocation starts the long poll for updates at the given cursor.
type ReceiveInvocation struct {
	Input  types.SubscriptionInput
	Cursor types.Cursor
}

// ID implements engine.Invocation.
func (ReceiveInvocation) ID() string { return EffectReceive }

// Managed implements engine.Invocation.
func (ReceiveInvocation) Managed() bool { return true }

// Cancelling implements engine.Invocation.
func (ReceiveInvocation) Cancelling() bool { return false }

// CancelTarget implements engine.Invocation.
func (ReceiveInvocation) CancelTarget() string { return "" }

func (ReceiveInvocation) isSubscribeInvocation() {}

// ReceiveReconnectInvocation starts a retry-policy gated long poll
// attempt.
type ReceiveReconnectInvocation struct {
	Input    types.SubscriptionInput
	Cursor   types.Cursor
	Attempts uint8
	Reason   error
}

// ID implements engine.Invocation.
func (ReceiveReconnectInvocation) ID() string { return EffectReceiveReconnect }

// Managed implements engine.Invocation.
func (ReceiveReconnectInvocation) Managed() bool { return true }

// Cancelling implements engine.Invocation.
func (ReceiveReconnectInvocation) Cancelling() bool { return false }

// CancelTarget implements engine.Invocation.
func (ReceiveReconnectInvocation) CancelTarget() string { return "" }

func (ReceiveReconnectInvocation) isSubscribeInvocation() {}

// EmitStatusInvocation fans a status change out to listeners. It runs
// synchronously and never fails.
type EmitStatusInvocation struct {
	Status Status
}

// ID implements engine.Invocation.
func (EmitStatusInvocation) ID() string { return EffectEmitStatus }

// Managed implements engine.Invocation.
func (EmitStatusInvocation) Managed() bool { return false }

// Cancelling implements engine.Invocation.
func (EmitStatusInvocation) Cancelling() bool { return false }

// CancelTarget implements engine.Invocation.
func (EmitStatusInvocation) CancelTarget() string { return "" }

func (EmitStatusInvocation) isSubscribeInvocation() {}

// EmitMessagesInvocation fans received updates out to listeners. It runs
// synchronously and never fails.
type EmitMessagesInvocation struct {
	Updates []types.Update
}

// ID implements engine.Invocation.
func (EmitMessagesInvocation) ID() string { return EffectEmitMessages }

// Managed implements engine.Invocation.
func (EmitMessagesInvocation) Managed() bool { return false }

// Cancelling implements engine.Invocation.
func (EmitMessagesInvocation) Cancelling() bool { return false }

// CancelTarget implements engine.Invocation.
func (EmitMessagesInvocation) CancelTarget() string { return "" }

func (EmitMessagesInvocation) isSubscribeInvocation() {}

// CancelInvocation aborts the in-flight effect with the targeted id.
type CancelInvocation struct {
	// Name is the invocation's own identifier, e.g. "CANCEL_HANDSHAKE".
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

func (CancelInvocation) isSubscribeInvocation() {}

// Cancellation invocations for each managed subscribe effect.
var (
	CancelHandshake          = CancelInvocation{Name: "CANCEL_HANDSHAKE", Target: EffectHandshake}
	CancelHandshakeReconnect = CancelInvocation{Name: "CANCEL_HANDSHAKE_RECONNECT", Target: EffectHandshakeReconnect}
	CancelReceive            = CancelInvocation{Name: "CANCEL_RECEIVE_MESSAGES", Target: EffectReceive}
	CancelReceiveReconnect   = CancelInvocation{Name: "CANCEL_RECEIVE_RECONNECT", Target: EffectReceiveReconnect}
)

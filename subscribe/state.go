package subscribe

import (
	"github.com/chirpmesh/chirp-go/engine"
	"github.com/chirpmesh/chirp-go/types"
)

// State is a node of the subscribe state machine.
type State interface {
	// Enter returns the invocations starting the state's own effects.
	Enter() []Invocation
	// Exit returns the invocations cancelling the state's own effects.
	Exit() []Invocation
	// Transition returns the transition the event causes, or false when
	// the state ignores the event.
	Transition(event Event) (engine.Transition[State, Invocation], bool)
}

func transitionTo(from, next State, mid ...Invocation) (engine.Transition[State, Invocation], bool) {
	return engine.MakeTransition[State, Event, Invocation](from, next, mid...), true
}

// Unsubscribed is the initial state: no channels or groups to receive
// events for.
type Unsubscribed struct{}

// Enter implements State.
func (Unsubscribed) Enter() []Invocation { return nil }

// Exit implements State.
func (Unsubscribed) Exit() []Invocation { return nil }

// Transition implements State.
func (s Unsubscribed) Transition(event Event) (engine.Transition[State, Invocation], bool) {
	switch ev := event.(type) {
	case SubscriptionChanged:
		return transitionTo(s, Handshaking{
			Input: types.NewSubscriptionInput(ev.Channels, ev.ChannelGroups),
		})
	case SubscriptionRestored:
		cursor := ev.Cursor
		return transitionTo(s, Handshaking{
			Input:  types.NewSubscriptionInput(ev.Channels, ev.ChannelGroups),
			Cursor: &cursor,
		})
	default:
		return engine.Transition[State, Invocation]{}, false
	}
}

// Handshaking performs the initial subscribe call that acquires a time
// cursor for the receive loop.
type Handshaking struct {
	Input types.SubscriptionInput
	// Cursor is the caller-preserved catch-up cursor, nil for "start
	// from now".
	Cursor *types.Cursor
}

// Enter implements State.
func (s Handshaking) Enter() []Invocation {
	return []Invocation{HandshakeInvocation{Input: s.Input, Cursor: s.Cursor}}
}

// Exit implements State.
func (Handshaking) Exit() []Invocation {
	return []Invocation{CancelHandshake}
}

// Transition implements State.
func (s Handshaking) Transition(event Event) (engine.Transition[State, Invocation], bool) {
	switch ev := event.(type) {
	case SubscriptionChanged:
		return transitionTo(s, Handshaking{
			Input:  types.NewSubscriptionInput(ev.Channels, ev.ChannelGroups),
			Cursor: s.Cursor,
		})
	case SubscriptionRestored:
		return transitionTo(s, Handshaking{
			Input:  types.NewSubscriptionInput(ev.Channels, ev.ChannelGroups),
			Cursor: preservedCursor(s.Cursor, ev.Cursor),
		})
	case HandshakeSuccess:
		return handshakeSucceeded(s, s.Input, s.Cursor, ev.Cursor)
	case HandshakeFailure:
		return transitionTo(s, HandshakeReconnecting{
			Input:    s.Input,
			Cursor:   s.Cursor,
			Attempts: 1,
			Reason:   ev.Reason,
		})
	case Disconnect:
		return transitionTo(s, HandshakeStopped{Input: s.Input, Cursor: s.Cursor})
	case UnsubscribeAll:
		return unsubscribed(s)
	default:
		return engine.Transition[State, Invocation]{}, false
	}
}

// HandshakeReconnecting recovers after a failed initial subscribe
// attempt, gated by the retry policy.
type HandshakeReconnecting struct {
	Input    types.SubscriptionInput
	Cursor   *types.Cursor
	Attempts uint8
	Reason   error
}

// Enter implements State.
func (s HandshakeReconnecting) Enter() []Invocation {
	return []Invocation{HandshakeReconnectInvocation{
		Input:    s.Input,
		Cursor:   s.Cursor,
		Attempts: s.Attempts,
		Reason:   s.Reason,
	}}
}

// Exit implements State.
func (HandshakeReconnecting) Exit() []Invocation {
	return []Invocation{CancelHandshakeReconnect}
}

// Transition implements State.
func (s HandshakeReconnecting) Transition(event Event) (engine.Transition[State, Invocation], bool) {
	switch ev := event.(type) {
	case SubscriptionChanged:
		return transitionTo(s, Handshaking{
			Input:  types.NewSubscriptionInput(ev.Channels, ev.ChannelGroups),
			Cursor: s.Cursor,
		})
	case SubscriptionRestored:
		return transitionTo(s, Handshaking{
			Input:  types.NewSubscriptionInput(ev.Channels, ev.ChannelGroups),
			Cursor: preservedCursor(s.Cursor, ev.Cursor),
		})
	case HandshakeReconnectSuccess:
		return handshakeSucceeded(s, s.Input, s.Cursor, ev.Cursor)
	case HandshakeReconnectFailure:
		return transitionTo(s, HandshakeReconnecting{
			Input:    s.Input,
			Cursor:   s.Cursor,
			Attempts: s.Attempts + 1,
			Reason:   ev.Reason,
		})
	case HandshakeReconnectGiveUp:
		return transitionTo(s,
			HandshakeFailed{Input: s.Input, Cursor: s.Cursor, Reason: ev.Reason},
			EmitStatusInvocation{Status: Status{Category: StatusConnectionError, Err: ev.Reason}},
		)
	case Disconnect:
		return transitionTo(s, HandshakeStopped{Input: s.Input, Cursor: s.Cursor})
	case UnsubscribeAll:
		return unsubscribed(s)
	default:
		return engine.Transition[State, Invocation]{}, false
	}
}

// HandshakeStopped is the paused variant of the handshake phase.
type HandshakeStopped struct {
	Input  types.SubscriptionInput
	Cursor *types.Cursor
}

// Enter implements State.
func (HandshakeStopped) Enter() []Invocation { return nil }

// Exit implements State.
func (HandshakeStopped) Exit() []Invocation { return nil }

// Transition implements State.
func (s HandshakeStopped) Transition(event Event) (engine.Transition[State, Invocation], bool) {
	switch ev := event.(type) {
	case SubscriptionChanged:
		return transitionTo(s, Handshaking{
			Input:  types.NewSubscriptionInput(ev.Channels, ev.ChannelGroups),
			Cursor: s.Cursor,
		})
	case SubscriptionRestored:
		return transitionTo(s, Handshaking{
			Input:  types.NewSubscriptionInput(ev.Channels, ev.ChannelGroups),
			Cursor: preservedCursor(s.Cursor, ev.Cursor),
		})
	case Reconnect:
		return transitionTo(s, Handshaking{Input: s.Input, Cursor: s.Cursor})
	case UnsubscribeAll:
		return unsubscribed(s)
	default:
		return engine.Transition[State, Invocation]{}, false
	}
}

// HandshakeFailed is reached when the retry policy gave up on the initial
// subscribe.
type HandshakeFailed struct {
	Input  types.SubscriptionInput
	Cursor *types.Cursor
	Reason error
}

// Enter implements State.
func (HandshakeFailed) Enter() []Invocation { return nil }

// Exit implements State.
func (HandshakeFailed) Exit() []Invocation { return nil }

// Transition implements State.
func (s HandshakeFailed) Transition(event Event) (engine.Transition[State, Invocation], bool) {
	switch ev := event.(type) {
	case SubscriptionChanged:
		return transitionTo(s, Handshaking{
			Input:  types.NewSubscriptionInput(ev.Channels, ev.ChannelGroups),
			Cursor: s.Cursor,
		})
	case SubscriptionRestored:
		return transitionTo(s, Handshaking{
			Input:  types.NewSubscriptionInput(ev.Channels, ev.ChannelGroups),
			Cursor: preservedCursor(s.Cursor, ev.Cursor),
		})
	case Reconnect:
		return transitionTo(s, Handshaking{Input: s.Input, Cursor: s.Cursor})
	case UnsubscribeAll:
		return unsubscribed(s)
	default:
		return engine.Transition[State, Invocation]{}, false
	}
}

// Receiving is the steady state: long polling for updates from the
// current cursor.
type Receiving struct {
	Input  types.SubscriptionInput
	Cursor types.Cursor
}

// Enter implements State.
func (s Receiving) Enter() []Invocation {
	return []Invocation{ReceiveInvocation{Input: s.Input, Cursor: s.Cursor}}
}

// Exit implements State.
func (Receiving) Exit() []Invocation {
	return []Invocation{CancelReceive}
}

// Transition implements State.
func (s Receiving) Transition(event Event) (engine.Transition[State, Invocation], bool) {
	switch ev := event.(type) {
	case SubscriptionChanged:
		// Membership changes while connected restart only the long
		// poll; no new handshake is required and the cursor is kept.
		return transitionTo(s, Receiving{
			Input:  types.NewSubscriptionInput(ev.Channels, ev.ChannelGroups),
			Cursor: s.Cursor,
		})
	case SubscriptionRestored:
		return transitionTo(s, Receiving{
			Input:  types.NewSubscriptionInput(ev.Channels, ev.ChannelGroups),
			Cursor: ev.Cursor,
		})
	case ReceiveSuccess:
		return receiveSucceeded(s, s.Input, ev.Cursor, ev.Messages)
	case ReceiveFailure:
		return transitionTo(s, ReceiveReconnecting{
			Input:    s.Input,
			Cursor:   s.Cursor,
			Attempts: 1,
			Reason:   ev.Reason,
		})
	case Disconnect:
		return transitionTo(s,
			ReceiveStopped{Input: s.Input, Cursor: s.Cursor},
			EmitStatusInvocation{Status: Status{Category: StatusDisconnected}},
		)
	case UnsubscribeAll:
		return unsubscribed(s)
	default:
		return engine.Transition[State, Invocation]{}, false
	}
}

// ReceiveReconnecting recovers after a failed long poll, gated by the
// retry policy.
type ReceiveReconnecting struct {
	Input    types.SubscriptionInput
	Cursor   types.Cursor
	Attempts uint8
	Reason   error
}

// Enter implements State.
func (s ReceiveReconnecting) Enter() []Invocation {
	return []Invocation{ReceiveReconnectInvocation{
		Input:    s.Input,
		Cursor:   s.Cursor,
		Attempts: s.Attempts,
		Reason:   s.Reason,
	}}
}

// Exit implements State.
func (ReceiveReconnecting) Exit() []Invocation {
	return []Invocation{CancelReceiveReconnect}
}

// Transition implements State.
func (s ReceiveReconnecting) Transition(event Event) (engine.Transition[State, Invocation], bool) {
	switch ev := event.(type) {
	case SubscriptionChanged:
		return transitionTo(s, Receiving{
			Input:  types.NewSubscriptionInput(ev.Channels, ev.ChannelGroups),
			Cursor: s.Cursor,
		})
	case SubscriptionRestored:
		return transitionTo(s, Receiving{
			Input:  types.NewSubscriptionInput(ev.Channels, ev.ChannelGroups),
			Cursor: ev.Cursor,
		})
	case ReceiveReconnectSuccess:
		return receiveSucceeded(s, s.Input, ev.Cursor, ev.Messages)
	case ReceiveReconnectFailure:
		return transitionTo(s, ReceiveReconnecting{
			Input:    s.Input,
			Cursor:   s.Cursor,
			Attempts: s.Attempts + 1,
			Reason:   ev.Reason,
		})
	case ReceiveReconnectGiveUp:
		return transitionTo(s,
			ReceiveFailed{Input: s.Input, Cursor: s.Cursor, Reason: ev.Reason},
			EmitStatusInvocation{Status: Status{Category: StatusDisconnected}},
		)
	case Disconnect:
		return transitionTo(s,
			ReceiveStopped{Input: s.Input, Cursor: s.Cursor},
			EmitStatusInvocation{Status: Status{Category: StatusDisconnected}},
		)
	case UnsubscribeAll:
		return unsubscribed(s)
	default:
		return engine.Transition[State, Invocation]{}, false
	}
}

// ReceiveStopped is the paused variant of the receive phase. Membership
// updates are recorded but no requests are made until Reconnect.
type ReceiveStopped struct {
	Input  types.SubscriptionInput
	Cursor types.Cursor
}

// Enter implements State.
func (ReceiveStopped) Enter() []Invocation { return nil }

// Exit implements State.
func (ReceiveStopped) Exit() []Invocation { return nil }

// Transition implements State.
func (s ReceiveStopped) Transition(event Event) (engine.Transition[State, Invocation], bool) {
	switch ev := event.(type) {
	case SubscriptionChanged:
		return transitionTo(s, ReceiveStopped{
			Input:  types.NewSubscriptionInput(ev.Channels, ev.ChannelGroups),
			Cursor: s.Cursor,
		})
	case SubscriptionRestored:
		return transitionTo(s, ReceiveStopped{
			Input:  types.NewSubscriptionInput(ev.Channels, ev.ChannelGroups),
			Cursor: ev.Cursor,
		})
	case Reconnect:
		cursor := s.Cursor
		return transitionTo(s, Handshaking{Input: s.Input, Cursor: &cursor})
	case UnsubscribeAll:
		return unsubscribed(s)
	default:
		return engine.Transition[State, Invocation]{}, false
	}
}

// ReceiveFailed is reached when the retry policy gave up on the long
// poll. Resuming requires a full handshake; the failure cursor is carried
// forward for catch-up.
type ReceiveFailed struct {
	Input  types.SubscriptionInput
	Cursor types.Cursor
	Reason error
}

// Enter implements State.
func (ReceiveFailed) Enter() []Invocation { return nil }

// Exit implements State.
func (ReceiveFailed) Exit() []Invocation { return nil }

// Transition implements State.
func (s ReceiveFailed) Transition(event Event) (engine.Transition[State, Invocation], bool) {
	switch ev := event.(type) {
	case SubscriptionChanged:
		cursor := s.Cursor
		return transitionTo(s, Handshaking{
			Input:  types.NewSubscriptionInput(ev.Channels, ev.ChannelGroups),
			Cursor: &cursor,
		})
	case SubscriptionRestored:
		cursor := ev.Cursor
		return transitionTo(s, Handshaking{
			Input:  types.NewSubscriptionInput(ev.Channels, ev.ChannelGroups),
			Cursor: &cursor,
		})
	case Reconnect:
		cursor := s.Cursor
		return transitionTo(s, Handshaking{Input: s.Input, Cursor: &cursor})
	case UnsubscribeAll:
		return unsubscribed(s)
	default:
		return engine.Transition[State, Invocation]{}, false
	}
}

// handshakeSucceeded moves into Receiving. A caller-preserved cursor wins
// over the one the service returned, keeping catch-up semantics.
func handshakeSucceeded(from State, input types.SubscriptionInput, preserved *types.Cursor, server types.Cursor) (engine.Transition[State, Invocation], bool) {
	cursor := server
	if preserved != nil {
		cursor = *preserved
	}
	return transitionTo(from,
		Receiving{Input: input, Cursor: cursor},
		EmitStatusInvocation{Status: Status{Category: StatusConnected}},
	)
}

// receiveSucceeded stays in Receiving at the next cursor and emits the
// received updates.
func receiveSucceeded(from State, input types.SubscriptionInput, cursor types.Cursor, messages []types.Update) (engine.Transition[State, Invocation], bool) {
	return transitionTo(from,
		Receiving{Input: input, Cursor: cursor},
		EmitMessagesInvocation{Updates: messages},
	)
}

// unsubscribed drops membership from any state.
func unsubscribed(from State) (engine.Transition[State, Invocation], bool) {
	return transitionTo(from,
		Unsubscribed{},
		EmitStatusInvocation{Status: Status{Category: StatusDisconnected}},
	)
}

// preservedCursor keeps the already-preserved cursor when present,
// falling back to the restored one.
func preservedCursor(preserved *types.Cursor, restored types.Cursor) *types.Cursor {
	if preserved != nil {
		return preserved
	}
	return &restored
}

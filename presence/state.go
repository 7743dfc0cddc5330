package presence

import (
	"github.com/chirpmesh/chirp-go/engine"
	"github.com/chirpmesh/chirp-go/types"
)

// State is a node of the presence state machine.
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

// Inactive is the initial state: no channels to announce presence on.
type Inactive struct{}

// Enter implements State.
func (Inactive) Enter() []Invocation { return nil }

// Exit implements State.
func (Inactive) Exit() []Invocation { return nil }

// Transition implements State.
func (s Inactive) Transition(event Event) (engine.Transition[State, Invocation], bool) {
	switch ev := event.(type) {
	case Joined:
		input := types.NewSubscriptionInput(ev.Channels, ev.ChannelGroups)
		if input.IsEmpty() {
			return engine.Transition[State, Invocation]{}, false
		}
		return transitionTo(s, Heartbeating{Input: input})
	default:
		return engine.Transition[State, Invocation]{}, false
	}
}

// Heartbeating announces presence for the input.
type Heartbeating struct {
	Input types.SubscriptionInput
}

// Enter implements State.
func (s Heartbeating) Enter() []Invocation {
	return []Invocation{HeartbeatInvocation{Input: s.Input}}
}

// Exit implements State.
func (Heartbeating) Exit() []Invocation {
	return []Invocation{CancelHeartbeat}
}

// Transition implements State.
func (s Heartbeating) Transition(event Event) (engine.Transition[State, Invocation], bool) {
	switch ev := event.(type) {
	case HeartbeatSuccess:
		return transitionTo(s, HeartbeatCooldown{Input: s.Input})
	case HeartbeatFailure:
		return transitionTo(s, HeartbeatReconnecting{
			Input:    s.Input,
			Attempts: 1,
			Reason:   ev.Reason,
		})
	case Joined:
		return membershipChanged(s, ev)
	case Left:
		return membershipLeft(s, s.Input, ev)
	case Disconnect:
		return transitionTo(s, HeartbeatStopped{Input: s.Input})
	case LeftAll:
		return leftAll(s, s.Input)
	default:
		return engine.Transition[State, Invocation]{}, false
	}
}

// HeartbeatCooldown waits out the heartbeat interval before the next
// announce.
type HeartbeatCooldown struct {
	Input types.SubscriptionInput
}

// Enter implements State.
func (s HeartbeatCooldown) Enter() []Invocation {
	return []Invocation{WaitInvocation{Input: s.Input}}
}

// Exit implements State.
func (HeartbeatCooldown) Exit() []Invocation {
	return []Invocation{CancelWait}
}

// Transition implements State.
func (s HeartbeatCooldown) Transition(event Event) (engine.Transition[State, Invocation], bool) {
	switch ev := event.(type) {
	case TimesUp:
		return transitionTo(s, Heartbeating{Input: s.Input})
	case Joined:
		return membershipChanged(s, ev)
	case Left:
		return membershipLeft(s, s.Input, ev)
	case Disconnect:
		return transitionTo(s, HeartbeatStopped{Input: s.Input})
	case LeftAll:
		return leftAll(s, s.Input)
	default:
		return engine.Transition[State, Invocation]{}, false
	}
}

// HeartbeatReconnecting recovers after a failed heartbeat, gated by the
// retry policy.
type HeartbeatReconnecting struct {
	Input    types.SubscriptionInput
	Attempts uint8
	Reason   error
}

// Enter implements State.
func (s HeartbeatReconnecting) Enter() []Invocation {
	return []Invocation{DelayedHeartbeatInvocation{
		Input:    s.Input,
		Attempts: s.Attempts,
		Reason:   s.Reason,
	}}
}

// Exit implements State.
func (HeartbeatReconnecting) Exit() []Invocation {
	return []Invocation{CancelDelayedHeartbeat}
}

// Transition implements State.
func (s HeartbeatReconnecting) Transition(event Event) (engine.Transition[State, Invocation], bool) {
	switch ev := event.(type) {
	case HeartbeatSuccess:
		return transitionTo(s, HeartbeatCooldown{Input: s.Input})
	case HeartbeatFailure:
		return transitionTo(s, HeartbeatReconnecting{
			Input:    s.Input,
			Attempts: s.Attempts + 1,
			Reason:   ev.Reason,
		})
	case HeartbeatGiveUp:
		return transitionTo(s, HeartbeatFailed{Input: s.Input, Reason: ev.Reason})
	case Joined:
		return membershipChanged(s, ev)
	case Left:
		return membershipLeft(s, s.Input, ev)
	case Disconnect:
		return transitionTo(s, HeartbeatStopped{Input: s.Input})
	case LeftAll:
		return leftAll(s, s.Input)
	default:
		return engine.Transition[State, Invocation]{}, false
	}
}

// HeartbeatFailed is reached when the retry policy gave up.
type HeartbeatFailed struct {
	Input  types.SubscriptionInput
	Reason error
}

// Enter implements State.
func (HeartbeatFailed) Enter() []Invocation { return nil }

// Exit implements State.
func (HeartbeatFailed) Exit() []Invocation { return nil }

// Transition implements State.
func (s HeartbeatFailed) Transition(event Event) (engine.Transition[State, Invocation], bool) {
	switch ev := event.(type) {
	case Joined:
		return membershipChanged(s, ev)
	case Left:
		return membershipLeft(s, s.Input, ev)
	case Reconnect:
		return transitionTo(s, Heartbeating{Input: s.Input})
	case Disconnect:
		return transitionTo(s, HeartbeatStopped{Input: s.Input})
	case LeftAll:
		return leftAll(s, s.Input)
	default:
		return engine.Transition[State, Invocation]{}, false
	}
}

// HeartbeatStopped is the paused variant: membership updates are recorded
// but nothing is announced until Reconnect.
type HeartbeatStopped struct {
	Input types.SubscriptionInput
}

// Enter implements State.
func (HeartbeatStopped) Enter() []Invocation { return nil }

// Exit implements State.
func (HeartbeatStopped) Exit() []Invocation { return nil }

// Transition implements State.
func (s HeartbeatStopped) Transition(event Event) (engine.Transition[State, Invocation], bool) {
	switch ev := event.(type) {
	case Joined:
		return transitionTo(s, HeartbeatStopped{
			Input: types.NewSubscriptionInput(ev.Channels, ev.ChannelGroups),
		})
	case Left:
		remaining := s.Input.Sub(types.NewSubscriptionInput(ev.Channels, ev.ChannelGroups))
		return transitionTo(s, HeartbeatStopped{Input: remaining})
	case Reconnect:
		return transitionTo(s, Heartbeating{Input: s.Input})
	case LeftAll:
		return leftAll(s, s.Input)
	default:
		return engine.Transition[State, Invocation]{}, false
	}
}

// membershipChanged restarts heartbeating with the replaced input.
func membershipChanged(from State, ev Joined) (engine.Transition[State, Invocation], bool) {
	input := types.NewSubscriptionInput(ev.Channels, ev.ChannelGroups)
	if input.IsEmpty() {
		return leftAll(from, currentInput(from))
	}
	return transitionTo(from, Heartbeating{Input: input})
}

// membershipLeft removes channels from the input, leaves them, and keeps
// heartbeating for the remainder.
func membershipLeft(from State, input types.SubscriptionInput, ev Left) (engine.Transition[State, Invocation], bool) {
	removed := types.NewSubscriptionInput(ev.Channels, ev.ChannelGroups)
	remaining := input.Sub(removed)
	if remaining.IsEmpty() {
		return transitionTo(from, Inactive{}, LeaveInvocation{Input: input})
	}
	return transitionTo(from, Heartbeating{Input: remaining}, LeaveInvocation{Input: removed})
}

// leftAll leaves everything and goes Inactive.
func leftAll(from State, input types.SubscriptionInput) (engine.Transition[State, Invocation], bool) {
	if input.IsEmpty() {
		return transitionTo(from, Inactive{})
	}
	return transitionTo(from, Inactive{}, LeaveInvocation{Input: input})
}

func currentInput(state State) types.SubscriptionInput {
	switch s := state.(type) {
	case Heartbeating:
		return s.Input
	case HeartbeatCooldown:
		return s.Input
	case HeartbeatReconnecting:
		return s.Input
	case HeartbeatFailed:
		return s.Input
	case HeartbeatStopped:
		return s.Input
	default:
		return types.SubscriptionInput{}
	}
}

package subscribe

import "github.com/chirpmesh/chirp-go/types"

// Event is an input to the subscribe state machine: either an application
// request (subscription change, disconnect, …) or the completion of an
// effect.
type Event interface {
	isSubscribeEvent()
}

// SubscriptionChanged reports a new channel / group membership without a
// catch-up cursor.
type SubscriptionChanged struct {
	Channels      []string
	ChannelGroups []string
}

// SubscriptionRestored reports a new membership together with a caller
// supplied catch-up cursor.
type SubscriptionRestored struct {
	Channels      []string
	ChannelGroups []string
	Cursor        types.Cursor
}

// HandshakeSuccess reports a completed handshake carrying the cursor the
// service returned.
type HandshakeSuccess struct {
	Cursor types.Cursor
}

// HandshakeFailure reports a failed handshake attempt.
type HandshakeFailure struct {
	Reason error
}

// HandshakeReconnectSuccess reports a handshake retry that succeeded.
type HandshakeReconnectSuccess struct {
	Cursor types.Cursor
}

// HandshakeReconnectFailure reports a handshake retry that failed.
type HandshakeReconnectFailure struct {
	Reason error
}

// HandshakeReconnectGiveUp reports that the retry policy is exhausted for
// the handshake.
type HandshakeReconnectGiveUp struct {
	Reason error
}

// ReceiveSuccess reports a completed long poll with the next cursor and
// the decoded updates.
type ReceiveSuccess struct {
	Cursor   types.Cursor
	Messages []types.Update
}

// ReceiveFailure reports a failed long poll.
type ReceiveFailure struct {
	Reason error
}

// ReceiveReconnectSuccess reports a receive retry that succeeded.
type ReceiveReconnectSuccess struct {
	Cursor   types.Cursor
	Messages []types.Update
}

// ReceiveReconnectFailure reports a receive retry that failed.
type ReceiveReconnectFailure struct {
	Reason error
}

// ReceiveReconnectGiveUp reports that the retry policy is exhausted for
// the receive loop.
type ReceiveReconnectGiveUp struct {
	Reason error
}

// Disconnect asks the engine to pause without dropping membership.
type Disconnect struct{}

// Reconnect asks the engine to resume after a Disconnect or a give-up.
type Reconnect struct{}

// UnsubscribeAll drops all membership and returns to Unsubscribed.
type UnsubscribeAll struct{}

func (SubscriptionChanged) isSubscribeEvent()        {}
func (SubscriptionRestored) isSubscribeEvent()       {}
func (HandshakeSuccess) isSubscribeEvent()           {}
func (HandshakeFailure) isSubscribeEvent()           {}
func (HandshakeReconnectSuccess) isSubscribeEvent()  {}
func (HandshakeReconnectFailure) isSubscribeEvent()  {}
func (HandshakeReconnectGiveUp) isSubscribeEvent()   {}
func (ReceiveSuccess) isSubscribeEvent()             {}
func (ReceiveFailure) isSubscribeEvent()             {}
func (ReceiveReconnectSuccess) isSubscribeEvent()    {}
func (ReceiveReconnectFailure) isSubscribeEvent()    {}
func (ReceiveReconnectGiveUp) isSubscribeEvent()     {}
func (Disconnect) isSubscribeEvent()                 {}
func (Reconnect) isSubscribeEvent()                  {}
func (UnsubscribeAll) isSubscribeEvent()             {}

// Package subscribe implements the subscribe event engine: the state
// machine driving the two-phase long-poll subscribe protocol (handshake,
// then repeated receive calls), with reconnection, pause / resume and
// dynamic membership changes, plus the subscription manager routing
// received updates to registered listeners.
package subscribe

import "fmt"

// StatusCategory classifies connection status changes delivered to
// listeners.
type StatusCategory int

// Connection status categories.
const (
	// StatusConnected is emitted once the handshake completed and the
	// receive loop started.
	StatusConnected StatusCategory = iota + 1
	// StatusDisconnected is emitted when the receive loop stopped,
	// either on request or after the retry policy gave up.
	StatusDisconnected
	// StatusConnectionError is emitted when the handshake could not be
	// completed and the retry policy gave up.
	StatusConnectionError
)

// String implements fmt.Stringer.
func (c StatusCategory) String() string {
	switch c {
	case StatusConnected:
		return "Connected"
	case StatusDisconnected:
		return "Disconnected"
	case StatusConnectionError:
		return "ConnectionError"
	default:
		return fmt.Sprintf("StatusCategory(%d)", int(c))
	}
}

// Status is a connection status change.
type Status struct {
	// Category is the kind of change.
	Category StatusCategory
	// Err carries the failure which caused a StatusConnectionError.
	Err error
}

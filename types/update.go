package types

import (
	json "github.com/goccy/go-json"
)

// Update is a decoded server event delivered through the subscribe loop:
// a message, signal, presence change, object change, message action or
// file notification.
type Update interface {
	// UpdateChannel returns the channel the update originated on.
	UpdateChannel() string
}

// Message is a regular message published to a channel.
type Message struct {
	// Channel the message was published to.
	Channel string
	// Subscription is the name of the subscription the message was
	// delivered through; for channel-group subscriptions this is the
	// group name.
	Subscription string
	// Sender is the user id of the publisher, when known.
	Sender string
	// Timetoken is the per-message publish timetoken.
	Timetoken string
	// Data is the raw message payload.
	Data json.RawMessage
	// DecryptionError carries a per-message crypto failure; it never
	// aborts the subscribe loop.
	DecryptionError error
}

// UpdateChannel implements Update.
func (m Message) UpdateChannel() string { return m.Channel }

// Signal is a lightweight message sent through the signal endpoint.
type Signal struct {
	Channel      string
	Subscription string
	Sender       string
	Timetoken    string
	Data         json.RawMessage
}

// UpdateChannel implements Update.
func (s Signal) UpdateChannel() string { return s.Channel }

// ObjectUpdate notifies about a change to a channel, uuid or membership
// object.
type ObjectUpdate struct {
	Channel      string
	Subscription string
	// Event is "update" or "delete".
	Event string
	// Kind is "channel", "uuid" or "membership".
	Kind string
	// Data is the raw object body.
	Data json.RawMessage
	// Timestamp is the event time in Unix seconds.
	Timestamp int64
}

// UpdateChannel implements Update.
func (o ObjectUpdate) UpdateChannel() string { return o.Channel }

// MessageActionUpdate notifies about an added or removed message action.
type MessageActionUpdate struct {
	Channel      string
	Subscription string
	Sender       string
	// Event is "added" or "removed".
	Event string
	// MessageTimetoken identifies the message the action belongs to.
	MessageTimetoken string
	// ActionTimetoken identifies the action itself.
	ActionTimetoken string
	// Kind is the action type, Value the value associated with it.
	Kind  string
	Value string
}

// UpdateChannel implements Update.
func (m MessageActionUpdate) UpdateChannel() string { return m.Channel }

// FileUpdate notifies about a shared file.
type FileUpdate struct {
	Channel      string
	Subscription string
	Sender       string
	Timetoken    string
	// Message associated with the uploaded file.
	Message string
	// ID is the unique identifier of the uploaded file, Name the stored
	// file name.
	ID   string
	Name string
}

// UpdateChannel implements Update.
func (f FileUpdate) UpdateChannel() string { return f.Channel }

// PresenceAction enumerates presence change kinds.
type PresenceAction string

// Presence change kinds delivered on -pnpres channels.
const (
	PresenceJoin        PresenceAction = "join"
	PresenceLeave       PresenceAction = "leave"
	PresenceTimeout     PresenceAction = "timeout"
	PresenceInterval    PresenceAction = "interval"
	PresenceStateChange PresenceAction = "state-change"
)

// PresenceUpdate describes how occupancy or user state changed on a
// channel.
type PresenceUpdate struct {
	// Action is the presence change kind.
	Action PresenceAction
	// Channel the presence event happened on, without the presence
	// suffix.
	Channel      string
	Subscription string
	// Timestamp of the event in Unix seconds.
	Timestamp int64
	// UserID of the user the event is about. Empty for interval events.
	UserID string
	// Occupancy is the channel occupancy after the event.
	Occupancy int
	// Join, Leave and Timeout list the users which changed occupancy
	// since the previous interval event. Only set for interval events.
	Join    []string
	Leave   []string
	Timeout []string
	// State is the user state payload for state-change events.
	State json.RawMessage
}

// UpdateChannel implements Update.
func (p PresenceUpdate) UpdateChannel() string { return p.Channel }

package subscribe

import (
	"sync"

	"github.com/google/uuid"

	"github.com/chirpmesh/chirp-go/types"
)

// defaultListenerBuffer is the capacity of a listener's update and status
// channels.
const defaultListenerBuffer = 100

// Subscription is a registered consumer of real-time updates for a set of
// channels. Updates and statuses arrive on buffered channels owned by the
// subscription; when a channel is full further updates for this listener
// are dropped, so a slow consumer never stalls the subscribe loop.
//
// Close unregisters the subscription and closes its channels. A
// subscription must be closed when no longer needed.
type Subscription struct {
	id            uuid.UUID
	channels      map[string]struct{}
	channelGroups map[string]struct{}

	updates  chan types.Update
	statuses chan Status

	closeOnce sync.Once
	onClose   func(*Subscription)
}

func newSubscription(channels, channelGroups []string, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = defaultListenerBuffer
	}
	set := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		set[ch] = struct{}{}
	}
	groups := make(map[string]struct{}, len(channelGroups))
	for _, g := range channelGroups {
		groups[g] = struct{}{}
	}
	return &Subscription{
		id:            uuid.New(),
		channels:      set,
		channelGroups: groups,
		updates:       make(chan types.Update, buffer),
		statuses:      make(chan Status, buffer),
	}
}

// ID returns the unique id of the subscription.
func (s *Subscription) ID() uuid.UUID { return s.id }

// Channels returns the channels the subscription cares about.
func (s *Subscription) Channels() []string {
	out := make([]string, 0, len(s.channels))
	for ch := range s.channels {
		out = append(out, ch)
	}
	return out
}

// ChannelGroups returns the channel groups the subscription was created
// with.
func (s *Subscription) ChannelGroups() []string {
	out := make([]string, 0, len(s.channelGroups))
	for g := range s.channelGroups {
		out = append(out, g)
	}
	return out
}

// Updates returns the stream of updates for the subscription's channels.
// The channel is closed by Close.
func (s *Subscription) Updates() <-chan types.Update { return s.updates }

// Statuses returns the stream of connection status changes. The channel
// is closed by Close.
func (s *Subscription) Statuses() <-chan Status { return s.statuses }

// Close unregisters the subscription and closes both streams. It is safe
// to call more than once.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		if s.onClose != nil {
			s.onClose(s)
		}
		close(s.updates)
		close(s.statuses)
	})
}

func (s *Subscription) wantsChannel(channel string) bool {
	_, ok := s.channels[channel]
	return ok
}

// notifyUpdate delivers an update, dropping it when the listener's buffer
// is full.
func (s *Subscription) notifyUpdate(update types.Update) {
	select {
	case s.updates <- update:
	default:
	}
}

// notifyStatus delivers a status change, dropping it when the listener's
// buffer is full.
func (s *Subscription) notifyStatus(status Status) {
	select {
	case s.statuses <- status:
	default:
	}
}

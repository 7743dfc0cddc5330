package types

import "sort"

// SubscriptionInput is the set of channels and channel groups a client is
// subscribed to. Channels and groups are independent namespaces.
//
// Inputs are value types: set operations return new inputs and states
// holding an input never mutate it in place.
type SubscriptionInput struct {
	channels      map[string]struct{}
	channelGroups map[string]struct{}
}

// NewSubscriptionInput builds an input from channel and group names.
// Duplicates are collapsed.
func NewSubscriptionInput(channels, channelGroups []string) SubscriptionInput {
	return SubscriptionInput{
		channels:      toSet(channels),
		channelGroups: toSet(channelGroups),
	}
}

// IsEmpty reports whether the input names no channels and no groups.
func (in SubscriptionInput) IsEmpty() bool {
	return len(in.channels) == 0 && len(in.channelGroups) == 0
}

// Channels returns the channel names in sorted order.
func (in SubscriptionInput) Channels() []string {
	return toSorted(in.channels)
}

// ChannelGroups returns the group names in sorted order.
func (in SubscriptionInput) ChannelGroups() []string {
	return toSorted(in.channelGroups)
}

// ContainsChannel reports whether the input names the channel.
func (in SubscriptionInput) ContainsChannel(channel string) bool {
	_, ok := in.channels[channel]
	return ok
}

// ContainsChannelGroup reports whether the input names the group.
func (in SubscriptionInput) ContainsChannelGroup(group string) bool {
	_, ok := in.channelGroups[group]
	return ok
}

// Add returns the union of both inputs.
func (in SubscriptionInput) Add(other SubscriptionInput) SubscriptionInput {
	return SubscriptionInput{
		channels:      union(in.channels, other.channels),
		channelGroups: union(in.channelGroups, other.channelGroups),
	}
}

// Sub returns the input with the other's channels and groups removed.
func (in SubscriptionInput) Sub(other SubscriptionInput) SubscriptionInput {
	return SubscriptionInput{
		channels:      difference(in.channels, other.channels),
		channelGroups: difference(in.channelGroups, other.channelGroups),
	}
}

// Equal reports whether both inputs name the same channels and groups.
func (in SubscriptionInput) Equal(other SubscriptionInput) bool {
	return setsEqual(in.channels, other.channels) &&
		setsEqual(in.channelGroups, other.channelGroups)
}

func toSet(names []string) map[string]struct{} {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		set[name] = struct{}{}
	}
	return set
}

func toSorted(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func union(a, b map[string]struct{}) map[string]struct{} {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

func difference(a, b map[string]struct{}) map[string]struct{} {
	if len(a) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(a))
	for k := range a {
		if _, ok := b[k]; !ok {
			out[k] = struct{}{}
		}
	}
	return out
}

func setsEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

package client

import (
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/chirpmesh/chirp-go/client/transport"
	"github.com/chirpmesh/chirp-go/codec"
	"github.com/chirpmesh/chirp-go/presence"
	"github.com/chirpmesh/chirp-go/subscribe"
	"github.com/chirpmesh/chirp-go/types"
)

// Client is a Chirp client: it owns the subscribe and presence engines,
// tracks the aggregate channel membership across listener subscriptions,
// and re-emits application events into both engines in the same order.
type Client struct {
	config    Config
	transport transport.Transport
	manager   *subscribe.Manager
	subEngine *subscribe.Engine
	prEngine  *presence.Engine

	mu sync.Mutex
	// channelRefs and groupRefs count how many open subscriptions use
	// each channel / group, so closing one listener only drops
	// membership nobody else holds.
	channelRefs map[string]int
	groupRefs   map[string]int
	closed      bool
}

// New builds a client from the configuration. It fails with a
// chirperr.NoKeyError when SubscribeKey is empty.
func New(config Config) (*Client, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if config.UserID == "" {
		config.UserID = uuid.NewString()
	}

	tr := config.Transport
	if tr == nil {
		tr = transport.NewHTTP(config.origin())
	}

	c := &Client{
		config:      config,
		transport:   tr,
		channelRefs: make(map[string]int),
		groupRefs:   make(map[string]int),
	}

	jsonCodec := codec.JSON{}
	log := config.Logger

	heartbeatSeconds := 0
	if config.HeartbeatInterval >= 0 {
		interval := config.HeartbeatInterval
		if interval == 0 {
			interval = presence.DefaultHeartbeatInterval
		}
		heartbeatSeconds = int(interval.Seconds())
	}

	subscribeExecutor := subscribe.NewExecutor(tr, jsonCodec, subscribe.RequestOptions{
		SubscribeKey:     config.SubscribeKey,
		UserID:           config.UserID,
		AuthKey:          config.AuthKey,
		FilterExpression: config.FilterExpression,
		Heartbeat:        heartbeatSeconds,
		Timeout:          config.subscribeTimeout(),
	})

	c.manager = subscribe.NewManager(nil)
	c.manager.ListenerBuffer = config.ListenerBuffer

	c.subEngine = subscribe.NewEngine(subscribe.EngineConfig{
		Handshake:    subscribeExecutor,
		Receive:      subscribeExecutor,
		EmitStatus:   c.manager.NotifyStatus,
		EmitMessages: c.manager.NotifyMessages,
		RetryPolicy:  config.RetryPolicy,
		Log:          log,
	})
	c.manager.SetEngine(c.subEngine)

	presenceOptions := presence.RequestOptions{
		SubscribeKey:      config.SubscribeKey,
		UserID:            config.UserID,
		AuthKey:           config.AuthKey,
		HeartbeatInterval: heartbeatSeconds,
		State:             config.PresenceState,
		Timeout:           config.requestTimeout(),
	}
	c.prEngine = presence.NewEngine(presence.EngineConfig{
		Heartbeat:         presence.NewHeartbeatExecutor(tr, jsonCodec, presenceOptions),
		Leave:             presence.NewLeaveExecutor(tr, presenceOptions),
		HeartbeatInterval: config.HeartbeatInterval,
		RetryPolicy:       config.RetryPolicy,
		Log:               log,
	})

	return c, nil
}

// Subscribe registers a listener for the channels and groups and starts
// (or extends) the subscribe loop from "now".
func (c *Client) Subscribe(channels, channelGroups []string) *subscribe.Subscription {
	return c.subscribeWith(channels, channelGroups, nil)
}

// SubscribeWithCursor is Subscribe with a catch-up cursor: delivery
// resumes from the cursor instead of "now".
func (c *Client) SubscribeWithCursor(channels, channelGroups []string, cursor types.Cursor) *subscribe.Subscription {
	return c.subscribeWith(channels, channelGroups, &cursor)
}

func (c *Client) subscribeWith(channels, channelGroups []string, cursor *types.Cursor) *subscribe.Subscription {
	sub := c.manager.NewSubscription(channels, channelGroups)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range channels {
		c.channelRefs[ch]++
	}
	for _, g := range channelGroups {
		c.groupRefs[g]++
	}
	c.postMembership(cursor)
	return sub
}

// Unsubscribe closes the listener and drops the membership no other
// listener still holds.
func (c *Client) Unsubscribe(sub *subscribe.Subscription) {
	channels := sub.Channels()
	groups := sub.ChannelGroups()
	sub.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range channels {
		if c.channelRefs[ch]--; c.channelRefs[ch] <= 0 {
			delete(c.channelRefs, ch)
		}
	}
	for _, g := range groups {
		if c.groupRefs[g]--; c.groupRefs[g] <= 0 {
			delete(c.groupRefs, g)
		}
	}
	c.postMembership(nil)
}

// UnsubscribeAll drops all membership: the subscribe loop stops and a
// final presence leave is sent.
func (c *Client) UnsubscribeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channelRefs = make(map[string]int)
	c.groupRefs = make(map[string]int)
	c.subEngine.Post(subscribe.UnsubscribeAll{})
	c.prEngine.Post(presence.LeftAll{})
}

// Disconnect pauses both loops without dropping membership.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subEngine.Post(subscribe.Disconnect{})
	c.prEngine.Post(presence.Disconnect{})
}

// Reconnect resumes both loops after a Disconnect or after the retry
// policy gave up.
func (c *Client) Reconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subEngine.Post(subscribe.Reconnect{})
	c.prEngine.Post(presence.Reconnect{})
}

// Close stops both engines. Membership is dropped first, so the final
// leave goes out before the engines shut down.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.subEngine.Post(subscribe.UnsubscribeAll{})
	c.prEngine.Post(presence.LeftAll{})
	c.mu.Unlock()

	var group errgroup.Group
	group.Go(func() error {
		c.subEngine.Stop()
		return nil
	})
	group.Go(func() error {
		c.prEngine.Stop()
		return nil
	})
	_ = group.Wait()
}

// Manager returns the subscription manager.
func (c *Client) Manager() *subscribe.Manager {
	return c.manager
}

// SubscribeEngine returns the subscribe engine handle.
func (c *Client) SubscribeEngine() *subscribe.Engine {
	return c.subEngine
}

// PresenceEngine returns the presence engine handle.
func (c *Client) PresenceEngine() *presence.Engine {
	return c.prEngine
}

// UserID returns the effective user id, including a generated one.
func (c *Client) UserID() string {
	return c.config.UserID
}

// postMembership re-emits the aggregate membership into both engines, in
// the same order every time. Callers hold c.mu.
func (c *Client) postMembership(cursor *types.Cursor) {
	if c.closed {
		return
	}

	channels := make([]string, 0, len(c.channelRefs))
	for ch := range c.channelRefs {
		channels = append(channels, ch)
	}
	groups := make([]string, 0, len(c.groupRefs))
	for g := range c.groupRefs {
		groups = append(groups, g)
	}

	if len(channels) == 0 && len(groups) == 0 {
		c.subEngine.Post(subscribe.UnsubscribeAll{})
		c.prEngine.Post(presence.LeftAll{})
		return
	}

	if cursor != nil {
		c.subEngine.Post(subscribe.SubscriptionRestored{
			Channels:      channels,
			ChannelGroups: groups,
			Cursor:        *cursor,
		})
	} else {
		c.subEngine.Post(subscribe.SubscriptionChanged{
			Channels:      channels,
			ChannelGroups: groups,
		})
	}
	if c.config.HeartbeatInterval >= 0 {
		c.prEngine.Post(presence.Joined{
			Channels:      channels,
			ChannelGroups: groups,
		})
	}
}

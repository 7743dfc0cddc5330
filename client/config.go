// Package client provides the Chirp client: configuration, construction,
// and the application surface over the subscribe and presence engines.
package client

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/chirpmesh/chirp-go/chirperr"
	"github.com/chirpmesh/chirp-go/client/transport"
	"github.com/chirpmesh/chirp-go/retry"
)

// DefaultOrigin is the production service endpoint.
const DefaultOrigin = "https://ps.chirpmesh.net"

// defaultSubscribeTimeout bounds one long poll, sized above the
// server-side hold time.
const defaultSubscribeTimeout = 310 * time.Second

// defaultRequestTimeout bounds one-shot requests such as heartbeats and
// leaves.
const defaultRequestTimeout = 10 * time.Second

// Config is the client configuration. SubscribeKey and UserID identify
// the client; everything else has working defaults.
type Config struct {
	// SubscribeKey identifies the keyset for subscribe and presence
	// operations. Required.
	SubscribeKey string
	// PublishKey is required only for publishing.
	PublishKey string
	// SecretKey is required only for access-management operations.
	SecretKey string
	// UserID identifies this client for presence. A random id is
	// generated when empty.
	UserID string
	// AuthKey grants access when access management is enabled.
	AuthKey string
	// Origin overrides the service endpoint.
	Origin string
	// HeartbeatInterval is the pause between presence heartbeats. Zero
	// selects the default; a negative value disables presence
	// heartbeats entirely.
	HeartbeatInterval time.Duration
	// RetryPolicy gates reconnection of the subscribe and presence
	// loops. The zero value never retries.
	RetryPolicy retry.Policy
	// FilterExpression limits server-side which messages are
	// delivered.
	FilterExpression string
	// PresenceState is an optional user state object announced with
	// heartbeats.
	PresenceState any
	// Transport overrides the default HTTP transport.
	Transport transport.Transport
	// SubscribeTimeout bounds one long poll. Zero selects the default.
	SubscribeTimeout time.Duration
	// RequestTimeout bounds one-shot requests. Zero selects the
	// default.
	RequestTimeout time.Duration
	// ListenerBuffer sizes listener channels. Zero selects the
	// default; a full listener channel drops updates for that
	// listener.
	ListenerBuffer int
	// Logger receives debug-level SDK activity. The zero value is
	// silent.
	Logger zerolog.Logger
}

// validate checks the configuration at build time.
func (c *Config) validate() error {
	if c.SubscribeKey == "" {
		return &chirperr.NoKeyError{Key: "subscribe_key"}
	}
	return nil
}

func (c *Config) origin() string {
	if c.Origin != "" {
		return c.Origin
	}
	return DefaultOrigin
}

func (c *Config) subscribeTimeout() time.Duration {
	if c.SubscribeTimeout > 0 {
		return c.SubscribeTimeout
	}
	return defaultSubscribeTimeout
}

func (c *Config) requestTimeout() time.Duration {
	if c.RequestTimeout > 0 {
		return c.RequestTimeout
	}
	return defaultRequestTimeout
}

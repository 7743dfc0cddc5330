package presence

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/chirpmesh/chirp-go/chirperr"
	"github.com/chirpmesh/chirp-go/client/transport"
	"github.com/chirpmesh/chirp-go/codec"
)

// RequestOptions carry the client-level settings attached to every
// presence request.
type RequestOptions struct {
	// SubscribeKey identifies the keyset.
	SubscribeKey string
	// UserID identifies this client as the occupant.
	UserID string
	// AuthKey grants access when PAM is enabled; empty disables the
	// parameter.
	AuthKey string
	// HeartbeatInterval is announced as the presence timeout, in
	// seconds.
	HeartbeatInterval int
	// State is an optional user state JSON object attached to
	// heartbeats.
	State any
	// Timeout bounds one presence request.
	Timeout time.Duration
}

// NewHeartbeatRequest builds the wire request announcing presence:
// /v2/presence/sub-key/{sk}/channel/{channels}/heartbeat.
func NewHeartbeatRequest(enc codec.Serializer, opts RequestOptions, params Params) (transport.Request, error) {
	query := map[string]string{"uuid": opts.UserID}
	if opts.HeartbeatInterval > 0 {
		query["heartbeat"] = strconv.Itoa(opts.HeartbeatInterval)
	}
	if len(params.ChannelGroups) > 0 {
		query["channel-group"] = strings.Join(params.ChannelGroups, ",")
	}
	if opts.AuthKey != "" {
		query["auth"] = opts.AuthKey
	}
	if opts.State != nil {
		state, err := enc.Serialize(opts.State)
		if err != nil {
			return transport.Request{}, err
		}
		query["state"] = string(state)
	}

	return transport.Request{
		Method: transport.MethodGet,
		Path: "/v2/presence/sub-key/" + url.PathEscape(opts.SubscribeKey) +
			"/channel/" + channelsPath(params.Channels) + "/heartbeat",
		Query: query,
	}, nil
}

// NewLeaveRequest builds the wire request withdrawing presence:
// /v2/presence/sub-key/{sk}/channel/{channels}/leave.
func NewLeaveRequest(opts RequestOptions, params Params) transport.Request {
	query := map[string]string{"uuid": opts.UserID}
	if len(params.ChannelGroups) > 0 {
		query["channel-group"] = strings.Join(params.ChannelGroups, ",")
	}
	if opts.AuthKey != "" {
		query["auth"] = opts.AuthKey
	}

	return transport.Request{
		Method: transport.MethodGet,
		Path: "/v2/presence/sub-key/" + url.PathEscape(opts.SubscribeKey) +
			"/channel/" + channelsPath(params.Channels) + "/leave",
		Query: query,
	}
}

// NewHeartbeatExecutor returns the executor announcing presence over the
// given transport.
func NewHeartbeatExecutor(tr transport.Transport, enc codec.Serializer, opts RequestOptions) HeartbeatFunc {
	return func(ctx context.Context, params Params) error {
		req, err := NewHeartbeatRequest(enc, opts, params)
		if err != nil {
			return err
		}
		return send(ctx, tr, req, opts.Timeout)
	}
}

// NewLeaveExecutor returns the executor withdrawing presence over the
// given transport.
func NewLeaveExecutor(tr transport.Transport, opts RequestOptions) LeaveFunc {
	return func(ctx context.Context, params Params) error {
		return send(ctx, tr, NewLeaveRequest(opts, params), opts.Timeout)
	}
}

func send(ctx context.Context, tr transport.Transport, req transport.Request, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := tr.Send(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return chirperr.ErrEffectCanceled
		}
		return err
	}
	if resp.Status != 200 {
		return chirperr.FromResponse(resp.Status, resp.Body)
	}
	return nil
}

func channelsPath(channels []string) string {
	if len(channels) == 0 {
		return ","
	}
	escaped := make([]string, len(channels))
	for i, ch := range channels {
		escaped[i] = url.PathEscape(ch)
	}
	return strings.Join(escaped, ",")
}

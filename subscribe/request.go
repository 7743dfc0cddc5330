package subscribe

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
	"github.com/chirpmesh/chirp-go/types"
)

// RequestOptions carry the client-level settings attached to every
// subscribe request.
type RequestOptions struct {
	// SubscribeKey identifies the keyset.
	SubscribeKey string
	// UserID identifies this client for presence.
	UserID string
	// AuthKey grants access when PAM is enabled; empty disables the
	// parameter.
	AuthKey string
	// FilterExpression limits server-side which messages are delivered.
	FilterExpression string
	// Heartbeat is the presence timeout announced on subscribe, in
	// seconds. Zero disables the parameter.
	Heartbeat int
	// Timeout bounds one long poll, including server hold time.
	Timeout time.Duration
}

// NewRequest builds the wire request for one subscribe call:
// /v2/subscribe/{key}/{channels}/0 with the cursor, group, identity and
// filter parameters.
func NewRequest(opts RequestOptions, params SubscriptionParams) transport.Request {
	cursor := types.DefaultCursor()
	if params.Cursor != nil {
		cursor = *params.Cursor
	}

	query := cursor.QueryParams()
	query["uuid"] = opts.UserID
	if len(params.ChannelGroups) > 0 {
		query["channel-group"] = strings.Join(params.ChannelGroups, ",")
	}
	if opts.AuthKey != "" {
		query["auth"] = opts.AuthKey
	}
	if opts.FilterExpression != "" {
		query["filter-expr"] = opts.FilterExpression
	}
	if opts.Heartbeat > 0 {
		query["heartbeat"] = strconv.Itoa(opts.Heartbeat)
	}

	return transport.Request{
		Method: transport.MethodGet,
		Path: "/v2/subscribe/" + url.PathEscape(opts.SubscribeKey) +
			"/" + channelsPath(params.Channels) + "/0",
		Query: query,
	}
}

// NewExecutor returns the executor performing subscribe calls over the
// given transport. The same executor serves handshakes (nil cursor) and
// receives (non-nil cursor).
func NewExecutor(tr transport.Transport, dec codec.Deserializer, opts RequestOptions) ExecuteFunc {
	return func(ctx context.Context, params SubscriptionParams) (*Result, error) {
		if opts.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
			defer cancel()
		}

		resp, err := tr.Send(ctx, NewRequest(opts, params))
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, chirperr.ErrEffectCanceled
			}
			return nil, err
		}
		if resp.Status != 200 {
			return nil, chirperr.FromResponse(resp.Status, resp.Body)
		}
		return DecodeResponse(dec, resp.Body)
	}
}

// channelsPath joins channel names for the request path. The service
// requires a lone comma when subscribing to channel groups only.
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

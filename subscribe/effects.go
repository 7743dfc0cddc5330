package subscribe

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/chirpmesh/chirp-go/chirperr"
	"github.com/chirpmesh/chirp-go/engine"
	"github.com/chirpmesh/chirp-go/retry"
	"github.com/chirpmesh/chirp-go/types"
)

// SubscriptionParams carry everything an executor needs to build one
// subscribe request.
type SubscriptionParams struct {
	// Channels and ChannelGroups to subscribe to.
	Channels      []string
	ChannelGroups []string
	// Cursor to poll from; nil requests a handshake (tt=0).
	Cursor *types.Cursor
	// Attempt counts consecutive retries, 0 for the first try.
	Attempt uint8
	// Reason is the failure which caused the retry, nil otherwise.
	Reason error
	// EffectID identifies the effect issuing the request.
	EffectID string
}

// Result is a decoded subscribe response: the cursor for the next poll
// and the updates delivered with it.
type Result struct {
	Cursor   types.Cursor
	Messages []types.Update
}

// ExecuteFunc performs one subscribe call. Implementations must map
// context cancellation to chirperr.ErrEffectCanceled.
type ExecuteFunc func(ctx context.Context, params SubscriptionParams) (*Result, error)

// EmitStatusFunc delivers a status change to listeners. It must not
// block across suspension points.
type EmitStatusFunc func(status Status)

// EmitMessagesFunc delivers received updates to listeners.
type EmitMessagesFunc func(updates []types.Update)

// EffectHandler builds runnable effects for subscribe invocations. The
// executors are shared immutable callables; the handler never clones or
// mutates them.
type EffectHandler struct {
	handshake    ExecuteFunc
	receive      ExecuteFunc
	emitStatus   EmitStatusFunc
	emitMessages EmitMessagesFunc
	retryPolicy  retry.Policy
	log          zerolog.Logger
}

// NewEffectHandler wires the subscribe effect executors.
func NewEffectHandler(
	handshake, receive ExecuteFunc,
	emitStatus EmitStatusFunc,
	emitMessages EmitMessagesFunc,
	retryPolicy retry.Policy,
	log zerolog.Logger,
) *EffectHandler {
	return &EffectHandler{
		handshake:    handshake,
		receive:      receive,
		emitStatus:   emitStatus,
		emitMessages: emitMessages,
		retryPolicy:  retryPolicy,
		log:          log,
	}
}

// Create implements engine.EffectHandler.
func (h *EffectHandler) Create(invocation Invocation) (engine.Effect[Event], bool) {
	switch inv := invocation.(type) {
	case HandshakeInvocation:
		return &handshakeEffect{handler: h, input: inv.Input, cursor: inv.Cursor}, true
	case HandshakeReconnectInvocation:
		return &handshakeReconnectEffect{
			handler:  h,
			input:    inv.Input,
			cursor:   inv.Cursor,
			attempts: inv.Attempts,
			reason:   inv.Reason,
		}, true
	case ReceiveInvocation:
		return &receiveEffect{handler: h, input: inv.Input, cursor: inv.Cursor}, true
	case ReceiveReconnectInvocation:
		return &receiveReconnectEffect{
			handler:  h,
			input:    inv.Input,
			cursor:   inv.Cursor,
			attempts: inv.Attempts,
			reason:   inv.Reason,
		}, true
	case EmitStatusInvocation:
		return &emitStatusEffect{handler: h, status: inv.Status}, true
	case EmitMessagesInvocation:
		return &emitMessagesEffect{handler: h, updates: inv.Updates}, true
	default:
		return nil, false
	}
}

type handshakeEffect struct {
	handler *EffectHandler
	input   types.SubscriptionInput
	cursor  *types.Cursor
}

func (e *handshakeEffect) ID() string { return EffectHandshake }

func (e *handshakeEffect) Run(ctx context.Context) []Event {
	if e.input.IsEmpty() {
		return []Event{UnsubscribeAll{}}
	}

	e.handler.log.Debug().
		Strs("channels", e.input.Channels()).
		Strs("channel_groups", e.input.ChannelGroups()).
		Msg("handshake")

	result, err := e.handler.handshake(ctx, SubscriptionParams{
		Channels:      e.input.Channels(),
		ChannelGroups: e.input.ChannelGroups(),
		Cursor:        e.cursor,
		EffectID:      EffectHandshake,
	})
	if err != nil {
		if canceled(ctx, err) {
			return nil
		}
		return []Event{HandshakeFailure{Reason: err}}
	}
	return []Event{HandshakeSuccess{Cursor: result.Cursor}}
}

type handshakeReconnectEffect struct {
	handler  *EffectHandler
	input    types.SubscriptionInput
	cursor   *types.Cursor
	attempts uint8
	reason   error
}

func (e *handshakeReconnectEffect) ID() string { return EffectHandshakeReconnect }

func (e *handshakeReconnectEffect) Run(ctx context.Context) []Event {
	if !e.handler.retryPolicy.RetriableError(e.attempts, e.reason) {
		return []Event{HandshakeReconnectGiveUp{Reason: e.reason}}
	}
	if e.input.IsEmpty() {
		return []Event{UnsubscribeAll{}}
	}

	e.handler.log.Debug().
		Uint8("attempt", e.attempts).
		Strs("channels", e.input.Channels()).
		Strs("channel_groups", e.input.ChannelGroups()).
		Msg("handshake reconnect")

	if delay, ok := e.handler.retryPolicy.DelayError(e.attempts, e.reason); ok && delay > 0 {
		if !sleep(ctx, delay) {
			return nil
		}
	}

	result, err := e.handler.handshake(ctx, SubscriptionParams{
		Channels:      e.input.Channels(),
		ChannelGroups: e.input.ChannelGroups(),
		Cursor:        e.cursor,
		Attempt:       e.attempts,
		Reason:        e.reason,
		EffectID:      EffectHandshakeReconnect,
	})
	if err != nil {
		if canceled(ctx, err) {
			return nil
		}
		return []Event{HandshakeReconnectFailure{Reason: err}}
	}
	return []Event{HandshakeReconnectSuccess{Cursor: result.Cursor}}
}

type receiveEffect struct {
	handler *EffectHandler
	input   types.SubscriptionInput
	cursor  types.Cursor
}

func (e *receiveEffect) ID() string { return EffectReceive }

func (e *receiveEffect) Run(ctx context.Context) []Event {
	e.handler.log.Debug().
		Str("timetoken", e.cursor.Timetoken).
		Strs("channels", e.input.Channels()).
		Strs("channel_groups", e.input.ChannelGroups()).
		Msg("receive")

	cursor := e.cursor
	result, err := e.handler.receive(ctx, SubscriptionParams{
		Channels:      e.input.Channels(),
		ChannelGroups: e.input.ChannelGroups(),
		Cursor:        &cursor,
		EffectID:      EffectReceive,
	})
	if err != nil {
		if canceled(ctx, err) {
			return nil
		}
		return []Event{ReceiveFailure{Reason: err}}
	}
	return []Event{ReceiveSuccess{Cursor: result.Cursor, Messages: result.Messages}}
}

type receiveReconnectEffect struct {
	handler  *EffectHandler
	input    types.SubscriptionInput
	cursor   types.Cursor
	attempts uint8
	reason   error
}

func (e *receiveReconnectEffect) ID() string { return EffectReceiveReconnect }

func (e *receiveReconnectEffect) Run(ctx context.Context) []Event {
	if !e.handler.retryPolicy.RetriableError(e.attempts, e.reason) {
		return []Event{ReceiveReconnectGiveUp{Reason: e.reason}}
	}

	e.handler.log.Debug().
		Uint8("attempt", e.attempts).
		Str("timetoken", e.cursor.Timetoken).
		Strs("channels", e.input.Channels()).
		Strs("channel_groups", e.input.ChannelGroups()).
		Msg("receive reconnect")

	if delay, ok := e.handler.retryPolicy.DelayError(e.attempts, e.reason); ok && delay > 0 {
		if !sleep(ctx, delay) {
			return nil
		}
	}

	cursor := e.cursor
	result, err := e.handler.receive(ctx, SubscriptionParams{
		Channels:      e.input.Channels(),
		ChannelGroups: e.input.ChannelGroups(),
		Cursor:        &cursor,
		Attempt:       e.attempts,
		Reason:        e.reason,
		EffectID:      EffectReceiveReconnect,
	})
	if err != nil {
		if canceled(ctx, err) {
			return nil
		}
		return []Event{ReceiveReconnectFailure{Reason: err}}
	}
	return []Event{ReceiveReconnectSuccess{Cursor: result.Cursor, Messages: result.Messages}}
}

type emitStatusEffect struct {
	handler *EffectHandler
	status  Status
}

func (e *emitStatusEffect) ID() string { return EffectEmitStatus }

func (e *emitStatusEffect) Run(context.Context) []Event {
	if e.handler.emitStatus != nil {
		e.handler.emitStatus(e.status)
	}
	return nil
}

type emitMessagesEffect struct {
	handler *EffectHandler
	updates []types.Update
}

func (e *emitMessagesEffect) ID() string { return EffectEmitMessages }

func (e *emitMessagesEffect) Run(context.Context) []Event {
	if e.handler.emitMessages != nil && len(e.updates) > 0 {
		e.handler.emitMessages(e.updates)
	}
	return nil
}

// canceled reports whether the effect was aborted by a state transition
// rather than failing on its own.
func canceled(ctx context.Context, err error) bool {
	return chirperr.IsCanceled(err) ||
		errors.Is(err, context.Canceled) ||
		ctx.Err() != nil
}

// sleep waits for d, returning false when ctx was cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

package presence

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

// Params carry everything an executor needs to build one presence
// request.
type Params struct {
	// Channels and ChannelGroups presence is announced or withdrawn
	// for.
	Channels      []string
	ChannelGroups []string
	// Attempt counts consecutive retries, 0 for the first try.
	Attempt uint8
	// Reason is the failure which caused the retry, nil otherwise.
	Reason error
	// EffectID identifies the effect issuing the request.
	EffectID string
}

// HeartbeatFunc performs one heartbeat announce. Implementations must map
// context cancellation to chirperr.ErrEffectCanceled.
type HeartbeatFunc func(ctx context.Context, params Params) error

// LeaveFunc performs one leave request.
type LeaveFunc func(ctx context.Context, params Params) error

// EffectHandler builds runnable effects for presence invocations.
type EffectHandler struct {
	heartbeat   HeartbeatFunc
	leave       LeaveFunc
	interval    time.Duration
	retryPolicy retry.Policy
	log         zerolog.Logger
}

// NewEffectHandler wires the presence effect executors. interval is the
// pause between successful heartbeats.
func NewEffectHandler(
	heartbeat HeartbeatFunc,
	leave LeaveFunc,
	interval time.Duration,
	retryPolicy retry.Policy,
	log zerolog.Logger,
) *EffectHandler {
	return &EffectHandler{
		heartbeat:   heartbeat,
		leave:       leave,
		interval:    interval,
		retryPolicy: retryPolicy,
		log:         log,
	}
}

// Create implements engine.EffectHandler.
func (h *EffectHandler) Create(invocation Invocation) (engine.Effect[Event], bool) {
	switch inv := invocation.(type) {
	case HeartbeatInvocation:
		return &heartbeatEffect{handler: h, input: inv.Input}, true
	case DelayedHeartbeatInvocation:
		return &delayedHeartbeatEffect{
			handler:  h,
			input:    inv.Input,
			attempts: inv.Attempts,
			reason:   inv.Reason,
		}, true
	case WaitInvocation:
		return &waitEffect{handler: h}, true
	case LeaveInvocation:
		return &leaveEffect{handler: h, input: inv.Input}, true
	default:
		return nil, false
	}
}

type heartbeatEffect struct {
	handler *EffectHandler
	input   types.SubscriptionInput
}

func (e *heartbeatEffect) ID() string { return EffectHeartbeat }

func (e *heartbeatEffect) Run(ctx context.Context) []Event {
	e.handler.log.Debug().
		Strs("channels", e.input.Channels()).
		Strs("channel_groups", e.input.ChannelGroups()).
		Msg("heartbeat")

	err := e.handler.heartbeat(ctx, Params{
		Channels:      e.input.Channels(),
		ChannelGroups: e.input.ChannelGroups(),
		EffectID:      EffectHeartbeat,
	})
	if err != nil {
		if canceled(ctx, err) {
			return nil
		}
		return []Event{HeartbeatFailure{Reason: err}}
	}
	return []Event{HeartbeatSuccess{}}
}

type delayedHeartbeatEffect struct {
	handler  *EffectHandler
	input    types.SubscriptionInput
	attempts uint8
	reason   error
}

func (e *delayedHeartbeatEffect) ID() string { return EffectDelayedHeartbeat }

func (e *delayedHeartbeatEffect) Run(ctx context.Context) []Event {
	if !e.handler.retryPolicy.RetriableError(e.attempts, e.reason) {
		return []Event{HeartbeatGiveUp{Reason: e.reason}}
	}

	e.handler.log.Debug().
		Uint8("attempt", e.attempts).
		Strs("channels", e.input.Channels()).
		Msg("heartbeat reconnect")

	if delay, ok := e.handler.retryPolicy.DelayError(e.attempts, e.reason); ok && delay > 0 {
		if !sleep(ctx, delay) {
			return nil
		}
	}

	err := e.handler.heartbeat(ctx, Params{
		Channels:      e.input.Channels(),
		ChannelGroups: e.input.ChannelGroups(),
		Attempt:       e.attempts,
		Reason:        e.reason,
		EffectID:      EffectDelayedHeartbeat,
	})
	if err != nil {
		if canceled(ctx, err) {
			return nil
		}
		return []Event{HeartbeatFailure{Reason: err}}
	}
	return []Event{HeartbeatSuccess{}}
}

type waitEffect struct {
	handler *EffectHandler
}

func (e *waitEffect) ID() string { return EffectWait }

func (e *waitEffect) Run(ctx context.Context) []Event {
	if !sleep(ctx, e.handler.interval) {
		return nil
	}
	return []Event{TimesUp{}}
}

type leaveEffect struct {
	handler *EffectHandler
	input   types.SubscriptionInput
}

func (e *leaveEffect) ID() string { return EffectLeave }

func (e *leaveEffect) Run(ctx context.Context) []Event {
	e.handler.log.Debug().
		Strs("channels", e.input.Channels()).
		Strs("channel_groups", e.input.ChannelGroups()).
		Msg("leave")

	err := e.handler.leave(ctx, Params{
		Channels:      e.input.Channels(),
		ChannelGroups: e.input.ChannelGroups(),
		EffectID:      EffectLeave,
	})
	if err != nil && !canceled(ctx, err) {
		// A failed leave only shortens the server-side timeout window;
		// nothing to recover.
		e.handler.log.Warn().Err(err).Msg("leave request failed")
	}
	return nil
}

func canceled(ctx context.Context, err error) bool {
	return chirperr.IsCanceled(err) ||
		errors.Is(err, context.Canceled) ||
		ctx.Err() != nil
}

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

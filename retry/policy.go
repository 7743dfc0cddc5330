// Package retry implements the request retry policy which governs whether
// a failed service call is retried and with what delay.
package retry

import (
	"strconv"
	"time"

	"github.com/chirpmesh/chirp-go/chirperr"
	"github.com/chirpmesh/chirp-go/client/transport"
)

type kind int

const (
	kindNone kind = iota
	kindLinear
	kindExponential
)

// Policy decides retry eligibility and delay for a failed attempt. The
// zero value never retries.
type Policy struct {
	kind kind

	// delay is the fixed delay of a linear policy, in seconds.
	delay uint32
	// minDelay and maxDelay bound an exponential policy, in seconds.
	minDelay uint32
	maxDelay uint32
	// maxRetry caps the number of attempts for a linear or exponential
	// policy.
	maxRetry uint8
}

// None returns the policy that never retries. It is the default.
func None() Policy {
	return Policy{}
}

// Linear returns a policy retrying up to maxRetry times with the same
// delay between attempts.
func Linear(delaySeconds uint32, maxRetry uint8) Policy {
	return Policy{kind: kindLinear, delay: delaySeconds, maxRetry: maxRetry}
}

// Exponential returns a policy whose delay for attempt n is
// min(minDelay^n, maxDelay) seconds, retrying up to maxRetry times.
//
// Note the base of the exponentiation is minDelay itself, not 2: with
// minDelay 8 the second attempt waits min(64, maxDelay) seconds.
func Exponential(minDelaySeconds, maxDelaySeconds uint32, maxRetry uint8) Policy {
	return Policy{
		kind:     kindExponential,
		minDelay: minDelaySeconds,
		maxDelay: maxDelaySeconds,
		maxRetry: maxRetry,
	}
}

// IsNone reports whether the policy never retries.
func (p Policy) IsNone() bool { return p.kind == kindNone }

// Retriable reports whether the given attempt may be retried for a
// response with the given HTTP status code.
//
// 429 is always considered retriable, regardless of the attempt count;
// the delay decides whether a retry actually happens. 5xx is retriable
// while attempt does not exceed the policy's retry cap. Everything else
// is final.
func (p Policy) Retriable(attempt uint8, status int) bool {
	switch {
	case status == 429:
		return true
	case status >= 500 && status <= 599:
		return p.kind != kindNone && attempt <= p.maxRetry
	default:
		return false
	}
}

// Delay returns the delay to wait before retrying the given attempt, based
// on the failed response. The second return value is false when the
// request must not be retried.
func (p Policy) Delay(attempt uint8, resp *transport.Response) (time.Duration, bool) {
	if resp == nil {
		return 0, false
	}
	switch {
	case resp.Status == 429:
		// The service asked for a specific delay. The None policy
		// ignores it and stays final.
		if p.kind == kindNone {
			return 0, false
		}
		value, ok := resp.Header("Retry-After")
		if !ok {
			return 0, false
		}
		seconds, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	case resp.Status >= 500 && resp.Status <= 599:
		if !p.Retriable(attempt, resp.Status) {
			return 0, false
		}
		return p.backoff(attempt), true
	default:
		return 0, false
	}
}

// RetriableError reports whether the given attempt may be retried after a
// request failed with err.
//
// The None policy never retries. Otherwise API errors follow the status
// rules of Retriable, and transport failures are retried while the policy
// has attempts left. Cancellation and decoding failures are final.
func (p Policy) RetriableError(attempt uint8, err error) bool {
	if p.kind == kindNone || err == nil || chirperr.IsCanceled(err) {
		return false
	}
	if status := chirperr.StatusCode(err); status != 0 {
		return p.Retriable(attempt, status)
	}
	if _, ok := err.(*chirperr.DeserializationError); ok {
		return false
	}
	return p.kind != kindNone && attempt <= p.maxRetry
}

// DelayError returns the delay before retrying after err. Unlike Delay no
// response headers are available, so a 429 falls back to the policy's own
// backoff schedule.
func (p Policy) DelayError(attempt uint8, err error) (time.Duration, bool) {
	if !p.RetriableError(attempt, err) {
		return 0, false
	}
	return p.backoff(attempt), true
}

func (p Policy) backoff(attempt uint8) time.Duration {
	switch p.kind {
	case kindLinear:
		return time.Duration(p.delay) * time.Second
	case kindExponential:
		return time.Duration(p.exponentialDelay(attempt)) * time.Second
	default:
		return 0
	}
}

// exponentialDelay computes min(minDelay^attempt, maxDelay) without
// overflowing.
func (p Policy) exponentialDelay(attempt uint8) uint32 {
	if p.minDelay == 0 {
		return 0
	}
	result := uint64(1)
	for i := uint8(0); i < attempt; i++ {
		result *= uint64(p.minDelay)
		if result >= uint64(p.maxDelay) {
			return p.maxDelay
		}
	}
	if result > uint64(p.maxDelay) {
		return p.maxDelay
	}
	return uint32(result)
}

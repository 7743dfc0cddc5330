package retry_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chirpmesh/chirp-go/chirperr"
	"github.com/chirpmesh/chirp-go/client/transport"
	"github.com/chirpmesh/chirp-go/retry"
)

func clientErrorResponse() *transport.Response {
	return &transport.Response{Status: 400}
}

func serverErrorResponse() *transport.Response {
	return &transport.Response{Status: 500}
}

func tooManyRequestsResponse() *transport.Response {
	return &transport.Response{
		Status:  429,
		Headers: map[string]string{"Retry-After": "150"},
	}
}

var _ = Describe("Policy", func() {
	Describe("the default", func() {
		It("never retries", func() {
			var policy retry.Policy
			Expect(policy.IsNone()).To(BeTrue())
		})
	})

	Describe("None", func() {
		policy := retry.None()

		It("returns no delay for a client error", func() {
			_, ok := policy.Delay(1, clientErrorResponse())
			Expect(ok).To(BeFalse())
		})

		It("returns no delay for a server error", func() {
			_, ok := policy.Delay(1, serverErrorResponse())
			Expect(ok).To(BeFalse())
		})

		It("ignores Retry-After on 429", func() {
			_, ok := policy.Delay(1, tooManyRequestsResponse())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Linear", func() {
		It("returns no delay for a client error", func() {
			policy := retry.Linear(10, 5)
			_, ok := policy.Delay(1, clientErrorResponse())
			Expect(ok).To(BeFalse())
		})

		It("returns the same delay for every attempt on a server error", func() {
			policy := retry.Linear(10, 5)

			delay, ok := policy.Delay(1, serverErrorResponse())
			Expect(ok).To(BeTrue())
			Expect(delay).To(Equal(10 * time.Second))

			delay, ok = policy.Delay(2, serverErrorResponse())
			Expect(ok).To(BeTrue())
			Expect(delay).To(Equal(10 * time.Second))
		})

		It("stops once the attempt exceeds the retry cap", func() {
			policy := retry.Linear(10, 2)

			_, ok := policy.Delay(2, serverErrorResponse())
			Expect(ok).To(BeTrue())

			_, ok = policy.Delay(3, serverErrorResponse())
			Expect(ok).To(BeFalse())
		})

		It("honors the service delay on 429", func() {
			policy := retry.Linear(10, 2)
			delay, ok := policy.Delay(2, tooManyRequestsResponse())
			Expect(ok).To(BeTrue())
			Expect(delay).To(Equal(150 * time.Second))
		})
	})

	Describe("Exponential", func() {
		It("returns no delay for a client error", func() {
			policy := retry.Exponential(8, 100, 2)
			_, ok := policy.Delay(1, clientErrorResponse())
			Expect(ok).To(BeFalse())
		})

		It("raises the minimum delay to the attempt", func() {
			policy := retry.Exponential(8, 100, 2)

			delay, ok := policy.Delay(1, serverErrorResponse())
			Expect(ok).To(BeTrue())
			Expect(delay).To(Equal(8 * time.Second))

			delay, ok = policy.Delay(2, serverErrorResponse())
			Expect(ok).To(BeTrue())
			Expect(delay).To(Equal(64 * time.Second))
		})

		It("stops once the attempt exceeds the retry cap", func() {
			policy := retry.Exponential(8, 100, 2)

			_, ok := policy.Delay(2, serverErrorResponse())
			Expect(ok).To(BeTrue())

			_, ok = policy.Delay(3, serverErrorResponse())
			Expect(ok).To(BeFalse())
		})

		It("caps the delay at the maximum", func() {
			policy := retry.Exponential(8, 50, 5)

			delay, ok := policy.Delay(1, serverErrorResponse())
			Expect(ok).To(BeTrue())
			Expect(delay).To(Equal(8 * time.Second))

			delay, ok = policy.Delay(2, serverErrorResponse())
			Expect(ok).To(BeTrue())
			Expect(delay).To(Equal(50 * time.Second))
		})

		It("honors the service delay on 429", func() {
			policy := retry.Exponential(10, 100, 2)
			delay, ok := policy.Delay(2, tooManyRequestsResponse())
			Expect(ok).To(BeTrue())
			Expect(delay).To(Equal(150 * time.Second))
		})
	})

	Describe("Retriable", func() {
		It("treats 429 as retriable regardless of attempts", func() {
			Expect(retry.None().Retriable(200, 429)).To(BeTrue())
			Expect(retry.Linear(1, 1).Retriable(200, 429)).To(BeTrue())
		})

		It("gates 5xx by the retry cap", func() {
			policy := retry.Linear(1, 2)
			Expect(policy.Retriable(2, 500)).To(BeTrue())
			Expect(policy.Retriable(3, 500)).To(BeFalse())
		})

		It("never retries other statuses", func() {
			policy := retry.Linear(1, 2)
			Expect(policy.Retriable(1, 400)).To(BeFalse())
			Expect(policy.Retriable(1, 200)).To(BeFalse())
		})
	})

	Describe("RetriableError", func() {
		It("retries transport failures while attempts remain", func() {
			policy := retry.Linear(0, 2)
			err := &chirperr.TransportError{Op: "subscribe"}
			Expect(policy.RetriableError(1, err)).To(BeTrue())
			Expect(policy.RetriableError(2, err)).To(BeTrue())
			Expect(policy.RetriableError(3, err)).To(BeFalse())
		})

		It("never retries transport failures under None", func() {
			err := &chirperr.TransportError{Op: "subscribe"}
			Expect(retry.None().RetriableError(1, err)).To(BeFalse())
		})

		It("follows the status rules for API errors", func() {
			policy := retry.Linear(0, 2)
			Expect(policy.RetriableError(1, &chirperr.APIError{Status: 500})).To(BeTrue())
			Expect(policy.RetriableError(1, &chirperr.APIError{Status: 400})).To(BeFalse())
		})

		It("never retries a cancelled effect", func() {
			policy := retry.Linear(0, 2)
			Expect(policy.RetriableError(1, chirperr.ErrEffectCanceled)).To(BeFalse())
		})

		It("never retries decode failures", func() {
			policy := retry.Linear(0, 2)
			err := &chirperr.DeserializationError{Message: "bad json"}
			Expect(policy.RetriableError(1, err)).To(BeFalse())
		})
	})
})

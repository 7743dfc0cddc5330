package chirperr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chirpmesh/chirp-go/chirperr"
)

func TestFromResponseParsesErrorEnvelope(t *testing.T) {
	body := []byte(`{
		"status": 400,
		"message": "Invalid subscribe key",
		"service": "Subscribe",
		"error": {"details": [{"message": "Key format invalid"}]},
		"channels": ["ch1"],
		"channel-groups": ["gr1"]
	}`)

	apiErr := chirperr.FromResponse(400, body)
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "Invalid subscribe key", apiErr.Message)
	assert.Equal(t, "Subscribe", apiErr.Service)
	assert.Equal(t, []string{"Key format invalid"}, apiErr.Details)
	assert.Equal(t, []string{"ch1"}, apiErr.AffectedChannels)
	assert.Equal(t, []string{"gr1"}, apiErr.AffectedChannelGroups)
	assert.Contains(t, apiErr.Error(), "Invalid subscribe key")
}

func TestFromResponseFallsBackToRawBody(t *testing.T) {
	apiErr := chirperr.FromResponse(502, []byte("bad gateway"))
	assert.Equal(t, 502, apiErr.Status)
	assert.Equal(t, "bad gateway", apiErr.Message)
}

func TestStatusCodeExtraction(t *testing.T) {
	wrapped := &chirperr.TransportError{
		Op:  "subscribe",
		Err: errors.New("refused"),
	}
	assert.Equal(t, 0, chirperr.StatusCode(wrapped))
	assert.Equal(t, 429, chirperr.StatusCode(&chirperr.APIError{Status: 429}))
}

func TestTransportErrorUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := &chirperr.TransportError{Op: "receive", Err: cause}
	require.ErrorIs(t, err, cause)
	assert.True(t, chirperr.IsTransport(err))
}

func TestCancellationSentinel(t *testing.T) {
	assert.True(t, chirperr.IsCanceled(chirperr.ErrEffectCanceled))
	assert.False(t, chirperr.IsCanceled(errors.New("other")))
}

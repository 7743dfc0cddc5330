package subscribe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chirpmesh/chirp-go/codec"
	"github.com/chirpmesh/chirp-go/subscribe"
	"github.com/chirpmesh/chirp-go/types"
)

func TestDecodeResponseMessages(t *testing.T) {
	body := []byte(`{
		"t": {"t": "16890000000000000", "r": 21},
		"m": [
			{
				"a": "1", "f": 0, "i": "user-2", "e": 0,
				"p": {"t": "16889999990000000", "r": 21},
				"k": "sub-key", "c": "ch1", "b": "ch1",
				"d": {"text": "hello"}
			},
			{
				"a": "1", "f": 0, "i": "user-3", "e": 1,
				"p": {"t": "16889999991000000", "r": 21},
				"k": "sub-key", "c": "ch2", "b": "gr1",
				"d": "typing"
			}
		]
	}`)

	result, err := subscribe.DecodeResponse(codec.JSON{}, body)
	require.NoError(t, err)

	assert.Equal(t, types.Cursor{Timetoken: "16890000000000000", Region: 21}, result.Cursor)
	require.Len(t, result.Messages, 2)

	message, isMessage := result.Messages[0].(types.Message)
	require.True(t, isMessage)
	assert.Equal(t, "ch1", message.Channel)
	assert.Equal(t, "user-2", message.Sender)
	assert.Equal(t, "16889999990000000", message.Timetoken)
	assert.JSONEq(t, `{"text": "hello"}`, string(message.Data))

	signal, isSignal := result.Messages[1].(types.Signal)
	require.True(t, isSignal)
	assert.Equal(t, "ch2", signal.Channel)
	// A channel-group delivery names the group in the subscription
	// field.
	assert.Equal(t, "gr1", signal.Subscription)
}

func TestDecodeResponsePresence(t *testing.T) {
	body := []byte(`{
		"t": {"t": "16890000000000000", "r": 1},
		"m": [{
			"a": "1", "f": 0, "e": 0,
			"p": {"t": "16889999990000000", "r": 1},
			"k": "sub-key", "c": "ch1-pnpres", "b": "ch1-pnpres",
			"d": {"action": "join", "timestamp": 1689000000, "uuid": "user-2", "occupancy": 2}
		}]
	}`)

	result, err := subscribe.DecodeResponse(codec.JSON{}, body)
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)

	pres, isPresence := result.Messages[0].(types.PresenceUpdate)
	require.True(t, isPresence)
	assert.Equal(t, types.PresenceJoin, pres.Action)
	// The presence suffix is stripped from the channel.
	assert.Equal(t, "ch1", pres.Channel)
	assert.Equal(t, "user-2", pres.UserID)
	assert.Equal(t, 2, pres.Occupancy)
	assert.Equal(t, int64(1689000000), pres.Timestamp)
}

func TestDecodeResponseInterval(t *testing.T) {
	body := []byte(`{
		"t": {"t": "16890000000000000", "r": 1},
		"m": [{
			"p": {"t": "16889999990000000", "r": 1},
			"c": "ch1-pnpres", "b": "ch1-pnpres",
			"d": {"timestamp": 1689000000, "occupancy": 3, "join": ["user-4"], "leave": ["user-5"]}
		}]
	}`)

	result, err := subscribe.DecodeResponse(codec.JSON{}, body)
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)

	pres := result.Messages[0].(types.PresenceUpdate)
	// A missing action means an interval occupancy report.
	assert.Equal(t, types.PresenceInterval, pres.Action)
	assert.Equal(t, []string{"user-4"}, pres.Join)
	assert.Equal(t, []string{"user-5"}, pres.Leave)
}

func TestDecodeResponseFileAndActions(t *testing.T) {
	body := []byte(`{
		"t": {"t": "16890000000000000", "r": 1},
		"m": [
			{
				"i": "user-2", "e": 3,
				"p": {"t": "16889999990000000", "r": 1},
				"c": "ch1", "b": "ch1",
				"d": {"event": "added", "data": {
					"messageTimetoken": "16889999980000000",
					"actionTimetoken": "16889999990000000",
					"type": "reaction", "value": "smile"
				}}
			},
			{
				"i": "user-2", "e": 4,
				"p": {"t": "16889999991000000", "r": 1},
				"c": "ch1", "b": "ch1",
				"d": {"message": "report", "file": {"id": "f-1", "name": "report.pdf"}}
			}
		]
	}`)

	result, err := subscribe.DecodeResponse(codec.JSON{}, body)
	require.NoError(t, err)
	require.Len(t, result.Messages, 2)

	action, isAction := result.Messages[0].(types.MessageActionUpdate)
	require.True(t, isAction)
	assert.Equal(t, "reaction", action.Kind)
	assert.Equal(t, "smile", action.Value)
	assert.Equal(t, "16889999980000000", action.MessageTimetoken)

	file, isFile := result.Messages[1].(types.FileUpdate)
	require.True(t, isFile)
	assert.Equal(t, "f-1", file.ID)
	assert.Equal(t, "report.pdf", file.Name)
	assert.Equal(t, "report", file.Message)
}

func TestDecodeResponseMalformedBody(t *testing.T) {
	_, err := subscribe.DecodeResponse(codec.JSON{}, []byte(`{"t": [`))
	require.Error(t, err)
}

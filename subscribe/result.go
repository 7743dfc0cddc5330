package subscribe

import (
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/chirpmesh/chirp-go/codec"
	"github.com/chirpmesh/chirp-go/types"
)

// presenceSuffix marks the shadow channel presence events arrive on.
const presenceSuffix = "-pnpres"

// Message type discriminator values of the `e` envelope field.
const (
	wireTypeMessage = iota
	wireTypeSignal
	wireTypeObject
	wireTypeMessageAction
	wireTypeFile
)

// subscribeBody is the raw subscribe response:
// {"t":{"t":"<tt>","r":<region>},"m":[envelope, ...]}.
type subscribeBody struct {
	Cursor   wireCursor     `json:"t"`
	Messages []wireEnvelope `json:"m"`
}

type wireCursor struct {
	Timetoken string `json:"t"`
	Region    uint32 `json:"r"`
}

// wireEnvelope is one entry of the `m` array.
type wireEnvelope struct {
	Shard        string          `json:"a"`
	Flags        int             `json:"f"`
	Sender       string          `json:"i"`
	Published    wireCursor      `json:"p"`
	SubscribeKey string          `json:"k"`
	Channel      string          `json:"c"`
	Payload      json.RawMessage `json:"d"`
	Subscription string          `json:"b"`
	MessageType  int             `json:"e"`
}

type wirePresence struct {
	Action    string          `json:"action"`
	Timestamp int64           `json:"timestamp"`
	UserID    string          `json:"uuid"`
	Occupancy int             `json:"occupancy"`
	Data      json.RawMessage `json:"data"`
	Join      []string        `json:"join"`
	Leave     []string        `json:"leave"`
	Timeout   []string        `json:"timeout"`
}

type wireObject struct {
	Event string          `json:"event"`
	Kind  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
}

type wireMessageAction struct {
	Event string `json:"event"`
	Data  struct {
		MessageTimetoken string `json:"messageTimetoken"`
		ActionTimetoken  string `json:"actionTimetoken"`
		Kind             string `json:"type"`
		Value            string `json:"value"`
	} `json:"data"`
}

type wireFile struct {
	Message string `json:"message"`
	File    struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"file"`
}

// DecodeResponse decodes a subscribe response body into the next cursor
// and the updates it delivered.
func DecodeResponse(dec codec.Deserializer, body []byte) (*Result, error) {
	var raw subscribeBody
	if err := dec.Deserialize(body, &raw); err != nil {
		return nil, err
	}

	result := &Result{
		Cursor: types.Cursor{
			Timetoken: raw.Cursor.Timetoken,
			Region:    raw.Cursor.Region,
		},
	}
	if result.Cursor.Timetoken == "" {
		result.Cursor.Timetoken = "0"
	}

	for _, envelope := range raw.Messages {
		update, err := decodeEnvelope(dec, envelope)
		if err != nil {
			return nil, err
		}
		result.Messages = append(result.Messages, update)
	}
	return result, nil
}

func decodeEnvelope(dec codec.Deserializer, env wireEnvelope) (types.Update, error) {
	if strings.HasSuffix(env.Channel, presenceSuffix) {
		return decodePresence(dec, env)
	}

	switch env.MessageType {
	case wireTypeSignal:
		return types.Signal{
			Channel:      env.Channel,
			Subscription: env.Subscription,
			Sender:       env.Sender,
			Timetoken:    env.Published.Timetoken,
			Data:         env.Payload,
		}, nil
	case wireTypeObject:
		var obj wireObject
		if err := dec.Deserialize(env.Payload, &obj); err != nil {
			return nil, err
		}
		return types.ObjectUpdate{
			Channel:      env.Channel,
			Subscription: env.Subscription,
			Event:        obj.Event,
			Kind:         obj.Kind,
			Data:         obj.Data,
			Timestamp:    parseTimestamp(env.Published.Timetoken),
		}, nil
	case wireTypeMessageAction:
		var action wireMessageAction
		if err := dec.Deserialize(env.Payload, &action); err != nil {
			return nil, err
		}
		return types.MessageActionUpdate{
			Channel:          env.Channel,
			Subscription:     env.Subscription,
			Sender:           env.Sender,
			Event:            action.Event,
			MessageTimetoken: action.Data.MessageTimetoken,
			ActionTimetoken:  action.Data.ActionTimetoken,
			Kind:             action.Data.Kind,
			Value:            action.Data.Value,
		}, nil
	case wireTypeFile:
		var file wireFile
		if err := dec.Deserialize(env.Payload, &file); err != nil {
			return nil, err
		}
		return types.FileUpdate{
			Channel:      env.Channel,
			Subscription: env.Subscription,
			Sender:       env.Sender,
			Timetoken:    env.Published.Timetoken,
			Message:      file.Message,
			ID:           file.File.ID,
			Name:         file.File.Name,
		}, nil
	case wireTypeMessage:
		fallthrough
	default:
		return types.Message{
			Channel:      env.Channel,
			Subscription: env.Subscription,
			Sender:       env.Sender,
			Timetoken:    env.Published.Timetoken,
			Data:         env.Payload,
		}, nil
	}
}

func decodePresence(dec codec.Deserializer, env wireEnvelope) (types.Update, error) {
	var pres wirePresence
	if err := dec.Deserialize(env.Payload, &pres); err != nil {
		return nil, err
	}

	action := types.PresenceAction(pres.Action)
	if pres.Action == "" {
		action = types.PresenceInterval
	}

	return types.PresenceUpdate{
		Action:       action,
		Channel:      strings.TrimSuffix(env.Channel, presenceSuffix),
		Subscription: strings.TrimSuffix(env.Subscription, presenceSuffix),
		Timestamp:    pres.Timestamp,
		UserID:       pres.UserID,
		Occupancy:    pres.Occupancy,
		Join:         pres.Join,
		Leave:        pres.Leave,
		Timeout:      pres.Timeout,
		State:        pres.Data,
	}, nil
}

func parseTimestamp(timetoken string) int64 {
	ts, err := strconv.ParseInt(timetoken, 10, 64)
	if err != nil {
		return 0
	}
	// Timetokens count 100ns ticks; scale down to Unix seconds.
	return ts / 10_000_000
}

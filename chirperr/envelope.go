package chirperr

import (
	json "github.com/goccy/go-json"
)

// errorEnvelope mirrors the error body the service attaches to 4xx / 5xx
// responses.
type errorEnvelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Service string `json:"service"`
	Error   struct {
		Details []struct {
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
	Channels      []string `json:"channels"`
	ChannelGroups []string `json:"channel-groups"`
}

// FromResponse maps a non-2xx response body to an APIError. A body that is
// not the structured error envelope still yields an APIError carrying the
// status and raw body as the message.
func FromResponse(status int, body []byte) *APIError {
	var env errorEnvelope
	if len(body) > 0 && json.Unmarshal(body, &env) == nil && env.Message != "" {
		details := make([]string, 0, len(env.Error.Details))
		for _, d := range env.Error.Details {
			details = append(details, d.Message)
		}
		st := env.Status
		if st == 0 {
			st = status
		}
		return &APIError{
			Status:                st,
			Message:               env.Message,
			Service:               env.Service,
			Details:               details,
			AffectedChannels:      env.Channels,
			AffectedChannelGroups: env.ChannelGroups,
		}
	}
	return &APIError{Status: status, Message: string(body)}
}

package pubsub

import (
	"encoding/json"

	"github.com/Alwanly/service-endpoint-dispatch/pkg/failure"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// EndpointEvent announces a change to the endpoint store so other instances can resync.
type EndpointEvent struct {
	Action     string `json:"action"`
	EndpointID string `json:"endpoint_id"`
	Source     string `json:"source,omitempty"`
}

func (e EndpointEvent) Encode() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeEvent parses a message payload published by Encode.
func DecodeEvent(msg Message) (EndpointEvent, error) {
	var e EndpointEvent
	if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
		return EndpointEvent{}, failure.NewParseError(err.Error(), "channel "+msg.Channel, err)
	}
	return e, nil
}

package dto

import (
	"encoding/json"

	"github.com/Alwanly/service-endpoint-dispatch/pkg/failure"
)

// InvokeRequest calls a registered endpoint through the dispatcher
type InvokeRequest struct {
	// Method overrides the registered method
	Method  string            `json:"method,omitempty" example:"GET"`
	Headers map[string]string `json:"headers,omitempty"`
	// Body is sent as JSON for POST and PUT
	Body json.RawMessage `json:"body,omitempty" swaggertype:"object"`
}

// InvokeResponse carries the upstream JSON payload as received
type InvokeResponse struct {
	EndpointID string          `json:"endpoint_id" example:"users"`
	Data       json.RawMessage `json:"data" swaggertype:"object"`
}

// FailureResponse describes a classified failure
type FailureResponse struct {
	Kind              string   `json:"kind" example:"NetworkError"`
	Status            int      `json:"status,omitempty" example:"404"`
	RequestID         string   `json:"request_id,omitempty"`
	Detail            string   `json:"detail,omitempty" example:"Request timed out"`
	Fields            []string `json:"fields,omitempty"`
	RetryAfterSeconds int      `json:"retry_after_seconds,omitempty"`
}

// NewFailureResponse returns nil for errors that are not failures.
func NewFailureResponse(err error) *FailureResponse {
	f, ok := failure.As(err)
	if !ok {
		return nil
	}

	res := &FailureResponse{Kind: f.Kind().String()}
	switch e := f.(type) {
	case *failure.APIError:
		res.Status = e.Status
		res.RequestID = e.RequestID
	case *failure.NetworkError:
		res.Detail = e.Detail
	case *failure.ValidationError:
		res.Fields = e.Fields
	case *failure.RateLimitError:
		res.RetryAfterSeconds = e.RetryAfterSeconds
	}
	return res
}

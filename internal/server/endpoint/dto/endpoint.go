package dto

import (
	"maps"

	"github.com/Alwanly/service-endpoint-dispatch/internal/models"
)

// CreateEndpointRequest registers a new endpoint
type CreateEndpointRequest struct {
	ID      string            `json:"id" example:"users"`
	Name    string            `json:"name" example:"Users API"`
	URL     string            `json:"url" example:"https://api.example.com/users"`
	Method  string            `json:"method,omitempty" example:"GET"`
	Headers map[string]string `json:"headers,omitempty"`
}

func (r CreateEndpointRequest) ToModel() models.Endpoint {
	return models.Endpoint{
		ID:      r.ID,
		Name:    r.Name,
		URL:     r.URL,
		Method:  r.Method,
		Headers: maps.Clone(r.Headers),
	}
}

// UpdateEndpointRequest changes only the fields that are present
type UpdateEndpointRequest struct {
	Name    *string            `json:"name,omitempty" example:"Users API v2"`
	URL     *string            `json:"url,omitempty" example:"https://api.example.com/v2/users"`
	Method  *string            `json:"method,omitempty" example:"POST"`
	Headers *map[string]string `json:"headers,omitempty"`
}

func (r UpdateEndpointRequest) ToModel() models.EndpointUpdate {
	return models.EndpointUpdate{
		Name:    r.Name,
		URL:     r.URL,
		Method:  r.Method,
		Headers: r.Headers,
	}
}

// EndpointResponse is the public view of a registered endpoint
type EndpointResponse struct {
	ID      string            `json:"id" example:"users"`
	Name    string            `json:"name" example:"Users API"`
	URL     string            `json:"url" example:"https://api.example.com/users"`
	Method  string            `json:"method" example:"GET"`
	Headers map[string]string `json:"headers,omitempty"`
}

func NewEndpointResponse(ep models.Endpoint) EndpointResponse {
	return EndpointResponse{
		ID:      ep.ID,
		Name:    ep.Name,
		URL:     ep.URL,
		Method:  ep.Method,
		Headers: ep.Headers,
	}
}

// ListEndpointsResponse lists registered endpoints ordered by ID
type ListEndpointsResponse struct {
	Endpoints []EndpointResponse `json:"endpoints"`
	Count     int                `json:"count" example:"1"`
}

// DeleteEndpointResponse confirms a removal
type DeleteEndpointResponse struct {
	ID      string `json:"id" example:"users"`
	Removed bool   `json:"removed" example:"true"`
}

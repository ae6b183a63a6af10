package models

import (
	"maps"
	"time"
)

// Endpoint is a registered HTTP endpoint. ID is immutable once registered.
type Endpoint struct {
	ID        string            `json:"id" gorm:"primaryKey;column:id" validate:"required,max=128"`
	Name      string            `json:"name" gorm:"column:name" validate:"required"`
	URL       string            `json:"url" gorm:"column:url" validate:"required,http_url"`
	Method    string            `json:"method" gorm:"column:method" validate:"required,oneof=GET POST PUT PATCH DELETE HEAD OPTIONS"`
	Headers   map[string]string `json:"headers,omitempty" gorm:"column:headers;serializer:json"`
	CreatedAt time.Time         `json:"-" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `json:"-" gorm:"column:updated_at;autoUpdateTime"`
}

func (Endpoint) TableName() string {
	return "endpoints"
}

// Clone returns a copy that shares no map with e.
func (e Endpoint) Clone() Endpoint {
	e.Headers = maps.Clone(e.Headers)
	return e
}

// EndpointUpdate is a partial update; nil fields are left untouched.
type EndpointUpdate struct {
	Name    *string            `json:"name,omitempty"`
	URL     *string            `json:"url,omitempty"`
	Method  *string            `json:"method,omitempty"`
	Headers *map[string]string `json:"headers,omitempty"`
}

// Apply merges the present fields of u into e.
func (u EndpointUpdate) Apply(e Endpoint) Endpoint {
	if u.Name != nil {
		e.Name = *u.Name
	}
	if u.URL != nil {
		e.URL = *u.URL
	}
	if u.Method != nil {
		e.Method = *u.Method
	}
	if u.Headers != nil {
		e.Headers = maps.Clone(*u.Headers)
	}
	return e
}

// Package registry holds the in-memory set of named endpoints the dispatcher
// resolves identifiers against.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Alwanly/service-endpoint-dispatch/internal/models"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/logger"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/validator"
)

var (
	// ErrEndpointExists is returned by Add when the identifier is already registered.
	ErrEndpointExists = errors.New("endpoint already exists")

	// ErrEndpointNotFound is returned by Update when the identifier is not registered.
	ErrEndpointNotFound = errors.New("endpoint not found")
)

// DefaultMethod is used when an endpoint is added without a method.
const DefaultMethod = "GET"

// Registry maps endpoint identifiers to descriptors. It is safe for concurrent
// use; reads never log.
type Registry struct {
	mu        sync.RWMutex
	endpoints map[string]models.Endpoint
	log       logger.Logger
}

func New(log logger.Logger) *Registry {
	return &Registry{
		endpoints: make(map[string]models.Endpoint),
		log:       log,
	}
}

// Normalize upper-cases the method, defaults it to GET and detaches the headers map.
func Normalize(ep models.Endpoint) models.Endpoint {
	ep.Method = strings.ToUpper(strings.TrimSpace(ep.Method))
	if ep.Method == "" {
		ep.Method = DefaultMethod
	}
	return ep.Clone()
}

// Add registers ep under ep.ID.
func (r *Registry) Add(ep models.Endpoint) error {
	ep = Normalize(ep)
	if err := validator.ValidateStruct(ep); err != nil {
		r.log.Error(err.Error(), logger.String(logger.FieldEndpointID, ep.ID))
		return err
	}

	r.mu.Lock()
	if _, exists := r.endpoints[ep.ID]; exists {
		r.mu.Unlock()
		err := fmt.Errorf("%w: %s", ErrEndpointExists, ep.ID)
		r.log.Error(err.Error(), logger.String(logger.FieldEndpointID, ep.ID))
		return err
	}
	r.endpoints[ep.ID] = ep
	r.mu.Unlock()

	r.log.Info("endpoint added",
		logger.String(logger.FieldEndpointID, ep.ID),
		logger.String(logger.FieldEndpoint, ep.Name),
	)
	return nil
}

// Remove deletes the endpoint and reports whether it existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	_, exists := r.endpoints[id]
	delete(r.endpoints, id)
	r.mu.Unlock()

	if exists {
		r.log.Info("endpoint removed", logger.String(logger.FieldEndpointID, id))
	}
	return exists
}

// Update merges the present fields of upd into the stored endpoint and returns the result.
// The stored endpoint is left unchanged if the merged one does not validate.
func (r *Registry) Update(id string, upd models.EndpointUpdate) (models.Endpoint, error) {
	r.mu.Lock()
	current, exists := r.endpoints[id]
	if !exists {
		r.mu.Unlock()
		err := fmt.Errorf("%w: %s", ErrEndpointNotFound, id)
		r.log.Error(err.Error(), logger.String(logger.FieldEndpointID, id))
		return models.Endpoint{}, err
	}

	next := Normalize(upd.Apply(current))
	next.ID = current.ID
	if err := validator.ValidateStruct(next); err != nil {
		r.mu.Unlock()
		r.log.Error(err.Error(), logger.String(logger.FieldEndpointID, id))
		return models.Endpoint{}, err
	}
	r.endpoints[id] = next
	r.mu.Unlock()

	r.log.Info("endpoint updated",
		logger.String(logger.FieldEndpointID, id),
		logger.String(logger.FieldEndpoint, next.Name),
	)
	return next.Clone(), nil
}

// Get returns a copy of the endpoint registered under id.
func (r *Registry) Get(id string) (models.Endpoint, bool) {
	r.mu.RLock()
	ep, ok := r.endpoints[id]
	r.mu.RUnlock()
	if !ok {
		return models.Endpoint{}, false
	}
	return ep.Clone(), true
}

// List returns copies of all endpoints ordered by ID.
func (r *Registry) List() []models.Endpoint {
	r.mu.RLock()
	out := make([]models.Endpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		out = append(out, ep.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.endpoints)
}

// Replace swaps the whole content for eps, typically a fresh load from the store.
// Entries that fail validation are skipped and reported.
func (r *Registry) Replace(eps []models.Endpoint) error {
	next := make(map[string]models.Endpoint, len(eps))
	var errs []error
	for _, ep := range eps {
		ep = Normalize(ep)
		if err := validator.ValidateStruct(ep); err != nil {
			errs = append(errs, fmt.Errorf("endpoint %s: %w", ep.ID, err))
			continue
		}
		next[ep.ID] = ep
	}

	r.mu.Lock()
	r.endpoints = next
	r.mu.Unlock()

	r.log.Debug("endpoints replaced", logger.Int(logger.FieldCount, len(next)))
	return errors.Join(errs...)
}

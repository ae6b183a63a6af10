package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Alwanly/service-endpoint-dispatch/internal/dispatcher"
	"github.com/Alwanly/service-endpoint-dispatch/internal/models"
	"github.com/Alwanly/service-endpoint-dispatch/internal/registry"
	"github.com/Alwanly/service-endpoint-dispatch/internal/server/endpoint/dto"
	"github.com/Alwanly/service-endpoint-dispatch/internal/server/endpoint/repository"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/failure"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/logger"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/metrics"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/pubsub"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/validator"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/wrapper"
)

type UseCase struct {
	Registry   *registry.Registry
	Repo       repository.IRepository
	Dispatcher *dispatcher.Dispatcher
	Logger     *logger.CanonicalLogger
	Metrics    *metrics.Collector

	// Pub is nil when running poll-only
	Pub     pubsub.Publisher
	Channel string
	// InstanceID tags published events so an instance ignores its own
	InstanceID string

	// writeMu makes each store write and its registry change one step
	// relative to Sync, so a reload never sees a half-applied write.
	writeMu *sync.Mutex
}

type UseCaseInterface interface {
	ListEndpoints(ctx context.Context) wrapper.JSONResult
	GetEndpoint(ctx context.Context, id string) wrapper.JSONResult
	CreateEndpoint(ctx context.Context, req *dto.CreateEndpointRequest) wrapper.JSONResult
	UpdateEndpoint(ctx context.Context, id string, req *dto.UpdateEndpointRequest) wrapper.JSONResult
	DeleteEndpoint(ctx context.Context, id string) wrapper.JSONResult
	InvokeEndpoint(ctx context.Context, id string, req *dto.InvokeRequest) wrapper.JSONResult
	Sync(ctx context.Context) error
	Seed(ctx context.Context, eps []models.Endpoint) (int, error)
	HandleEvent(ctx context.Context, msg pubsub.Message) error
}

var _ UseCaseInterface = (*UseCase)(nil)

func NewUseCase(uc UseCase) *UseCase {
	uc.writeMu = new(sync.Mutex)
	return &uc
}

func (uc *UseCase) ListEndpoints(ctx context.Context) wrapper.JSONResult {
	eps := uc.Registry.List()
	res := dto.ListEndpointsResponse{
		Endpoints: make([]dto.EndpointResponse, 0, len(eps)),
		Count:     len(eps),
	}
	for _, ep := range eps {
		res.Endpoints = append(res.Endpoints, dto.NewEndpointResponse(ep))
	}
	logger.AddToContext(ctx, zap.Int(logger.FieldCount, len(eps)))
	return wrapper.ResponseSuccess(http.StatusOK, res)
}

func (uc *UseCase) GetEndpoint(ctx context.Context, id string) wrapper.JSONResult {
	logger.AddToContext(ctx, zap.String(logger.FieldEndpointID, id))

	ep, ok := uc.Registry.Get(id)
	if !ok {
		return failed(ctx, fmt.Errorf("%w: %s", registry.ErrEndpointNotFound, id))
	}
	return wrapper.ResponseSuccess(http.StatusOK, dto.NewEndpointResponse(ep))
}

// CreateEndpoint registers the endpoint and stores it. The registry entry is
// rolled back when the store write fails.
func (uc *UseCase) CreateEndpoint(ctx context.Context, req *dto.CreateEndpointRequest) wrapper.JSONResult {
	uc.writeMu.Lock()
	defer uc.writeMu.Unlock()

	ep := req.ToModel()
	logger.AddToContext(ctx, zap.String(logger.FieldEndpointID, ep.ID))

	if err := uc.Registry.Add(ep); err != nil {
		return failed(ctx, err)
	}

	stored, _ := uc.Registry.Get(ep.ID)
	if err := uc.Repo.CreateEndpoint(ctx, &stored); err != nil {
		uc.Registry.Remove(ep.ID)
		return failed(ctx, err)
	}

	uc.Metrics.SetRegistered(uc.Registry.Len())
	uc.publish(ctx, pubsub.ActionCreated, ep.ID)
	return wrapper.ResponseSuccess(http.StatusCreated, dto.NewEndpointResponse(stored))
}

func (uc *UseCase) UpdateEndpoint(ctx context.Context, id string, req *dto.UpdateEndpointRequest) wrapper.JSONResult {
	uc.writeMu.Lock()
	defer uc.writeMu.Unlock()

	logger.AddToContext(ctx, zap.String(logger.FieldEndpointID, id))

	previous, ok := uc.Registry.Get(id)
	if !ok {
		return failed(ctx, fmt.Errorf("%w: %s", registry.ErrEndpointNotFound, id))
	}

	updated, err := uc.Registry.Update(id, req.ToModel())
	if err != nil {
		return failed(ctx, err)
	}

	if err := uc.Repo.UpdateEndpoint(ctx, &updated); err != nil {
		if _, rerr := uc.Registry.Update(id, restore(previous)); rerr != nil {
			uc.Logger.WithError(rerr).Error("failed to restore endpoint after store error", zap.String(logger.FieldEndpointID, id))
		}
		return failed(ctx, err)
	}

	uc.publish(ctx, pubsub.ActionUpdated, id)
	return wrapper.ResponseSuccess(http.StatusOK, dto.NewEndpointResponse(updated))
}

func (uc *UseCase) DeleteEndpoint(ctx context.Context, id string) wrapper.JSONResult {
	uc.writeMu.Lock()
	defer uc.writeMu.Unlock()

	logger.AddToContext(ctx, zap.String(logger.FieldEndpointID, id))

	if _, ok := uc.Registry.Get(id); !ok {
		return failed(ctx, fmt.Errorf("%w: %s", registry.ErrEndpointNotFound, id))
	}

	// a row already gone from the store still leaves a stale registry entry to drop
	if err := uc.Repo.DeleteEndpoint(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return failed(ctx, err)
	}

	removed := uc.Registry.Remove(id)
	uc.Metrics.SetRegistered(uc.Registry.Len())
	uc.publish(ctx, pubsub.ActionDeleted, id)
	return wrapper.ResponseSuccess(http.StatusOK, dto.DeleteEndpointResponse{ID: id, Removed: removed})
}

// InvokeEndpoint calls the endpoint through the dispatcher. POST and PUT
// bodies are sent as JSON; other methods carry the body unchanged.
func (uc *UseCase) InvokeEndpoint(ctx context.Context, id string, req *dto.InvokeRequest) wrapper.JSONResult {
	method := strings.ToUpper(req.Method)
	logger.AddToContext(ctx,
		zap.String(logger.FieldEndpointID, id),
		zap.String(logger.FieldMethod, method),
	)

	opts := dispatcher.CallOptions{Headers: req.Headers}
	hasBody := len(req.Body) > 0

	var out json.RawMessage
	var err error
	switch {
	case method == http.MethodPost && hasBody:
		err = uc.Dispatcher.Post(ctx, id, req.Body, &out, opts)
	case method == http.MethodPut && hasBody:
		err = uc.Dispatcher.Put(ctx, id, req.Body, &out, opts)
	case method == http.MethodGet:
		err = uc.Dispatcher.Get(ctx, id, &out, opts)
	case method == http.MethodDelete:
		err = uc.Dispatcher.Delete(ctx, id, &out, opts)
	default:
		opts.Method = method
		if hasBody {
			opts.Body = bytes.NewReader(req.Body)
		}
		out, err = dispatcher.InvokeJSON[json.RawMessage](ctx, uc.Dispatcher, id, opts)
	}
	if err != nil {
		return failed(ctx, err)
	}

	logger.AddToContext(ctx, zap.Bool(logger.FieldSuccess, true))
	return wrapper.ResponseSuccess(http.StatusOK, dto.InvokeResponse{EndpointID: id, Data: out})
}

// Sync replaces the registry with the stored endpoints.
func (uc *UseCase) Sync(ctx context.Context) error {
	uc.writeMu.Lock()
	defer uc.writeMu.Unlock()

	eps, err := uc.Repo.ListEndpoints(ctx)
	if err != nil {
		return err
	}

	if err := uc.Registry.Replace(eps); err != nil {
		uc.Logger.WithError(err).Warn("skipped invalid stored endpoints")
	}

	n := uc.Registry.Len()
	uc.Metrics.SetRegistered(n)
	logger.AddToContext(ctx, zap.Int(logger.FieldCount, n))
	return nil
}

// Seed stores the endpoints whose IDs are not stored yet, then syncs the
// registry. It returns how many were written.
func (uc *UseCase) Seed(ctx context.Context, eps []models.Endpoint) (int, error) {
	var errs []error
	written := 0
	for _, ep := range eps {
		ep = registry.Normalize(ep)
		if err := validator.ValidateStruct(ep); err != nil {
			errs = append(errs, fmt.Errorf("endpoint %s: %w", ep.ID, err))
			continue
		}
		created, err := uc.Repo.CreateEndpointIfAbsent(ctx, &ep)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if created {
			written++
		}
	}

	if err := uc.Sync(ctx); err != nil {
		errs = append(errs, err)
	}

	uc.Logger.Info("endpoints seeded", zap.Int(logger.FieldCount, written), zap.Int("skipped", len(eps)-written))
	return written, errors.Join(errs...)
}

// HandleEvent resyncs on change events published by other instances.
func (uc *UseCase) HandleEvent(ctx context.Context, msg pubsub.Message) error {
	event, err := pubsub.DecodeEvent(msg)
	if err != nil {
		return err
	}
	if event.Source != "" && event.Source == uc.InstanceID {
		return nil
	}

	uc.Logger.Debug("endpoint change received",
		zap.String("action", event.Action),
		zap.String(logger.FieldEndpointID, event.EndpointID),
	)
	return uc.Sync(ctx)
}

// publish never fails the request: the store is authoritative and the poller converges.
func (uc *UseCase) publish(ctx context.Context, action, id string) {
	if uc.Pub == nil {
		return
	}

	payload, err := pubsub.EndpointEvent{Action: action, EndpointID: id, Source: uc.InstanceID}.Encode()
	if err != nil {
		uc.Logger.WithError(err).Error("failed to encode endpoint event")
		return
	}
	if err := uc.Pub.Publish(ctx, uc.Channel, payload); err != nil {
		logger.AddToContext(ctx, zap.String("publish_error", err.Error()))
		return
	}
	logger.AddToContext(ctx, zap.Bool("published", true))
}

func restore(ep models.Endpoint) models.EndpointUpdate {
	headers := ep.Headers
	return models.EndpointUpdate{
		Name:    &ep.Name,
		URL:     &ep.URL,
		Method:  &ep.Method,
		Headers: &headers,
	}
}

func failed(ctx context.Context, err error) wrapper.JSONResult {
	status := failure.HTTPStatus(err)
	switch {
	case errors.Is(err, registry.ErrEndpointExists):
		status = http.StatusConflict
	case errors.Is(err, registry.ErrEndpointNotFound), errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	}

	logger.AddToContext(ctx, logger.FailureFields(err)...)

	return wrapper.ResponseFailed(status, err.Error(), dto.NewFailureResponse(err))
}

package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Alwanly/service-endpoint-dispatch/internal/config"
	"github.com/Alwanly/service-endpoint-dispatch/internal/server/endpoint/dto"
	"github.com/Alwanly/service-endpoint-dispatch/internal/server/endpoint/repository"
	"github.com/Alwanly/service-endpoint-dispatch/internal/server/endpoint/usecase"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/deps"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/failure"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/logger"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/middleware"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/pubsub"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/wrapper"
)

const healthPingTimeout = time.Second

type Handler struct {
	Logger     *logger.CanonicalLogger
	UseCase    *usecase.UseCase
	Config     *config.DispatcherConfig
	Middleware *middleware.AuthMiddleware
	Pub        pubsub.PubSub
}

func NewHandler(d deps.App, cfg *config.DispatcherConfig, instanceID string) *Handler {
	repo := repository.NewRepository(d.Database)

	uc := usecase.NewUseCase(usecase.UseCase{
		Registry:   d.Registry,
		Repo:       repo,
		Dispatcher: d.Dispatcher,
		Logger:     d.Logger,
		Metrics:    d.Metrics,
		Channel:    cfg.RedisChannel,
		InstanceID: instanceID,
	})
	if d.Pub != nil {
		uc.Pub = d.Pub
	}

	h := &Handler{
		Logger:     d.Logger,
		UseCase:    uc,
		Config:     cfg,
		Middleware: d.Middleware,
		Pub:        d.Pub,
	}

	// Health check endpoint (no auth required)
	d.Fiber.Get("/health", h.health)

	if d.Gatherer != nil {
		d.Fiber.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	endpoints := d.Fiber.Group("/endpoints")
	endpoints.Get("", d.Middleware.BasicAuth(), h.listEndpoints)
	endpoints.Get("/:id", d.Middleware.BasicAuth(), h.getEndpoint)
	endpoints.Post("/:id/invoke", d.Middleware.BasicAuth(), h.invokeEndpoint)

	// Admin-protected endpoints
	endpoints.Post("", d.Middleware.BasicAuthAdmin(), h.createEndpoint)
	endpoints.Put("/:id", d.Middleware.BasicAuthAdmin(), h.updateEndpoint)
	endpoints.Delete("/:id", d.Middleware.BasicAuthAdmin(), h.deleteEndpoint)

	return h
}

func badBody(c *fiber.Ctx, err error) error {
	perr := failure.NewParseError("invalid request body", "request body", err)
	logger.AddToContext(c.UserContext(), zap.Error(perr))
	res := wrapper.ResponseFailed(fiber.StatusBadRequest, perr.Error(), nil)
	return res.Send(c)
}

// listEndpoints godoc
// @Summary      List endpoints
// @Description  List all registered endpoints ordered by ID
// @Tags         endpoints
// @Produce      json
// @Success      200 {object} wrapper.JSONResult{data=dto.ListEndpointsResponse} "Registered endpoints"
// @Failure      401 {object} wrapper.JSONResult "Missing or invalid credentials"
// @Router       /endpoints [get]
// @Security     BasicAuth
func (h *Handler) listEndpoints(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.String(logger.FieldOperation, "list_endpoints"))

	res := h.UseCase.ListEndpoints(c.UserContext())
	return res.Send(c)
}

// getEndpoint godoc
// @Summary      Get endpoint
// @Description  Retrieve a registered endpoint
// @Tags         endpoints
// @Produce      json
// @Param        id path string true "Endpoint ID"
// @Success      200 {object} wrapper.JSONResult{data=dto.EndpointResponse} "Endpoint details"
// @Failure      404 {object} wrapper.JSONResult "Endpoint not found"
// @Router       /endpoints/{id} [get]
// @Security     BasicAuth
func (h *Handler) getEndpoint(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.String(logger.FieldOperation, "get_endpoint"))

	res := h.UseCase.GetEndpoint(c.UserContext(), c.Params("id"))
	return res.Send(c)
}

// createEndpoint godoc
// @Summary      Register endpoint
// @Description  Register a new endpoint (admin only). Method defaults to GET.
// @Tags         endpoints
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateEndpointRequest true "Endpoint descriptor"
// @Success      201 {object} wrapper.JSONResult{data=dto.EndpointResponse} "Endpoint registered"
// @Failure      400 {object} wrapper.JSONResult "Invalid request body"
// @Failure      409 {object} wrapper.JSONResult "Endpoint already exists"
// @Failure      422 {object} wrapper.JSONResult{data=dto.FailureResponse} "Validation error"
// @Failure      500 {object} wrapper.JSONResult{data=dto.FailureResponse} "Database error"
// @Router       /endpoints [post]
// @Security     BasicAuth
func (h *Handler) createEndpoint(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.String(logger.FieldOperation, "create_endpoint"))

	req := new(dto.CreateEndpointRequest)
	if err := c.BodyParser(req); err != nil {
		return badBody(c, err)
	}

	res := h.UseCase.CreateEndpoint(c.UserContext(), req)
	return res.Send(c)
}

// updateEndpoint godoc
// @Summary      Update endpoint
// @Description  Change the supplied fields of an endpoint (admin only). The ID cannot change.
// @Tags         endpoints
// @Accept       json
// @Produce      json
// @Param        id path string true "Endpoint ID"
// @Param        request body dto.UpdateEndpointRequest true "Fields to change"
// @Success      200 {object} wrapper.JSONResult{data=dto.EndpointResponse} "Endpoint updated"
// @Failure      400 {object} wrapper.JSONResult "Invalid request body"
// @Failure      404 {object} wrapper.JSONResult "Endpoint not found"
// @Failure      422 {object} wrapper.JSONResult{data=dto.FailureResponse} "Validation error"
// @Router       /endpoints/{id} [put]
// @Security     BasicAuth
func (h *Handler) updateEndpoint(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.String(logger.FieldOperation, "update_endpoint"))

	req := new(dto.UpdateEndpointRequest)
	if err := c.BodyParser(req); err != nil {
		return badBody(c, err)
	}

	res := h.UseCase.UpdateEndpoint(c.UserContext(), c.Params("id"), req)
	return res.Send(c)
}

// deleteEndpoint godoc
// @Summary      Remove endpoint
// @Description  Remove an endpoint (admin only)
// @Tags         endpoints
// @Produce      json
// @Param        id path string true "Endpoint ID"
// @Success      200 {object} wrapper.JSONResult{data=dto.DeleteEndpointResponse} "Endpoint removed"
// @Failure      404 {object} wrapper.JSONResult "Endpoint not found"
// @Router       /endpoints/{id} [delete]
// @Security     BasicAuth
func (h *Handler) deleteEndpoint(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.String(logger.FieldOperation, "delete_endpoint"))

	res := h.UseCase.DeleteEndpoint(c.UserContext(), c.Params("id"))
	return res.Send(c)
}

// invokeEndpoint godoc
// @Summary      Invoke endpoint
// @Description  Call a registered endpoint through the dispatcher and return its JSON payload.
// @Description  Upstream failures are classified: 404 unknown endpoint or upstream 404, 502 other API/network/parse failures, 504 timeout.
// @Tags         dispatch
// @Accept       json
// @Produce      json
// @Param        id path string true "Endpoint ID"
// @Param        request body dto.InvokeRequest false "Call overrides"
// @Success      200 {object} wrapper.JSONResult{data=dto.InvokeResponse} "Upstream payload"
// @Failure      404 {object} wrapper.JSONResult{data=dto.FailureResponse} "Endpoint not found"
// @Failure      502 {object} wrapper.JSONResult{data=dto.FailureResponse} "Upstream failure"
// @Failure      504 {object} wrapper.JSONResult{data=dto.FailureResponse} "Upstream timeout"
// @Router       /endpoints/{id}/invoke [post]
// @Security     BasicAuth
func (h *Handler) invokeEndpoint(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.String(logger.FieldOperation, "invoke_endpoint"))

	req := new(dto.InvokeRequest)
	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return badBody(c, err)
		}
	}

	res := h.UseCase.InvokeEndpoint(c.UserContext(), c.Params("id"), req)
	return res.Send(c)
}

// health godoc
// @Summary     Health check
// @Description Get service health status (unauthenticated). A Redis outage does not make the service unhealthy; changes then propagate by polling.
// @Tags        health
// @Produce     json
// @Success     200 {object} map[string]interface{}
// @Router      /health [get]
func (h *Handler) health(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.String(logger.FieldOperation, "health_check"))

	pubStatus := "disabled"
	if h.Pub != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthPingTimeout)
		defer cancel()
		pubStatus = "ok"
		if err := h.Pub.Ping(ctx); err != nil {
			pubStatus = "unavailable"
			logger.AddToContext(c.UserContext(), logger.String("pubsub_error", err.Error()))
		}
	}

	return c.JSON(fiber.Map{
		"status":    "healthy",
		"endpoints": h.UseCase.Registry.Len(),
		"pubsub":    pubStatus,
	})
}

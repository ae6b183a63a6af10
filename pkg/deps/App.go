package deps

import (
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/Alwanly/service-endpoint-dispatch/internal/dispatcher"
	"github.com/Alwanly/service-endpoint-dispatch/internal/registry"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/logger"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/metrics"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/middleware"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/pubsub"
)

type App struct {
	Fiber      *fiber.App
	Logger     *logger.CanonicalLogger
	Database   *gorm.DB
	Middleware *middleware.AuthMiddleware
	Registry   *registry.Registry
	Dispatcher *dispatcher.Dispatcher
	Metrics    *metrics.Collector
	// Gatherer backs GET /metrics; nil disables the route
	Gatherer prometheus.Gatherer
	// Pub is nil in poll-only mode
	Pub pubsub.PubSub
}

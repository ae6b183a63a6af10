package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Alwanly/service-endpoint-dispatch/pkg/logger"
)

// CanonicalLoggerMiddleware writes one log line per request carrying every
// field handlers and use cases added to the request's LogContext.
func CanonicalLoggerMiddleware(log *logger.CanonicalLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logCtx := logger.NewLogContext()
		c.Locals("log_context", logCtx)

		userCtx := logger.WithLogContext(c.UserContext(), logCtx)
		if id, ok := c.Locals("requestid").(string); ok && id != "" {
			logCtx.AddField(zap.String(logger.FieldRequestID, id))
			userCtx = logger.WithCorrelationID(userCtx, id)
		}
		c.SetUserContext(userCtx)

		start := time.Now()

		defer func() {
			duration := time.Since(start)
			status := c.Response().StatusCode()

			fields := []zap.Field{
				zap.String(logger.FieldMethod, c.Method()),
				zap.String("path", c.Path()),
				zap.Int(logger.FieldStatus, status),
				zap.Int64(logger.FieldDuration, duration.Milliseconds()),
			}
			fields = append(fields, logCtx.Fields()...)

			switch {
			case status >= fiber.StatusInternalServerError:
				log.Error("http_request", fields...)
			case status >= fiber.StatusBadRequest:
				log.Info("http_request_client_error", fields...)
			default:
				log.Info("http_request", fields...)
			}
		}()

		// handle the error here so the logged status is the one sent
		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		return nil
	}
}

package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Alwanly/service-endpoint-dispatch/pkg/failure"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/logger"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/wrapper"
)

// ErrorHandler answers handler errors with a wrapper.JSONResult. Failures map
// through failure.HTTPStatus; fiber errors keep their code.
func ErrorHandler(log *logger.CanonicalLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := failure.HTTPStatus(err)
		var data fiber.Map

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if f, ok := failure.As(err); ok {
			data = fiber.Map{"kind": f.Kind().String()}
			if rl, ok := f.(*failure.RateLimitError); ok {
				data["retry_after_seconds"] = rl.RetryAfterSeconds
			}
		}

		logger.AddToContext(c.UserContext(), logger.FailureFields(err)...)
		if code >= fiber.StatusInternalServerError {
			log.HTTPError(c.Method(), c.Path(), code, err)
		}

		return wrapper.ResponseFailed(code, err.Error(), data).Send(c)
	}
}

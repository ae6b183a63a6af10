package wrapper

import "github.com/gofiber/fiber/v2"

// JSONResult is the envelope of every API response. Code is the HTTP status
// and is not serialized.
type JSONResult struct {
	Code    int    `json:"-"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func ResponseSuccess(httpCode int, data any) JSONResult {
	return JSONResult{
		Code:    httpCode,
		Success: true,
		Message: "Success",
		Data:    data,
	}
}

// ResponseFailed carries the rendered error as Message.
func ResponseFailed(httpCode int, message string, data any) JSONResult {
	return JSONResult{
		Code:    httpCode,
		Success: false,
		Message: message,
		Data:    data,
	}
}

// Send writes r with its status code.
func (r JSONResult) Send(c *fiber.Ctx) error {
	return c.Status(r.Code).JSON(r)
}

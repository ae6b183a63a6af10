package middleware

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	authentication "github.com/Alwanly/service-endpoint-dispatch/pkg/auth"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/failure"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/logger"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/wrapper"
)

func basic(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func newTestApp(t *testing.T) (*fiber.App, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.New(zap.New(core))

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	app.Use(CanonicalLoggerMiddleware(log))

	mid := NewAuthMiddleware(SetBasicAuth(&authentication.BasicAuthTConfig{
		ReaderUsername: "reader",
		ReaderPassword: "readerpass",
		AdminUsername:  "admin",
		AdminPassword:  "password",
	}))
	ok := func(c *fiber.Ctx) error { return c.SendString("ok") }
	app.Get("/read", mid.BasicAuth(), ok)
	app.Post("/write", mid.BasicAuthAdmin(), ok)
	app.Get("/boom", func(c *fiber.Ctx) error {
		return failure.NewDatabaseError("disk full", "create", nil)
	})
	return app, logs
}

func decodeResult(t *testing.T, resp *http.Response) wrapper.JSONResult {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var res wrapper.JSONResult
	require.NoError(t, json.Unmarshal(body, &res))
	return res
}

func TestBasicAuthRoles(t *testing.T) {
	app, _ := newTestApp(t)

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		want   int
	}{
		{"reader reads", http.MethodGet, "/read", basic("reader", "readerpass"), http.StatusOK},
		{"admin reads", http.MethodGet, "/read", basic("admin", "password"), http.StatusOK},
		{"admin writes", http.MethodPost, "/write", basic("admin", "password"), http.StatusOK},
		{"reader writes", http.MethodPost, "/write", basic("reader", "readerpass"), http.StatusForbidden},
		{"wrong password", http.MethodGet, "/read", basic("reader", "nope"), http.StatusUnauthorized},
		{"no header", http.MethodGet, "/read", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.auth)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestAuthFailureBodies(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/read", nil)
	req.Header.Set(fiber.HeaderAuthorization, basic("mallory", "x"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "Basic realm=Restricted", resp.Header.Get(fiber.HeaderWWWAuthenticate))

	res := decodeResult(t, resp)
	require.False(t, res.Success)
	require.Equal(t, "Authentication Error: invalid credentials (User ID: mallory)", res.Message)

	req = httptest.NewRequest(http.MethodPost, "/write", nil)
	req.Header.Set(fiber.HeaderAuthorization, basic("reader", "readerpass"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	res = decodeResult(t, resp)
	require.Equal(t, "Authorization Error: admin role required (Resource: /write) (Action: POST)", res.Message)
	require.Equal(t, map[string]any{"kind": "AuthorizationError"}, res.Data)
}

func TestErrorHandlerMapsFailures(t *testing.T) {
	app, logs := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "Database Error: disk full (Operation: create)", decodeResult(t, resp).Message)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/missing-route", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	entries := logs.FilterMessage("http_request").All()
	require.NotEmpty(t, entries)
	require.Equal(t, int64(http.StatusInternalServerError), entries[0].ContextMap()[logger.FieldStatus])
	require.Equal(t, "DatabaseError", entries[0].ContextMap()[logger.FieldKind])
}

func TestRateLimit(t *testing.T) {
	core, _ := observer.New(zapcore.DebugLevel)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger.New(zap.New(core)))})
	app.Use(RateLimit(RateLimitConfig{Max: 2, Window: time.Minute}))
	app.Get("/endpoints", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/endpoints", nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/endpoints", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, "60", resp.Header.Get(fiber.HeaderRetryAfter))

	res := decodeResult(t, resp)
	require.Contains(t, res.Message, "Rate Limit Error: too many requests from ")
	require.Contains(t, res.Message, "(Retry After: 60s)")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

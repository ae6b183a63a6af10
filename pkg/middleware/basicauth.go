package middleware

import (
	"github.com/gofiber/fiber/v2"

	authentication "github.com/Alwanly/service-endpoint-dispatch/pkg/auth"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/failure"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/logger"
)

// RoleContextKey holds the authenticated role in fiber locals.
const RoleContextKey = "auth_role"

type IAuthMiddleware interface {
	// Basic Auth, reader or admin
	BasicAuth() fiber.Handler

	// Basic Auth Admin
	BasicAuthAdmin() fiber.Handler
}

type AuthMiddleware struct {
	Basic authentication.IBasicAuthService
}

// mockery:ignore
type AuthConfig func(*AuthOpts)

type AuthOpts struct {
	*authentication.BasicAuthTConfig
}

func SetBasicAuth(basicAuthConfig *authentication.BasicAuthTConfig) AuthConfig {
	return func(o *AuthOpts) {
		o.BasicAuthTConfig = basicAuthConfig
	}
}

func NewAuthMiddleware(opts ...AuthConfig) *AuthMiddleware {
	o := AuthOpts{BasicAuthTConfig: &authentication.BasicAuthTConfig{}}
	for _, opt := range opts {
		opt(&o)
	}

	return &AuthMiddleware{
		Basic: authentication.NewBasicAuthService(o.BasicAuthTConfig),
	}
}

func (a *AuthMiddleware) BasicAuth() fiber.Handler {
	return a.require(authentication.RoleReader)
}

func (a *AuthMiddleware) BasicAuthAdmin() fiber.Handler {
	return a.require(authentication.RoleAdmin)
}

// require fails with *failure.AuthenticationError for missing or wrong
// credentials and *failure.AuthorizationError when the role is too low.
func (a *AuthMiddleware) require(min authentication.Role) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		username, password, ok := a.Basic.DecodeFromHeader(ctx.Get(fiber.HeaderAuthorization))
		if !ok {
			ctx.Set(fiber.HeaderWWWAuthenticate, "Basic realm=Restricted")
			return failure.NewAuthenticationError("missing or malformed basic credentials", "anonymous")
		}

		role := a.Basic.Authenticate(username, password)
		if role == authentication.RoleNone {
			ctx.Set(fiber.HeaderWWWAuthenticate, "Basic realm=Restricted")
			return failure.NewAuthenticationError("invalid credentials", username)
		}
		if role < min {
			return failure.NewAuthorizationError(min.String()+" role required", ctx.Path(), ctx.Method())
		}

		ctx.Locals(RoleContextKey, role)
		logger.AddToContext(ctx.UserContext(), logger.String("role", role.String()))
		return ctx.Next()
	}
}

package auth

import (
	"strings"

	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	"github.com/Abraxas-365/contractorconnect/pkg/iam"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/user"
	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// TokenMiddleware authenticates requests with bearer JWTs
type TokenMiddleware struct {
	tokenService TokenService
	users        UserLoader
}

// NewAuthMiddleware creates the middleware. users may be nil, in which case
// token claims are trusted without checking the account.
func NewAuthMiddleware(tokenService TokenService, users UserLoader) *TokenMiddleware {
	return &TokenMiddleware{
		tokenService: tokenService,
		users:        users,
	}
}

// Authenticate validates the access token and stores a *kernel.AuthContext in locals
func (am *TokenMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractToken(c)
		if token == "" {
			return iam.ErrUnauthorized()
		}

		claims, err := am.tokenService.ValidateAccessToken(token)
		if err != nil {
			return iam.ErrInvalidToken().WithDetail("reason", reason(err))
		}

		authContext := claims.AuthContext()

		if am.users != nil {
			u, err := am.users.GetByID(c.UserContext(), claims.UserID)
			if err != nil {
				if errx.IsCode(err, user.CodeNotFound) {
					return iam.ErrInvalidToken().WithDetail("reason", "user no longer exists")
				}
				return err
			}
			if !u.CanLogin() {
				return user.ErrInactive()
			}
			// role changes take effect without waiting for token expiry
			authContext.Role = u.Role
		}

		c.Locals(string(kernel.AuthContextKey), authContext)

		return c.Next()
	}
}

// RequireRoles allows the request only for the listed roles
func (am *TokenMiddleware) RequireRoles(roles ...kernel.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authContext, err := GetAuthContext(c)
		if err != nil {
			return err
		}

		if !authContext.HasAnyRole(roles...) {
			return iam.ErrAccessDenied().WithDetail("required_roles", roles)
		}

		return c.Next()
	}
}

// RequireAdmin is RequireRoles(kernel.RoleAdmin)
func (am *TokenMiddleware) RequireAdmin() fiber.Handler {
	return am.RequireRoles(kernel.RoleAdmin)
}

// GetAuthContext returns the context stored by Authenticate
func GetAuthContext(c *fiber.Ctx) (*kernel.AuthContext, error) {
	authContext, ok := c.Locals(string(kernel.AuthContextKey)).(*kernel.AuthContext)
	if !ok || !authContext.IsValid() {
		return nil, iam.ErrUnauthorized()
	}
	return authContext, nil
}

// extractToken reads "Authorization: Bearer <token>", falling back to the access_token cookie
func extractToken(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Cookies("access_token")
}

func reason(err error) any {
	var e *errx.Error
	if errx.As(err, &e) {
		if r, ok := e.Details["error"]; ok {
			return r
		}
	}
	return err.Error()
}

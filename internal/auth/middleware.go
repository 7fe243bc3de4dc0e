package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/stagepay/pos-core/pkg/errorutil"
)

const tokenKey = "auth_token"

// BearerToken extracts the bearer token for protected routes. Principals are
// resolved by the services inside their own database scope.
func BearerToken(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	c.Locals(tokenKey, strings.TrimSpace(parts[1]))
	return c.Next()
}

// TokenFromContext retrieves the bearer token stored by BearerToken.
func TokenFromContext(c *fiber.Ctx) (string, bool) {
	token, ok := c.Locals(tokenKey).(string)
	return token, ok && token != ""
}

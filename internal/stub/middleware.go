package stub

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const userContextKey = "currentUserID"

// requireAuth validates bearer access tokens and loads the user ID into the
// request context.
func requireAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		userID, err := parseToken(secret, parts[1], tokenTypeAccess)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(userContextKey, userID)
		return c.Next()
	}
}

// currentUserID extracts the authenticated user ID from the request context.
func currentUserID(c *fiber.Ctx) (int64, bool) {
	value := c.Locals(userContextKey)
	if value == nil {
		return 0, false
	}
	if id, ok := value.(int64); ok {
		return id, true
	}
	return 0, false
}

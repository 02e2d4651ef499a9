package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"koalitos/backend/internal/models"
	"koalitos/backend/internal/utils"
)

// Auth validates the bearer token on the Authorization header and stores
// the resolved user in the request context.
func Auth(jwt *utils.JWT) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Unauthorized - No bearer token provided",
			})
		}

		claims, err := jwt.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Unauthorized - Invalid token",
			})
		}

		c.Locals("userID", claims.UserID)
		c.Locals("email", claims.Email)
		c.Locals("handle", claims.Handle)

		return c.Next()
	}
}

// CurrentUser reads the authenticated user from the request context.
func CurrentUser(c *fiber.Ctx) models.AuthUser {
	user := models.AuthUser{}
	if id, ok := c.Locals("userID").(string); ok {
		user.ID = id
	}
	if email, ok := c.Locals("email").(string); ok {
		user.Email = email
	}
	if handle, ok := c.Locals("handle").(string); ok {
		user.Handle = handle
	}
	return user
}

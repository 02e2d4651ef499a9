package middleware

import "github.com/gofiber/fiber/v2"

// AdminKey guards the role/permission admin endpoints with a static API key
// checked against the X-Admin-Api-Key header.
func AdminKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" || c.Get("X-Admin-Api-Key") != key {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Unauthorized - Invalid admin API key",
			})
		}
		return c.Next()
	}
}

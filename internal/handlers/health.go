package handlers

import "github.com/gofiber/fiber/v2"

// Health reports service liveness.
func Health(serviceName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": serviceName,
		})
	}
}

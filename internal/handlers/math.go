package handlers

import (
	"github.com/gofiber/fiber/v2"

	"koalitos/backend/internal/middleware"
	"koalitos/backend/internal/realtime"
	"koalitos/backend/internal/repository"
)

// MathHandler performs the add operation and logs every calculation.
type MathHandler struct {
	calcs    *repository.CalculationRepository
	notifier realtime.Notifier
}

func NewMathHandler(calcs *repository.CalculationRepository, notifier realtime.Notifier) *MathHandler {
	return &MathHandler{calcs: calcs, notifier: notifier}
}

// AddNumbersRequest represents the add request body
type AddNumbersRequest struct {
	A *float64 `json:"a"`
	B *float64 `json:"b"`
}

// Add computes a + b, records the calculation, and broadcasts the result.
func (h *MathHandler) Add(c *fiber.Ctx) error {
	var req AddNumbersRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.A == nil || req.B == nil {
		return badRequest(c, "Both operands a and b are required")
	}

	user := middleware.CurrentUser(c)
	result := *req.A + *req.B

	entry, err := h.calcs.CreateLog(c.Context(), user.ID, *req.A, *req.B, result)
	if err != nil {
		return fail(c, err)
	}

	err = h.notifier.Broadcast(c.Context(), realtime.CalculationsChannel, realtime.EventCalculation, fiber.Map{
		"userId":    user.ID,
		"operands":  fiber.Map{"a": *req.A, "b": *req.B},
		"result":    result,
		"logId":     entry.ID,
		"createdAt": entry.CreatedAt,
	})
	if err != nil {
		return fail(c, err)
	}

	return ok(c, fiber.Map{
		"a":         *req.A,
		"b":         *req.B,
		"result":    result,
		"logId":     entry.ID,
		"createdAt": entry.CreatedAt,
	})
}

// handlers/response.go
package handlers

import (
	"errors"
	"log"

	"activity-hub/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Envelope wraps every JSON response.
type Envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Data    any                 `json:"data,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func ok(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Data: data})
}

func okWithMessage(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Message: message, Data: data})
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Envelope{Success: false, Message: message})
}

func validationFailed(c *fiber.Ctx, errs map[string][]string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(Envelope{
		Success: false,
		Message: "validation failed",
		Errors:  errs,
	})
}

// respondError maps service errors onto status codes. Anything unrecognised is a 500
// and is logged; its text never reaches the client.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrActivityNotFound):
		return fail(c, fiber.StatusNotFound, services.ErrActivityNotFound.Error())
	case errors.Is(err, services.ErrInscriptionNotFound):
		return fail(c, fiber.StatusNotFound, services.ErrInscriptionNotFound.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fail(c, fiber.StatusNotFound, "not found")
	case errors.Is(err, services.ErrCapacityExceeded):
		return fail(c, fiber.StatusConflict, services.ErrCapacityExceeded.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(Envelope{
			Success: false,
			Message: services.ErrInvalidTransition.Error(),
			Errors:  map[string][]string{"status": {err.Error()}},
		})
	case errors.Is(err, services.ErrInvalidScope):
		return c.Status(fiber.StatusBadRequest).JSON(Envelope{
			Success: false,
			Message: services.ErrInvalidScope.Error(),
			Errors:  map[string][]string{"scope": {err.Error()}},
		})
	case errors.Is(err, services.ErrTokenInvalid):
		return fail(c, fiber.StatusUnauthorized, services.ErrTokenInvalid.Error())
	}

	log.Printf("❌ [HTTP] %s %s failed: %v", c.Method(), c.Path(), err)
	return fail(c, fiber.StatusInternalServerError, "internal error")
}

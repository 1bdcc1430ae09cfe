package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/electioncart/internal/errs"
	"github.com/example/electioncart/internal/middleware"
	"github.com/example/electioncart/internal/models"
)

func currentActor(c *fiber.Ctx) (models.Actor, bool) {
	return middleware.CurrentActor(c)
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// ErrorHandler maps service errors and fiber errors to JSON responses.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if svcErr, ok := errs.As(err); ok {
		body := fiber.Map{
			"success": false,
			"error":   svcErr.Kind,
			"message": svcErr.Message,
		}
		if len(svcErr.Fields) > 0 {
			body["fields"] = svcErr.Fields
		}
		return c.Status(svcErr.Kind.HTTPStatus()).JSON(body)
	}

	code := fiber.StatusInternalServerError
	message := "internal server error"
	if fiberErr, ok := err.(*fiber.Error); ok {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

package handler

import (
	"errors"
	"fmt"
	"strconv"

	"marketplace-catalog/internal/service"
	"marketplace-catalog/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func ok(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{"success": true, "data": data})
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error": msg})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrAttributeNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrDuplicateVariant),
		errors.Is(err, service.ErrDuplicateSKU),
		errors.Is(err, service.ErrDuplicateAttribute):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrTooManyCombinations):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidInputType),
		errors.Is(err, service.ErrInvalidImage):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// failWith hides internal errors behind a generic message.
func failWith(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		return fail(c, status, "Internal Server Error")
	}
	return fail(c, status, err.Error())
}

// validate returns a 400 response for the first failed rule, or nil.
func validate(c *fiber.Ctx, req interface{}) error {
	errs := validator.ValidateStruct(req)
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	return fail(c, fiber.StatusBadRequest, fmt.Sprintf("Validation failed: Field '%s' failed on tag '%s'", first.FailedField, first.Tag))
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(n), nil
}

package handler

import (
	"marketplace-catalog/internal/middleware"
	"marketplace-catalog/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	service service.ProductService
}

func NewProductHandler(s service.ProductService) *ProductHandler {
	return &ProductHandler{service: s}
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var input service.CreateProductInput
	if err := c.BodyParser(&input); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid JSON: "+err.Error())
	}
	if err := validate(c, &input); err != nil {
		return err
	}

	product, err := h.service.Create(c.UserContext(), middleware.ActorFrom(c), &input)
	if err != nil {
		return failWith(c, err)
	}
	return ok(c, fiber.StatusCreated, product)
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	productID, err := parseUUIDParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid product ID")
	}

	product, err := h.service.Get(c.UserContext(), productID, middleware.ActorFrom(c))
	if err != nil {
		return failWith(c, err)
	}
	return ok(c, fiber.StatusOK, product)
}

func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	productID, err := parseUUIDParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid product ID")
	}

	var input service.UpdateProductInput
	if err := c.BodyParser(&input); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid JSON: "+err.Error())
	}
	if err := validate(c, &input); err != nil {
		return err
	}

	product, err := h.service.Update(c.UserContext(), productID, middleware.ActorFrom(c), &input)
	if err != nil {
		return failWith(c, err)
	}
	return ok(c, fiber.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	productID, err := parseUUIDParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid product ID")
	}

	if err := h.service.Delete(c.UserContext(), productID, middleware.ActorFrom(c)); err != nil {
		return failWith(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"id": productID})
}

func (h *ProductHandler) CheckVariantCombination(c *fiber.Ctx) error {
	productID, err := parseUUIDParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid product ID")
	}

	var input service.CheckCombinationInput
	if err := c.BodyParser(&input); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	if err := validate(c, &input); err != nil {
		return err
	}

	exists, err := h.service.VariantCombinationExists(c.UserContext(), productID, middleware.ActorFrom(c), &input)
	if err != nil {
		return failWith(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"exists": exists})
}

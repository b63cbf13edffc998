package handler

import (
	"marketplace-catalog/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AttributeHandler struct {
	catalog service.CatalogService
}

func NewAttributeHandler(s service.CatalogService) *AttributeHandler {
	return &AttributeHandler{catalog: s}
}

// GetCategoryAttributes handles GET /api/attributes/category/:categoryId.
// A category without attributes answers with empty lists.
func (h *AttributeHandler) GetCategoryAttributes(c *fiber.Ctx) error {
	categoryID, err := parseUintParam(c, "categoryId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid category ID")
	}

	sets, err := h.catalog.AttributeSetsForCategory(c.UserContext(), categoryID)
	if err != nil {
		return failWith(c, err)
	}
	return ok(c, fiber.StatusOK, sets)
}

type generateVariantsRequest struct {
	VariantAttributes service.Selections `json:"variant_attributes"`
}

// GenerateVariants handles POST /api/attributes/generate-variants.
func (h *AttributeHandler) GenerateVariants(c *fiber.Ctx) error {
	var req generateVariantsRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid JSON: "+err.Error())
	}
	if len(req.VariantAttributes) == 0 {
		return fail(c, fiber.StatusBadRequest, "variant_attributes is required")
	}

	combinations, err := h.catalog.GenerateCombinations(c.UserContext(), req.VariantAttributes)
	if err != nil {
		return failWith(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"combinations": combinations,
		"count":        len(combinations),
	})
}

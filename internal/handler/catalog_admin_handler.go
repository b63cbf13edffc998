package handler

import (
	"marketplace-catalog/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CatalogAdminHandler struct {
	catalog service.CatalogService
}

func NewCatalogAdminHandler(s service.CatalogService) *CatalogAdminHandler {
	return &CatalogAdminHandler{catalog: s}
}

func (h *CatalogAdminHandler) CreateCategory(c *fiber.Ctx) error {
	var req service.CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	if err := validate(c, &req); err != nil {
		return err
	}

	category, err := h.catalog.CreateCategory(c.UserContext(), &req)
	if err != nil {
		return failWith(c, err)
	}
	return ok(c, fiber.StatusCreated, category)
}

func (h *CatalogAdminHandler) CreateAttribute(c *fiber.Ctx) error {
	var req service.CreateAttributeRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	if err := validate(c, &req); err != nil {
		return err
	}

	attribute, err := h.catalog.CreateAttribute(c.UserContext(), &req)
	if err != nil {
		return failWith(c, err)
	}
	return ok(c, fiber.StatusCreated, attribute)
}

func (h *CatalogAdminHandler) AddOption(c *fiber.Ctx) error {
	attributeID, err := parseUintParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid attribute ID")
	}

	var req service.CreateOptionRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	if err := validate(c, &req); err != nil {
		return err
	}

	option, err := h.catalog.AddOption(c.UserContext(), attributeID, &req)
	if err != nil {
		return failWith(c, err)
	}
	return ok(c, fiber.StatusCreated, option)
}

func (h *CatalogAdminHandler) AttachAttribute(c *fiber.Ctx) error {
	categoryID, err := parseUintParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid category ID")
	}

	var req service.AttachAttributeRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	if err := validate(c, &req); err != nil {
		return err
	}

	if err := h.catalog.AttachAttribute(c.UserContext(), categoryID, &req); err != nil {
		return failWith(c, err)
	}

	attributes, err := h.catalog.AttributesForCategory(c.UserContext(), categoryID)
	if err != nil {
		return failWith(c, err)
	}
	return ok(c, fiber.StatusOK, attributes)
}

package handler

import (
	"marketplace-catalog/internal/middleware"
	"marketplace-catalog/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups everything Register mounts.
type Handlers struct {
	Attributes *AttributeHandler
	Products   *ProductHandler
	Admin      *CatalogAdminHandler
	Images     *ImageHandler
}

// Register mounts the REST routes. The websocket route lives in cmd/api.
func Register(app *fiber.App, h Handlers, tokens *jwt.Manager) {
	api := app.Group("/api")

	// ============ PUBLIC ROUTES ============
	attributes := api.Group("/attributes")
	attributes.Get("/category/:categoryId", h.Attributes.GetCategoryAttributes)
	attributes.Post("/generate-variants", h.Attributes.GenerateVariants)

	if h.Images != nil {
		app.Get("/uploads/*", h.Images.GetImage)
	}

	// ============ SELLER ROUTES ============
	products := api.Group("/products", middleware.RequireAuth(tokens), middleware.RequireRole(jwt.RoleSeller))
	products.Post("/", h.Products.CreateProduct)
	products.Get("/:id", h.Products.GetProduct)
	products.Patch("/:id", h.Products.UpdateProduct)
	products.Delete("/:id", h.Products.DeleteProduct)
	products.Post("/:id/variants/check", h.Products.CheckVariantCombination)

	// ============ ADMIN ROUTES ============
	admin := api.Group("/admin", middleware.RequireAuth(tokens), middleware.RequireRole(jwt.RoleAdmin))
	admin.Post("/categories", h.Admin.CreateCategory)
	admin.Post("/categories/:id/attributes", h.Admin.AttachAttribute)
	admin.Post("/attributes", h.Admin.CreateAttribute)
	admin.Post("/attributes/:id/options", h.Admin.AddOption)
}

package handler

import (
	"errors"

	"marketplace-catalog/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// ImageHandler serves stored product images from the object store.
type ImageHandler struct {
	store storage.ObjectStore
}

func NewImageHandler(store storage.ObjectStore) *ImageHandler {
	return &ImageHandler{store: store}
}

func (h *ImageHandler) GetImage(c *fiber.Ctx) error {
	key := c.Params("*")
	data, info, err := h.store.Get(c.UserContext(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			return fail(c, fiber.StatusNotFound, "Image not found")
		}
		return fail(c, fiber.StatusInternalServerError, "Internal Server Error")
	}

	c.Set(fiber.HeaderContentType, info.ContentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	return c.Send(data)
}

package service

import (
	"marketplace-catalog/internal/model"

	"github.com/google/uuid"
)

// Actor is the authenticated seller acting on behalf of a shop.
type Actor struct {
	ShopID   uuid.UUID
	SellerID uuid.UUID
	Name     string
}

// ImageUpload carries one image binary. Data is base64 in JSON.
type ImageUpload struct {
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data" validate:"required"`
}

// VariantInput describes one variant in a create or update payload. A nil ID
// means a new variant.
type VariantInput struct {
	ID            *uuid.UUID            `json:"id"`
	Size          *string               `json:"size" validate:"omitempty,max=100"`
	Color         *string               `json:"color" validate:"omitempty,max=100"`
	StockQuantity *int                  `json:"stock_quantity" validate:"omitempty,min=0"`
	Price         Price                 `json:"price"`
	SKU           string                `json:"sku" validate:"omitempty,max=100"`
	Attributes    model.AttributeValues `json:"attributes"`
	Images        []ImageUpload         `json:"images" validate:"dive"`
	DeleteImages  []uuid.UUID           `json:"delete_images"`
}

type CreateProductInput struct {
	Name          string                `json:"product_name" validate:"required,max=255"`
	Description   string                `json:"description"`
	CategoryID    uint                  `json:"category_id" validate:"required"`
	BasePrice     Price                 `json:"base_price"`
	ComparePrice  *Price                `json:"compare_price"`
	StockQuantity int                   `json:"stock_quantity" validate:"min=0"`
	Status        model.ProductStatus   `json:"status" validate:"omitempty,product_status"`
	Attributes    model.AttributeValues `json:"attributes"`
	Variants      []VariantInput        `json:"variants" validate:"dive"`
	Images        []ImageUpload         `json:"images" validate:"dive"`
}

// UpdateProductInput applies only the fields that are present. Variants set
// to a non-nil slice is the complete desired variant list. A compare_price of
// null or "" clears it.
type UpdateProductInput struct {
	Name          *string               `json:"product_name" validate:"omitempty,min=1,max=255"`
	Description   *string               `json:"description"`
	CategoryID    *uint                 `json:"category_id" validate:"omitempty,min=1"`
	BasePrice     *Price                `json:"base_price"`
	ComparePrice  Price                 `json:"compare_price"`
	StockQuantity *int                  `json:"stock_quantity" validate:"omitempty,min=0"`
	Status        *model.ProductStatus  `json:"status" validate:"omitempty,product_status"`
	Attributes    model.AttributeValues `json:"attributes"`
	Variants      *[]VariantInput       `json:"variants" validate:"omitempty,dive"`
	Images        []ImageUpload         `json:"images" validate:"dive"`
	DeleteImages  []uuid.UUID           `json:"delete_images"`
}

// CheckCombinationInput asks whether a product already has a variant with
// these attribute/option pairs.
type CheckCombinationInput struct {
	Combination      map[uint]uint `json:"combination" validate:"required,min=1"`
	ExcludeVariantID *uuid.UUID    `json:"exclude_variant_id"`
}

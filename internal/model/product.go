package model

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ProductStatus string

const (
	StatusDraft      ProductStatus = "draft"
	StatusActive     ProductStatus = "active"
	StatusInactive   ProductStatus = "inactive"
	StatusOutOfStock ProductStatus = "out_of_stock"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusInactive, StatusOutOfStock:
		return true
	}
	return false
}

// Product is owned by a shop. With zero variants it is itself the sellable
// unit; otherwise price and stock live on the variants.
type Product struct {
	BaseModel
	ShopID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"shop_id"`
	SellerID      uuid.UUID     `gorm:"type:uuid;not null;index" json:"seller_id"`
	CategoryID    uint          `gorm:"not null;index" json:"category_id"`
	Category      *Category     `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Name          string        `gorm:"type:varchar(255);not null" json:"name"`
	Slug          string        `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Description   string        `gorm:"type:text" json:"description"`
	BasePrice     int64         `gorm:"not null;default:0" json:"base_price"`
	ComparePrice  *int64        `json:"compare_price,omitempty"`
	StockQuantity int           `gorm:"not null;default:0" json:"stock_quantity"`
	Status        ProductStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`

	// Denormalized sum of variant stock; not authoritative.
	TotalQuantity int `gorm:"not null;default:0" json:"total_quantity"`

	// Images holds product-level images only (variant_id IS NULL) when loaded by the repository.
	Images          []ProductImage          `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"images"`
	Variants        []ProductVariant        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants"`
	AttributeValues []ProductAttributeValue `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"attribute_values,omitempty"`
}

// ProductVariant never outlives its product.
type ProductVariant struct {
	BaseModel
	ProductID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"product_id"`
	Name          string            `gorm:"type:varchar(255);not null" json:"name"`
	SKU           string            `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Price         int64             `gorm:"not null;default:0" json:"price"`
	StockQuantity int               `gorm:"not null;default:0" json:"stock_quantity"`
	Size          *string           `gorm:"type:varchar(100)" json:"size,omitempty"`
	Color         *string           `gorm:"type:varchar(100)" json:"color,omitempty"`
	Attributes    datatypes.JSONMap `gorm:"column:attribute_values" json:"attribute_values"`

	Images          []ProductImage                 `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE" json:"images"`
	AttributeValues []ProductVariantAttributeValue `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE" json:"attribute_value_rows,omitempty"`
}

// ProductImage with a nil VariantID is a product-level image.
type ProductImage struct {
	BaseModel
	ProductID uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	VariantID *uuid.UUID `gorm:"type:uuid;index" json:"variant_id,omitempty"`
	Path      string     `gorm:"type:varchar(500);not null" json:"path"`
	URL       string     `gorm:"type:varchar(1000);not null" json:"url"`
	SortOrder int        `gorm:"default:0" json:"sort_order"`
	IsPrimary bool       `gorm:"default:false" json:"is_primary"`
}

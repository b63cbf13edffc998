package repository

import (
	"context"

	"marketplace-catalog/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttributeValueRepository stores attribute values of products and variants.
// Writes always replace the owner's full set of rows.
type AttributeValueRepository interface {
	WithTx(tx *gorm.DB) AttributeValueRepository

	ReplaceProductValues(ctx context.Context, productID uuid.UUID, rows []model.ProductAttributeValue) error
	ReplaceVariantValues(ctx context.Context, variantID uuid.UUID, rows []model.ProductVariantAttributeValue) error
	FindProductValues(ctx context.Context, productID uuid.UUID) ([]model.ProductAttributeValue, error)
	FindVariantValues(ctx context.Context, variantID uuid.UUID) ([]model.ProductVariantAttributeValue, error)
	FindSiblingVariantValues(ctx context.Context, productID uuid.UUID, excludeVariantID *uuid.UUID) ([]model.ProductVariantAttributeValue, error)
}

type attributeValueRepo struct {
	db *gorm.DB
}

func NewAttributeValueRepo(db *gorm.DB) AttributeValueRepository {
	return &attributeValueRepo{db}
}

func (r *attributeValueRepo) WithTx(tx *gorm.DB) AttributeValueRepository {
	return &attributeValueRepo{tx}
}

func (r *attributeValueRepo) ReplaceProductValues(ctx context.Context, productID uuid.UUID, rows []model.ProductAttributeValue) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("product_id = ?", productID).Delete(&model.ProductAttributeValue{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return db.Omit("Attribute", "AttributeOption").Create(&rows).Error
}

func (r *attributeValueRepo) ReplaceVariantValues(ctx context.Context, variantID uuid.UUID, rows []model.ProductVariantAttributeValue) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("variant_id = ?", variantID).Delete(&model.ProductVariantAttributeValue{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return db.Omit("Attribute", "AttributeOption").Create(&rows).Error
}

func (r *attributeValueRepo) FindProductValues(ctx context.Context, productID uuid.UUID) ([]model.ProductAttributeValue, error) {
	var rows []model.ProductAttributeValue
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("attribute_id ASC").Find(&rows).Error
	return rows, err
}

func (r *attributeValueRepo) FindVariantValues(ctx context.Context, variantID uuid.UUID) ([]model.ProductVariantAttributeValue, error) {
	var rows []model.ProductVariantAttributeValue
	err := r.db.WithContext(ctx).Where("variant_id = ?", variantID).Order("attribute_id ASC").Find(&rows).Error
	return rows, err
}

// FindSiblingVariantValues returns the attribute value rows of every variant
// of the product, optionally leaving one variant out.
func (r *attributeValueRepo) FindSiblingVariantValues(ctx context.Context, productID uuid.UUID, excludeVariantID *uuid.UUID) ([]model.ProductVariantAttributeValue, error) {
	db := r.db.WithContext(ctx).
		Table("product_variant_attribute_values AS pvav").
		Select("pvav.*").
		Joins("JOIN product_variants pv ON pv.id = pvav.variant_id").
		Where("pv.product_id = ?", productID)
	if excludeVariantID != nil {
		db = db.Where("pv.id <> ?", *excludeVariantID)
	}

	var rows []model.ProductVariantAttributeValue
	err := db.Find(&rows).Error
	return rows, err
}

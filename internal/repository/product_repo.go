package repository

import (
	"context"
	"errors"
	"fmt"

	"marketplace-catalog/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrProductNotFound = errors.New("product not found")

// ProductRepository persists products together with their variants and images.
// Call WithTx to bind every method to a running transaction.
type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository

	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error)
	LoadFull(ctx context.Context, id uuid.UUID) (*model.Product, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	RecomputeTotalQuantity(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)

	CreateVariant(ctx context.Context, variant *model.ProductVariant) error
	FindVariants(ctx context.Context, productID uuid.UUID) ([]model.ProductVariant, error)
	UpdateVariant(ctx context.Context, variant *model.ProductVariant) error
	DeleteVariants(ctx context.Context, productID uuid.UUID, ids []uuid.UUID) error
	SKUExists(ctx context.Context, sku string) (bool, error)

	CreateImage(ctx context.Context, image *model.ProductImage) error
	FindImages(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) ([]model.ProductImage, error)
	FindAllImages(ctx context.Context, productID uuid.UUID) ([]model.ProductImage, error)
	FindImagesByIDs(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, ids []uuid.UUID) ([]model.ProductImage, error)
	DeleteImages(ctx context.Context, ids []uuid.UUID) error
	SetPrimaryImage(ctx context.Context, imageID uuid.UUID) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepo{tx}
}

// imageScope restricts a query to one (product, variant) image scope.
func imageScope(db *gorm.DB, productID uuid.UUID, variantID *uuid.UUID) *gorm.DB {
	db = db.Where("product_id = ?", productID)
	if variantID == nil {
		return db.Where("variant_id IS NULL")
	}
	return db.Where("variant_id = ?", *variantID)
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &product, nil
}

// FindByIDForUpdate takes a row lock on Postgres. SQLite serializes writers
// on its own and does not understand FOR UPDATE.
func (r *productRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	db := r.db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var product model.Product
	if err := db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}
	return &product, nil
}

// LoadFull loads the product with its category, product-level images and
// variants (each with their own images).
func (r *productRepo) LoadFull(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Where("variant_id IS NULL").Order("sort_order ASC, created_at ASC")
		}).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, sku ASC")
		}).
		Preload("Variants.Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, created_at ASC")
		}).
		Preload("AttributeValues").
		First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return &product, nil
}

func (r *productRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(fields).Error
}

// RecomputeTotalQuantity refreshes the denormalized total: the sum of
// variant stock, or the product's own stock when it has no variants.
func (r *productRepo) RecomputeTotalQuantity(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)

	var agg struct {
		Count int64
		Total int64
	}
	err := db.Model(&model.ProductVariant{}).
		Select("COUNT(*) AS count, COALESCE(SUM(stock_quantity), 0) AS total").
		Where("product_id = ?", id).
		Scan(&agg).Error
	if err != nil {
		return err
	}

	if agg.Count == 0 {
		return db.Model(&model.Product{}).Where("id = ?", id).
			Update("total_quantity", gorm.Expr("stock_quantity")).Error
	}
	return db.Model(&model.Product{}).Where("id = ?", id).Update("total_quantity", agg.Total).Error
}

// Delete removes the product row. Child rows are covered by the foreign key
// cascades; they are also deleted here so databases running without
// enforced foreign keys end up in the same state.
func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	variantIDs := db.Model(&model.ProductVariant{}).Select("id").Where("product_id = ?", id)
	if err := db.Where("product_id = ?", id).Delete(&model.ProductImage{}).Error; err != nil {
		return fmt.Errorf("failed to delete product images: %w", err)
	}
	if err := db.Where("variant_id IN (?)", variantIDs).Delete(&model.ProductVariantAttributeValue{}).Error; err != nil {
		return fmt.Errorf("failed to delete variant attributes: %w", err)
	}
	if err := db.Where("product_id = ?", id).Delete(&model.ProductVariant{}).Error; err != nil {
		return fmt.Errorf("failed to delete variants: %w", err)
	}
	if err := db.Where("product_id = ?", id).Delete(&model.ProductAttributeValue{}).Error; err != nil {
		return fmt.Errorf("failed to delete product attributes: %w", err)
	}

	result := db.Delete(&model.Product{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepo) SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	db := r.db.WithContext(ctx).Model(&model.Product{}).Where("slug = ?", slug)
	if excludeID != nil {
		db = db.Where("id <> ?", *excludeID)
	}
	var count int64
	err := db.Count(&count).Error
	return count > 0, err
}

func (r *productRepo) CreateVariant(ctx context.Context, variant *model.ProductVariant) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(variant).Error
}

func (r *productRepo) FindVariants(ctx context.Context, productID uuid.UUID) ([]model.ProductVariant, error) {
	var variants []model.ProductVariant
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC, sku ASC").
		Find(&variants).Error
	return variants, err
}

// UpdateVariant writes the editable columns. The owning product is part of
// the WHERE clause so a variant can never be moved across products.
func (r *productRepo) UpdateVariant(ctx context.Context, variant *model.ProductVariant) error {
	return r.db.WithContext(ctx).
		Model(&model.ProductVariant{}).
		Where("id = ? AND product_id = ?", variant.ID, variant.ProductID).
		Updates(map[string]interface{}{
			"name":             variant.Name,
			"sku":              variant.SKU,
			"price":            variant.Price,
			"stock_quantity":   variant.StockQuantity,
			"size":             variant.Size,
			"color":            variant.Color,
			"attribute_values": variant.Attributes,
			"updated_by":       variant.UpdatedBy,
		}).Error
}

// DeleteVariants removes the given variants of a product together with their
// image rows and attribute values.
func (r *productRepo) DeleteVariants(ctx context.Context, productID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	db := r.db.WithContext(ctx)
	if err := db.Where("product_id = ? AND variant_id IN ?", productID, ids).Delete(&model.ProductImage{}).Error; err != nil {
		return err
	}
	if err := db.Where("variant_id IN ?", ids).Delete(&model.ProductVariantAttributeValue{}).Error; err != nil {
		return err
	}
	return db.Where("product_id = ? AND id IN ?", productID, ids).Delete(&model.ProductVariant{}).Error
}

func (r *productRepo) SKUExists(ctx context.Context, sku string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ProductVariant{}).Where("sku = ?", sku).Count(&count).Error
	return count > 0, err
}

func (r *productRepo) CreateImage(ctx context.Context, image *model.ProductImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *productRepo) FindImages(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) ([]model.ProductImage, error) {
	var images []model.ProductImage
	err := imageScope(r.db.WithContext(ctx), productID, variantID).
		Order("sort_order ASC, created_at ASC").
		Find(&images).Error
	return images, err
}

func (r *productRepo) FindAllImages(ctx context.Context, productID uuid.UUID) ([]model.ProductImage, error) {
	var images []model.ProductImage
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).Find(&images).Error
	return images, err
}

// FindImagesByIDs returns only the images among ids that belong to the given scope.
func (r *productRepo) FindImagesByIDs(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, ids []uuid.UUID) ([]model.ProductImage, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var images []model.ProductImage
	err := imageScope(r.db.WithContext(ctx), productID, variantID).
		Where("id IN ?", ids).
		Find(&images).Error
	return images, err
}

func (r *productRepo) DeleteImages(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.ProductImage{}).Error
}

func (r *productRepo) SetPrimaryImage(ctx context.Context, imageID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.ProductImage{}).Where("id = ?", imageID).Update("is_primary", true).Error
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"marketplace-catalog/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCategoryNotFound  = errors.New("category not found")
	ErrAttributeNotFound = errors.New("attribute not found")
)

// AttributeRepository is the catalog read/write surface: categories,
// attributes, options and the category_attribute pivot.
type AttributeRepository interface {
	WithTx(tx *gorm.DB) AttributeRepository

	FindCategoryAttributes(ctx context.Context, categoryID uint) ([]model.CategoryAttribute, error)
	FindAttributesByIDs(ctx context.Context, ids []uint) (map[uint]*model.Attribute, error)
	FindAttributeByID(ctx context.Context, id uint) (*model.Attribute, error)
	FindCategoryByID(ctx context.Context, id uint) (*model.Category, error)
	CategoryIDsForAttribute(ctx context.Context, attributeID uint) ([]uint, error)
	AttributeSlugExists(ctx context.Context, slug string) (bool, error)
	CategorySlugExists(ctx context.Context, slug string) (bool, error)

	CreateCategory(ctx context.Context, category *model.Category) error
	CreateAttribute(ctx context.Context, attribute *model.Attribute) error
	CreateOption(ctx context.Context, option *model.AttributeOption) error
	AttachToCategory(ctx context.Context, pivot *model.CategoryAttribute) error
}

type attributeRepo struct {
	db *gorm.DB
}

func NewAttributeRepo(db *gorm.DB) AttributeRepository {
	return &attributeRepo{db}
}

func (r *attributeRepo) WithTx(tx *gorm.DB) AttributeRepository {
	return &attributeRepo{tx}
}

func orderedOptions(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC, id ASC")
}

// FindCategoryAttributes returns the pivot rows of a category with their
// attribute and options loaded, ordered by pivot sort order, then attribute
// sort order, then attribute id. An unknown category yields an empty slice.
func (r *attributeRepo) FindCategoryAttributes(ctx context.Context, categoryID uint) ([]model.CategoryAttribute, error) {
	var pivots []model.CategoryAttribute
	err := r.db.WithContext(ctx).
		Preload("Attribute").
		Preload("Attribute.Options", orderedOptions).
		Where("category_id = ?", categoryID).
		Find(&pivots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load category attributes: %w", err)
	}

	// Pivot rows whose attribute vanished are not part of the catalog.
	kept := pivots[:0]
	for _, p := range pivots {
		if p.Attribute != nil {
			kept = append(kept, p)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		if a.Attribute.SortOrder != b.Attribute.SortOrder {
			return a.Attribute.SortOrder < b.Attribute.SortOrder
		}
		return a.AttributeID < b.AttributeID
	})

	return kept, nil
}

func (r *attributeRepo) FindAttributesByIDs(ctx context.Context, ids []uint) (map[uint]*model.Attribute, error) {
	result := make(map[uint]*model.Attribute, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var attributes []model.Attribute
	err := r.db.WithContext(ctx).
		Preload("Options", orderedOptions).
		Where("id IN ?", ids).
		Find(&attributes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load attributes: %w", err)
	}

	for i := range attributes {
		result[attributes[i].ID] = &attributes[i]
	}
	return result, nil
}

func (r *attributeRepo) FindAttributeByID(ctx context.Context, id uint) (*model.Attribute, error) {
	var attribute model.Attribute
	err := r.db.WithContext(ctx).Preload("Options", orderedOptions).First(&attribute, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttributeNotFound
		}
		return nil, fmt.Errorf("failed to find attribute: %w", err)
	}
	return &attribute, nil
}

func (r *attributeRepo) FindCategoryByID(ctx context.Context, id uint) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return &category, nil
}

func (r *attributeRepo) CategoryIDsForAttribute(ctx context.Context, attributeID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&model.CategoryAttribute{}).
		Where("attribute_id = ?", attributeID).
		Pluck("category_id", &ids).Error
	return ids, err
}

func (r *attributeRepo) AttributeSlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Attribute{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *attributeRepo) CategorySlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *attributeRepo) CreateCategory(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *attributeRepo) CreateAttribute(ctx context.Context, attribute *model.Attribute) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(attribute).Error
}

func (r *attributeRepo) CreateOption(ctx context.Context, option *model.AttributeOption) error {
	// Create replaces a false is_active with the column default, so an
	// inactive option is switched off afterwards.
	active := option.IsActive
	if err := r.db.WithContext(ctx).Create(option).Error; err != nil {
		return err
	}
	if active {
		return nil
	}
	option.IsActive = false
	return r.db.WithContext(ctx).Model(option).Update("is_active", false).Error
}

// AttachToCategory inserts or replaces the pivot row for (category, attribute).
func (r *attributeRepo) AttachToCategory(ctx context.Context, pivot *model.CategoryAttribute) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "category_id"}, {Name: "attribute_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_variant", "is_required", "is_filterable", "sort_order"}),
		}).
		Create(pivot).Error
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"marketplace-catalog/internal/cache"
	"marketplace-catalog/internal/model"
	"marketplace-catalog/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const DefaultCombinationLimit = 1000

// CategoryAttributeSets is the full attribute picture of one category.
type CategoryAttributeSets struct {
	Attributes              []model.CategoryAttributeResponse `json:"attributes"`
	VariantAttributes       []model.CategoryAttributeResponse `json:"variant_attributes"`
	SpecificationAttributes []model.CategoryAttributeResponse `json:"specification_attributes"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=255"`
	Slug string `json:"slug" validate:"omitempty,max=255"`
}

type CreateOptionRequest struct {
	Value     string  `json:"value" validate:"required,max=255"`
	Label     *string `json:"label" validate:"omitempty,max=255"`
	ColorCode *string `json:"color_code" validate:"omitempty,max=20"`
	SortOrder int     `json:"sort_order"`
	IsActive  *bool   `json:"is_active"`
}

type CreateAttributeRequest struct {
	Name        string                `json:"name" validate:"required,max=100"`
	Slug        string                `json:"slug" validate:"omitempty,max=100"`
	InputType   model.InputType       `json:"input_type" validate:"omitempty,input_type"`
	Description string                `json:"description"`
	SortOrder   int                   `json:"sort_order"`
	Options     []CreateOptionRequest `json:"options" validate:"dive"`
}

type AttachAttributeRequest struct {
	AttributeID  uint `json:"attribute_id" validate:"required"`
	IsVariant    bool `json:"is_variant"`
	IsRequired   bool `json:"is_required"`
	IsFilterable bool `json:"is_filterable"`
	SortOrder    int  `json:"sort_order"`
}

// CatalogService is the read path sellers use to build products, plus the
// administration calls that shape the catalog.
type CatalogService interface {
	AttributesForCategory(ctx context.Context, categoryID uint) ([]model.CategoryAttributeResponse, error)
	VariantAttributesForCategory(ctx context.Context, categoryID uint) ([]model.CategoryAttributeResponse, error)
	SpecificationAttributesForCategory(ctx context.Context, categoryID uint) ([]model.CategoryAttributeResponse, error)
	AttributeSetsForCategory(ctx context.Context, categoryID uint) (*CategoryAttributeSets, error)
	GenerateCombinations(ctx context.Context, selections Selections) ([]Combination, error)

	CreateCategory(ctx context.Context, req *CreateCategoryRequest) (*model.Category, error)
	CreateAttribute(ctx context.Context, req *CreateAttributeRequest) (*model.Attribute, error)
	AddOption(ctx context.Context, attributeID uint, req *CreateOptionRequest) (*model.AttributeOption, error)
	AttachAttribute(ctx context.Context, categoryID uint, req *AttachAttributeRequest) error
}

type catalogService struct {
	repo             repository.AttributeRepository
	db               *gorm.DB
	cache            cache.Cache
	log              *zap.Logger
	combinationLimit int
}

// NewCatalogService wires the catalog. c may be nil to disable caching and a
// non-positive limit falls back to DefaultCombinationLimit.
func NewCatalogService(repo repository.AttributeRepository, db *gorm.DB, c cache.Cache, log *zap.Logger, combinationLimit int) CatalogService {
	if log == nil {
		log = zap.NewNop()
	}
	if combinationLimit <= 0 {
		combinationLimit = DefaultCombinationLimit
	}
	return &catalogService{
		repo:             repo,
		db:               db,
		cache:            c,
		log:              log,
		combinationLimit: combinationLimit,
	}
}

func categoryCacheKey(categoryID uint) string {
	return fmt.Sprintf("category:%d", categoryID)
}

func (s *catalogService) AttributesForCategory(ctx context.Context, categoryID uint) ([]model.CategoryAttributeResponse, error) {
	key := categoryCacheKey(categoryID)
	if s.cache != nil {
		var cached []model.CategoryAttributeResponse
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
		} else if found {
			return cached, nil
		}
	}

	pivots, err := s.repo.FindCategoryAttributes(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	result := make([]model.CategoryAttributeResponse, 0, len(pivots))
	for _, p := range pivots {
		result = append(result, p.Attribute.ToResponse(p))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result); err != nil {
			s.log.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return result, nil
}

func filterVariant(all []model.CategoryAttributeResponse, variant bool) []model.CategoryAttributeResponse {
	out := make([]model.CategoryAttributeResponse, 0, len(all))
	for _, a := range all {
		if a.IsVariant == variant {
			out = append(out, a)
		}
	}
	return out
}

func (s *catalogService) VariantAttributesForCategory(ctx context.Context, categoryID uint) ([]model.CategoryAttributeResponse, error) {
	all, err := s.AttributesForCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return filterVariant(all, true), nil
}

func (s *catalogService) SpecificationAttributesForCategory(ctx context.Context, categoryID uint) ([]model.CategoryAttributeResponse, error) {
	all, err := s.AttributesForCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return filterVariant(all, false), nil
}

// AttributeSetsForCategory answers all three views from a single lookup.
func (s *catalogService) AttributeSetsForCategory(ctx context.Context, categoryID uint) (*CategoryAttributeSets, error) {
	all, err := s.AttributesForCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return &CategoryAttributeSets{
		Attributes:              all,
		VariantAttributes:       filterVariant(all, true),
		SpecificationAttributes: filterVariant(all, false),
	}, nil
}

// GenerateCombinations resolves the selected attributes and expands them,
// refusing before expansion when the product would exceed the limit.
func (s *catalogService) GenerateCombinations(ctx context.Context, selections Selections) ([]Combination, error) {
	if len(selections) == 0 {
		return []Combination{}, nil
	}

	attributes, err := s.repo.FindAttributesByIDs(ctx, selections.AttributeIDs())
	if err != nil {
		return nil, err
	}

	if n := CountCombinations(selections, attributes); n > s.combinationLimit {
		return nil, fmt.Errorf("%w: %d requested, limit is %d", ErrTooManyCombinations, n, s.combinationLimit)
	}
	return GenerateCombinations(selections, attributes), nil
}

func (s *catalogService) invalidate(ctx context.Context, categoryIDs ...uint) {
	if s.cache == nil || len(categoryIDs) == 0 {
		return
	}
	keys := make([]string, len(categoryIDs))
	for i, id := range categoryIDs {
		keys[i] = categoryCacheKey(id)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Warn("catalog cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (s *catalogService) CreateCategory(ctx context.Context, req *CreateCategoryRequest) (*model.Category, error) {
	name := strings.TrimSpace(req.Name)
	source := req.Slug
	if strings.TrimSpace(source) == "" {
		source = name
	}
	slug, err := uniqueSlug(ctx, source, "category", s.repo.CategorySlugExists)
	if err != nil {
		return nil, err
	}

	category := &model.Category{Name: name, Slug: slug}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	// A cached empty list may exist for this id from a lookup before creation.
	s.invalidate(ctx, category.ID)
	s.log.Info("category created", zap.Uint("category_id", category.ID), zap.String("slug", category.Slug))
	return category, nil
}

func (s *catalogService) CreateAttribute(ctx context.Context, req *CreateAttributeRequest) (*model.Attribute, error) {
	inputType := req.InputType
	if inputType == "" {
		inputType = model.InputSelect
	}
	if !inputType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidInputType, inputType)
	}
	if inputType != model.InputSelect && len(req.Options) > 0 {
		return nil, fmt.Errorf("%w: only select attributes carry options", ErrInvalidInputType)
	}

	slug := Slugify(req.Slug)
	if slug == "" {
		slug = Slugify(req.Name)
	}
	if slug == "" {
		return nil, fmt.Errorf("%w: attribute name has no usable characters", ErrDuplicateAttribute)
	}

	attribute := &model.Attribute{
		Name:        strings.TrimSpace(req.Name),
		Slug:        slug,
		InputType:   inputType,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		taken, err := repo.AttributeSlugExists(ctx, slug)
		if err != nil {
			return fmt.Errorf("failed to check attribute slug: %w", err)
		}
		if taken {
			return fmt.Errorf("%w: %s", ErrDuplicateAttribute, slug)
		}

		if err := repo.CreateAttribute(ctx, attribute); err != nil {
			return fmt.Errorf("failed to create attribute: %w", err)
		}

		for i := range req.Options {
			option := newOption(attribute.ID, &req.Options[i], i)
			if err := repo.CreateOption(ctx, option); err != nil {
				return fmt.Errorf("failed to create option %q: %w", option.Value, err)
			}
			attribute.Options = append(attribute.Options, *option)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("attribute created",
		zap.Uint("attribute_id", attribute.ID),
		zap.String("slug", attribute.Slug),
		zap.Int("options", len(attribute.Options)),
	)
	return attribute, nil
}

// newOption builds an option row; position is the fallback sort order.
func newOption(attributeID uint, req *CreateOptionRequest, position int) *model.AttributeOption {
	sortOrder := req.SortOrder
	if sortOrder == 0 {
		sortOrder = position
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return &model.AttributeOption{
		AttributeID: attributeID,
		Value:       strings.TrimSpace(req.Value),
		Label:       req.Label,
		ColorCode:   req.ColorCode,
		SortOrder:   sortOrder,
		IsActive:    active,
	}
}

func (s *catalogService) AddOption(ctx context.Context, attributeID uint, req *CreateOptionRequest) (*model.AttributeOption, error) {
	attribute, err := s.repo.FindAttributeByID(ctx, attributeID)
	if err != nil {
		if errors.Is(err, repository.ErrAttributeNotFound) {
			return nil, ErrAttributeNotFound
		}
		return nil, err
	}
	if !attribute.IsSelectable() {
		return nil, fmt.Errorf("%w: %s is a %s attribute", ErrInvalidInputType, attribute.Slug, attribute.InputType)
	}

	option := newOption(attribute.ID, req, len(attribute.Options))
	if err := s.repo.CreateOption(ctx, option); err != nil {
		return nil, fmt.Errorf("failed to create option: %w", err)
	}

	categoryIDs, err := s.repo.CategoryIDsForAttribute(ctx, attribute.ID)
	if err != nil {
		s.log.Warn("failed to list categories for cache invalidation", zap.Uint("attribute_id", attribute.ID), zap.Error(err))
	}
	s.invalidate(ctx, categoryIDs...)

	return option, nil
}

func (s *catalogService) AttachAttribute(ctx context.Context, categoryID uint, req *AttachAttributeRequest) error {
	if _, err := s.repo.FindCategoryByID(ctx, categoryID); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	if _, err := s.repo.FindAttributeByID(ctx, req.AttributeID); err != nil {
		if errors.Is(err, repository.ErrAttributeNotFound) {
			return ErrAttributeNotFound
		}
		return err
	}

	pivot := &model.CategoryAttribute{
		CategoryID:   categoryID,
		AttributeID:  req.AttributeID,
		IsVariant:    req.IsVariant,
		IsRequired:   req.IsRequired,
		IsFilterable: req.IsFilterable,
		SortOrder:    req.SortOrder,
	}
	if err := s.repo.AttachToCategory(ctx, pivot); err != nil {
		return fmt.Errorf("failed to attach attribute: %w", err)
	}

	s.invalidate(ctx, categoryID)
	return nil
}

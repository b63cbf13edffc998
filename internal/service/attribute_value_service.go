package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"marketplace-catalog/internal/model"
	"marketplace-catalog/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResolvedValue is an attribute value checked against the catalog and ready
// to be stored.
type ResolvedValue struct {
	Attribute *model.Attribute
	Text      *string
	Option    *model.AttributeOption
}

// OptionID is nil unless the value references an option of a select attribute.
func (v ResolvedValue) OptionID() *uint {
	if v.Option == nil {
		return nil
	}
	id := v.Option.ID
	return &id
}

// DisplayText is what a shopper sees for this value.
func (v ResolvedValue) DisplayText() string {
	if v.Text != nil {
		return *v.Text
	}
	if v.Option != nil {
		return v.Option.DisplayLabel()
	}
	return ""
}

// AttributeValueService stores the attribute values of products and variants.
// Every save replaces the owner's complete set.
type AttributeValueService interface {
	Resolve(ctx context.Context, tx *gorm.DB, values model.AttributeValues) ([]ResolvedValue, error)
	SaveProductAttributes(ctx context.Context, tx *gorm.DB, productID uuid.UUID, values model.AttributeValues) error
	SaveVariantAttributes(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, values model.AttributeValues) error
	VariantCombinationExists(ctx context.Context, tx *gorm.DB, productID uuid.UUID, combination map[uint]uint, excludeVariantID *uuid.UUID) (bool, error)
	VariantValues(ctx context.Context, tx *gorm.DB, variantID uuid.UUID) (model.AttributeValues, error)
}

type attributeValueService struct {
	attributeRepo repository.AttributeRepository
	valueRepo     repository.AttributeValueRepository
	db            *gorm.DB
}

func NewAttributeValueService(aRepo repository.AttributeRepository, vRepo repository.AttributeValueRepository, db *gorm.DB) AttributeValueService {
	return &attributeValueService{
		attributeRepo: aRepo,
		valueRepo:     vRepo,
		db:            db,
	}
}

// inTx runs fn in tx, or in a new transaction when tx is nil.
func (s *attributeValueService) inTx(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// Resolve drops empty values and values of unknown attributes, and keeps an
// option reference only when the attribute is a select and owns the option.
// The result is ordered by attribute id.
func (s *attributeValueService) Resolve(ctx context.Context, tx *gorm.DB, values model.AttributeValues) ([]ResolvedValue, error) {
	if len(values) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(values))
	for id, v := range values {
		if !v.IsEmpty() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	repo := s.attributeRepo
	if tx != nil {
		repo = repo.WithTx(tx)
	}
	attributes, err := repo.FindAttributesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	resolved := make([]ResolvedValue, 0, len(ids))
	for _, id := range ids {
		attribute, ok := attributes[id]
		if !ok {
			continue
		}
		v := values[id]

		var rv ResolvedValue
		rv.Attribute = attribute
		if text := strings.TrimSpace(v.Text); text != "" {
			rv.Text = &text
		}
		if v.Kind == model.KindOptionRef && attribute.IsSelectable() {
			for i := range attribute.Options {
				if attribute.Options[i].ID == v.OptionID {
					rv.Option = &attribute.Options[i]
					break
				}
			}
			if rv.Option != nil && rv.Text == nil {
				label := rv.Option.DisplayLabel()
				rv.Text = &label
			}
		}
		if rv.Text == nil && rv.Option == nil {
			continue
		}
		resolved = append(resolved, rv)
	}
	return resolved, nil
}

func (s *attributeValueService) SaveProductAttributes(ctx context.Context, tx *gorm.DB, productID uuid.UUID, values model.AttributeValues) error {
	return s.inTx(ctx, tx, func(tx *gorm.DB) error {
		resolved, err := s.Resolve(ctx, tx, values)
		if err != nil {
			return err
		}

		rows := make([]model.ProductAttributeValue, 0, len(resolved))
		for _, rv := range resolved {
			rows = append(rows, model.ProductAttributeValue{
				ProductID:         productID,
				AttributeID:       rv.Attribute.ID,
				Value:             rv.Text,
				AttributeOptionID: rv.OptionID(),
			})
		}
		if err := s.valueRepo.WithTx(tx).ReplaceProductValues(ctx, productID, rows); err != nil {
			return fmt.Errorf("failed to save product attributes: %w", err)
		}
		return nil
	})
}

func (s *attributeValueService) SaveVariantAttributes(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, values model.AttributeValues) error {
	return s.inTx(ctx, tx, func(tx *gorm.DB) error {
		resolved, err := s.Resolve(ctx, tx, values)
		if err != nil {
			return err
		}

		rows := make([]model.ProductVariantAttributeValue, 0, len(resolved))
		for _, rv := range resolved {
			rows = append(rows, model.ProductVariantAttributeValue{
				VariantID:         variantID,
				AttributeID:       rv.Attribute.ID,
				Value:             rv.Text,
				AttributeOptionID: rv.OptionID(),
			})
		}
		if err := s.valueRepo.WithTx(tx).ReplaceVariantValues(ctx, variantID, rows); err != nil {
			return fmt.Errorf("failed to save variant attributes: %w", err)
		}
		return nil
	})
}

// VariantCombinationExists reports whether another variant of the product has
// exactly these attribute/option pairs. A variant carrying extra option pairs
// is a different combination; free-text values are not part of it.
func (s *attributeValueService) VariantCombinationExists(ctx context.Context, tx *gorm.DB, productID uuid.UUID, combination map[uint]uint, excludeVariantID *uuid.UUID) (bool, error) {
	if len(combination) == 0 {
		return false, nil
	}

	repo := s.valueRepo
	if tx != nil {
		repo = repo.WithTx(tx)
	}
	rows, err := repo.FindSiblingVariantValues(ctx, productID, excludeVariantID)
	if err != nil {
		return false, fmt.Errorf("failed to load variant attributes: %w", err)
	}

	type tally struct {
		total   int
		matched int
	}
	byVariant := make(map[uuid.UUID]*tally)
	for _, row := range rows {
		if row.AttributeOptionID == nil {
			continue
		}
		t, ok := byVariant[row.VariantID]
		if !ok {
			t = &tally{}
			byVariant[row.VariantID] = t
		}
		t.total++
		want, ok := combination[row.AttributeID]
		if ok && *row.AttributeOptionID == want {
			t.matched++
		}
	}

	for _, t := range byVariant {
		if t.total == len(combination) && t.matched == len(combination) {
			return true, nil
		}
	}
	return false, nil
}

// VariantValues reads back the stored values of a variant in input form.
func (s *attributeValueService) VariantValues(ctx context.Context, tx *gorm.DB, variantID uuid.UUID) (model.AttributeValues, error) {
	repo := s.valueRepo
	if tx != nil {
		repo = repo.WithTx(tx)
	}
	rows, err := repo.FindVariantValues(ctx, variantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load variant attributes: %w", err)
	}

	values := make(model.AttributeValues, len(rows))
	for _, row := range rows {
		var text string
		if row.Value != nil {
			text = *row.Value
		}
		if row.AttributeOptionID != nil {
			values[row.AttributeID] = model.OptionRef(*row.AttributeOptionID, text)
		} else {
			values[row.AttributeID] = model.FreeText(text)
		}
	}
	return values, nil
}

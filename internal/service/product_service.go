package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"marketplace-catalog/internal/model"
	"marketplace-catalog/internal/repository"
	"marketplace-catalog/internal/storage"
	"marketplace-catalog/internal/ws"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultVariantName = "Default"

type ProductService interface {
	Create(ctx context.Context, actor Actor, input *CreateProductInput) (*model.Product, error)
	Update(ctx context.Context, productID uuid.UUID, actor Actor, input *UpdateProductInput) (*model.Product, error)
	Delete(ctx context.Context, productID uuid.UUID, actor Actor) error
	Get(ctx context.Context, productID uuid.UUID, actor Actor) (*model.Product, error)
	VariantCombinationExists(ctx context.Context, productID uuid.UUID, actor Actor, input *CheckCombinationInput) (bool, error)
}

type productService struct {
	productRepo   repository.ProductRepository
	attributeRepo repository.AttributeRepository
	values        AttributeValueService
	store         storage.ObjectStore
	db            *gorm.DB
	wsHub         *ws.Hub
	log           *zap.Logger
	newSKU        SKUGenerator
}

func NewProductService(
	pRepo repository.ProductRepository,
	aRepo repository.AttributeRepository,
	values AttributeValueService,
	store storage.ObjectStore,
	db *gorm.DB,
	hub *ws.Hub,
	log *zap.Logger,
	skuGen SKUGenerator,
) ProductService {
	if log == nil {
		log = zap.NewNop()
	}
	return &productService{
		productRepo:   pRepo,
		attributeRepo: aRepo,
		values:        values,
		store:         store,
		db:            db,
		wsHub:         hub,
		log:           log,
		newSKU:        skuGen,
	}
}

// uploadTracker remembers what one transaction wrote to the object store, so
// it can be removed on rollback, and which objects lost their rows, so they
// are only removed once the transaction commits.
type uploadTracker struct {
	store          storage.ObjectStore
	keys           []string
	pendingDeletes []string
}

func (t *uploadTracker) put(ctx context.Context, key string, data []byte, contentType string) (*storage.ObjectInfo, error) {
	info, err := t.store.Put(ctx, key, data, contentType)
	if err != nil {
		return nil, err
	}
	t.keys = append(t.keys, info.Key)
	return info, nil
}

// discard deletes every tracked object. It uses a fresh context because the
// request context may be the reason the transaction failed.
func (t *uploadTracker) discard(log *zap.Logger) {
	ctx := context.Background()
	for _, key := range t.keys {
		if err := t.store.Delete(ctx, key); err != nil {
			log.Warn("failed to remove orphaned upload", zap.String("key", key), zap.Error(err))
		}
	}
	t.keys = nil
}

func (t *uploadTracker) remove(key string) {
	t.pendingDeletes = append(t.pendingDeletes, key)
}

// flush deletes the objects queued by remove. The rows are already gone, so a
// failure only leaves an orphaned file behind.
func (t *uploadTracker) flush(log *zap.Logger) {
	ctx := context.Background()
	for _, key := range t.pendingDeletes {
		if err := t.store.Delete(ctx, key); err != nil {
			log.Warn("failed to remove deleted image file", zap.String("key", key), zap.Error(err))
		}
	}
	t.pendingDeletes = nil
}

// transact runs fn in one transaction. Uploads are cleaned up when it fails;
// queued deletes run only after it commits.
func (s *productService) transact(ctx context.Context, fn func(tx *gorm.DB, uploads *uploadTracker) error) error {
	uploads := &uploadTracker{store: s.store}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx, uploads)
	})
	if err != nil {
		uploads.discard(s.log)
		return err
	}
	uploads.flush(s.log)
	return nil
}

func productPrefix(productID uuid.UUID) string {
	return fmt.Sprintf("products/%s/", productID)
}

func imageKey(productID uuid.UUID, variantID *uuid.UUID, imageID uuid.UUID, filename string) string {
	name := fmt.Sprintf("%s-%s", imageID, storage.SanitizeFilename(filename))
	if variantID == nil {
		return path.Join("products", productID.String(), name)
	}
	return path.Join("products", productID.String(), "variants", variantID.String(), name)
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		return ErrProductNotFound
	case errors.Is(err, repository.ErrCategoryNotFound):
		return ErrCategoryNotFound
	case errors.Is(err, repository.ErrAttributeNotFound):
		return ErrAttributeNotFound
	}
	return err
}

// loadOwned returns the product when it exists and belongs to the actor's
// shop. Another shop's product is reported as not found.
func (s *productService) loadOwned(ctx context.Context, repo repository.ProductRepository, productID uuid.UUID, actor Actor, lock bool) (*model.Product, error) {
	var (
		product *model.Product
		err     error
	)
	if lock {
		product, err = repo.FindByIDForUpdate(ctx, productID)
	} else {
		product, err = repo.FindByID(ctx, productID)
	}
	if err != nil {
		return nil, mapRepoError(err)
	}
	if product.ShopID != actor.ShopID {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *productService) Get(ctx context.Context, productID uuid.UUID, actor Actor) (*model.Product, error) {
	if _, err := s.loadOwned(ctx, s.productRepo, productID, actor, false); err != nil {
		return nil, err
	}
	product, err := s.productRepo.LoadFull(ctx, productID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return product, nil
}

func (s *productService) Create(ctx context.Context, actor Actor, input *CreateProductInput) (*model.Product, error) {
	basePrice, err := input.BasePrice.Amount()
	if err != nil {
		return nil, err
	}
	var comparePrice *int64
	if input.ComparePrice != nil && input.ComparePrice.IsSet() {
		amount, err := input.ComparePrice.Amount()
		if err != nil {
			return nil, err
		}
		comparePrice = &amount
	}

	status := input.Status
	if status == "" {
		status = model.StatusDraft
	}

	auditor := actor.SellerID.String()
	product := &model.Product{
		BaseModel: model.BaseModel{
			ID:        uuid.New(),
			CreatedBy: auditor,
			UpdatedBy: auditor,
		},
		ShopID:        actor.ShopID,
		SellerID:      actor.SellerID,
		CategoryID:    input.CategoryID,
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		BasePrice:     basePrice,
		ComparePrice:  comparePrice,
		StockQuantity: input.StockQuantity,
		Status:        status,
	}

	err = s.transact(ctx, func(tx *gorm.DB, uploads *uploadTracker) error {
		repo := s.productRepo.WithTx(tx)

		if _, err := s.attributeRepo.WithTx(tx).FindCategoryByID(ctx, input.CategoryID); err != nil {
			return mapRepoError(err)
		}

		slug, err := uniqueSlug(ctx, product.Name, "product", func(ctx context.Context, candidate string) (bool, error) {
			return repo.SlugExists(ctx, candidate, nil)
		})
		if err != nil {
			return err
		}
		product.Slug = slug

		if err := repo.Create(ctx, product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		if err := s.storeImages(ctx, tx, uploads, product.ID, nil, input.Images, auditor); err != nil {
			return err
		}

		for i := range input.Variants {
			if _, err := s.createVariant(ctx, tx, uploads, product, &input.Variants[i], auditor); err != nil {
				return fmt.Errorf("variant %d: %w", i+1, err)
			}
		}

		if len(input.Attributes) > 0 {
			if err := s.values.SaveProductAttributes(ctx, tx, product.ID, input.Attributes); err != nil {
				return err
			}
		}

		return repo.RecomputeTotalQuantity(ctx, product.ID)
	})
	if err != nil {
		return nil, err
	}

	full, err := s.productRepo.LoadFull(ctx, product.ID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.log.Info("product created",
		zap.String("product_id", full.ID.String()),
		zap.String("shop_id", actor.ShopID.String()),
		zap.Int("variants", len(full.Variants)),
	)
	s.publish("product_created", full, actor, fmt.Sprintf("%s created product '%s'", actor.Name, full.Name))
	return full, nil
}

func (s *productService) Update(ctx context.Context, productID uuid.UUID, actor Actor, input *UpdateProductInput) (*model.Product, error) {
	auditor := actor.SellerID.String()

	err := s.transact(ctx, func(tx *gorm.DB, uploads *uploadTracker) error {
		repo := s.productRepo.WithTx(tx)

		product, err := s.loadOwned(ctx, repo, productID, actor, true)
		if err != nil {
			return err
		}

		fields, err := s.productChanges(ctx, tx, product, input)
		if err != nil {
			return err
		}
		if len(fields) > 0 {
			fields["updated_by"] = auditor
			if err := repo.UpdateFields(ctx, product.ID, fields); err != nil {
				return fmt.Errorf("failed to update product: %w", err)
			}
		}

		if input.Attributes != nil {
			if err := s.values.SaveProductAttributes(ctx, tx, product.ID, input.Attributes); err != nil {
				return err
			}
		}

		if len(input.DeleteImages) > 0 {
			if err := s.removeImages(ctx, tx, uploads, product.ID, nil, input.DeleteImages); err != nil {
				return err
			}
		}
		if err := s.storeImages(ctx, tx, uploads, product.ID, nil, input.Images, auditor); err != nil {
			return err
		}

		if input.Variants != nil {
			if err := s.reconcileVariants(ctx, tx, uploads, product, *input.Variants, auditor); err != nil {
				return err
			}
		}

		return repo.RecomputeTotalQuantity(ctx, product.ID)
	})
	if err != nil {
		return nil, err
	}

	full, err := s.productRepo.LoadFull(ctx, productID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.log.Info("product updated",
		zap.String("product_id", full.ID.String()),
		zap.Int("variants", len(full.Variants)),
	)
	s.publish("product_updated", full, actor, fmt.Sprintf("%s updated product '%s'", actor.Name, full.Name))
	return full, nil
}

// productChanges applies the present fields of input to product and returns
// the matching column updates.
func (s *productService) productChanges(ctx context.Context, tx *gorm.DB, product *model.Product, input *UpdateProductInput) (map[string]interface{}, error) {
	fields := make(map[string]interface{})

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name != product.Name {
			repo := s.productRepo.WithTx(tx)
			slug, err := uniqueSlug(ctx, name, "product", func(ctx context.Context, candidate string) (bool, error) {
				return repo.SlugExists(ctx, candidate, &product.ID)
			})
			if err != nil {
				return nil, err
			}
			product.Name, product.Slug = name, slug
			fields["name"] = name
			fields["slug"] = slug
		}
	}
	if input.Description != nil {
		product.Description = *input.Description
		fields["description"] = *input.Description
	}
	if input.CategoryID != nil && *input.CategoryID != product.CategoryID {
		if _, err := s.attributeRepo.WithTx(tx).FindCategoryByID(ctx, *input.CategoryID); err != nil {
			return nil, mapRepoError(err)
		}
		product.CategoryID = *input.CategoryID
		fields["category_id"] = *input.CategoryID
	}
	if input.BasePrice != nil {
		amount, err := input.BasePrice.Amount()
		if err != nil {
			return nil, err
		}
		product.BasePrice = amount
		fields["base_price"] = amount
	}
	if input.ComparePrice.Present() {
		if input.ComparePrice.IsSet() {
			amount, err := input.ComparePrice.Amount()
			if err != nil {
				return nil, err
			}
			product.ComparePrice = &amount
			fields["compare_price"] = amount
		} else {
			product.ComparePrice = nil
			fields["compare_price"] = nil
		}
	}
	if input.StockQuantity != nil {
		product.StockQuantity = *input.StockQuantity
		fields["stock_quantity"] = *input.StockQuantity
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, fmt.Errorf("invalid status %q", *input.Status)
		}
		product.Status = *input.Status
		fields["status"] = *input.Status
	}
	return fields, nil
}

func (s *productService) Delete(ctx context.Context, productID uuid.UUID, actor Actor) error {
	var deleted *model.Product

	err := s.transact(ctx, func(tx *gorm.DB, uploads *uploadTracker) error {
		repo := s.productRepo.WithTx(tx)

		product, err := s.loadOwned(ctx, repo, productID, actor, true)
		if err != nil {
			return err
		}

		images, err := repo.FindAllImages(ctx, product.ID)
		if err != nil {
			return fmt.Errorf("failed to list product images: %w", err)
		}
		for _, img := range images {
			uploads.remove(img.Path)
		}

		// Files whose rows were lost still live under the product prefix.
		leftovers, err := s.store.List(ctx, productPrefix(product.ID))
		if err != nil {
			return fmt.Errorf("%w: list %s: %w", ErrStorage, productPrefix(product.ID), err)
		}
		for _, obj := range leftovers {
			uploads.remove(obj.Key)
		}

		if err := repo.Delete(ctx, product.ID); err != nil {
			return mapRepoError(err)
		}
		deleted = product
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("product deleted", zap.String("product_id", productID.String()))
	s.publish("product_deleted", deleted, actor, fmt.Sprintf("%s deleted product '%s'", actor.Name, deleted.Name))
	return nil
}

func (s *productService) VariantCombinationExists(ctx context.Context, productID uuid.UUID, actor Actor, input *CheckCombinationInput) (bool, error) {
	if _, err := s.loadOwned(ctx, s.productRepo, productID, actor, false); err != nil {
		return false, err
	}
	return s.values.VariantCombinationExists(ctx, nil, productID, input.Combination, input.ExcludeVariantID)
}

// variantPlan splits an incoming variant list into three disjoint sets.
type variantPlan struct {
	create []*VariantInput
	update []variantUpdate
	remove []model.ProductVariant
}

type variantUpdate struct {
	existing *model.ProductVariant
	input    *VariantInput
}

// planVariantDiff matches incoming variants to existing ones by id. Incoming
// variants without an id are created. An id that is not one of the existing
// variants, or that was already matched, is ignored. Existing variants that
// nobody matched are removed.
func planVariantDiff(existing []model.ProductVariant, incoming []VariantInput) variantPlan {
	byID := make(map[uuid.UUID]*model.ProductVariant, len(existing))
	for i := range existing {
		byID[existing[i].ID] = &existing[i]
	}

	var plan variantPlan
	kept := make(map[uuid.UUID]bool, len(incoming))
	for i := range incoming {
		in := &incoming[i]
		if in.ID == nil {
			plan.create = append(plan.create, in)
			continue
		}
		current, ok := byID[*in.ID]
		if !ok || kept[*in.ID] {
			continue
		}
		kept[*in.ID] = true
		plan.update = append(plan.update, variantUpdate{existing: current, input: in})
	}

	for _, v := range existing {
		if !kept[v.ID] {
			plan.remove = append(plan.remove, v)
		}
	}
	return plan
}

func (s *productService) reconcileVariants(ctx context.Context, tx *gorm.DB, uploads *uploadTracker, product *model.Product, incoming []VariantInput, auditor string) error {
	repo := s.productRepo.WithTx(tx)

	existing, err := repo.FindVariants(ctx, product.ID)
	if err != nil {
		return fmt.Errorf("failed to load variants: %w", err)
	}
	plan := planVariantDiff(existing, incoming)

	if len(plan.remove) > 0 {
		ids := make([]uuid.UUID, 0, len(plan.remove))
		for _, v := range plan.remove {
			vid := v.ID
			images, err := repo.FindImages(ctx, product.ID, &vid)
			if err != nil {
				return fmt.Errorf("failed to list variant images: %w", err)
			}
			for _, img := range images {
				uploads.remove(img.Path)
			}
			ids = append(ids, v.ID)
		}
		if err := repo.DeleteVariants(ctx, product.ID, ids); err != nil {
			return fmt.Errorf("failed to delete variants: %w", err)
		}
	}

	for _, u := range plan.update {
		if err := s.updateVariant(ctx, tx, uploads, product, u.existing, u.input, auditor); err != nil {
			return fmt.Errorf("variant %s: %w", u.existing.ID, err)
		}
	}

	for i, in := range plan.create {
		if _, err := s.createVariant(ctx, tx, uploads, product, in, auditor); err != nil {
			return fmt.Errorf("new variant %d: %w", i+1, err)
		}
	}
	return nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// variantName joins size and color with " - ", falls back to the option
// labels joined with " / ", and finally to "Default".
func variantName(size, color string, resolved []ResolvedValue) string {
	var parts []string
	for _, p := range []string{size, color} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " - ")
	}

	for _, rv := range resolved {
		if label := rv.DisplayText(); label != "" {
			parts = append(parts, label)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " / ")
	}
	return defaultVariantName
}

// variantAttributeMap is the compact JSON copy of a variant's discriminators,
// keyed by "size", "color" and attribute slugs.
func variantAttributeMap(size, color string, resolved []ResolvedValue) datatypes.JSONMap {
	m := datatypes.JSONMap{}
	if size != "" {
		m["size"] = size
	}
	if color != "" {
		m["color"] = color
	}
	for _, rv := range resolved {
		if text := rv.DisplayText(); text != "" {
			m[rv.Attribute.Slug] = text
		}
	}
	return m
}

func optionCombination(resolved []ResolvedValue) map[uint]uint {
	combo := make(map[uint]uint, len(resolved))
	for _, rv := range resolved {
		if rv.Option != nil {
			combo[rv.Attribute.ID] = rv.Option.ID
		}
	}
	return combo
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *productService) checkCombination(ctx context.Context, tx *gorm.DB, productID uuid.UUID, resolved []ResolvedValue, exclude *uuid.UUID) error {
	combo := optionCombination(resolved)
	if len(combo) == 0 {
		return nil
	}
	exists, err := s.values.VariantCombinationExists(ctx, tx, productID, combo, exclude)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateVariant
	}
	return nil
}

func (s *productService) createVariant(ctx context.Context, tx *gorm.DB, uploads *uploadTracker, product *model.Product, in *VariantInput, auditor string) (*model.ProductVariant, error) {
	repo := s.productRepo.WithTx(tx)

	resolved, err := s.values.Resolve(ctx, tx, in.Attributes)
	if err != nil {
		return nil, err
	}
	if err := s.checkCombination(ctx, tx, product.ID, resolved, nil); err != nil {
		return nil, err
	}

	price := product.BasePrice
	if in.Price.IsSet() {
		if price, err = in.Price.Amount(); err != nil {
			return nil, err
		}
	}

	sku := strings.TrimSpace(in.SKU)
	if sku != "" {
		taken, err := repo.SKUExists(ctx, sku)
		if err != nil {
			return nil, fmt.Errorf("failed to check SKU: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSKU, sku)
		}
	} else {
		if sku, err = uniqueSKU(ctx, s.newSKU, product.ID, repo.SKUExists); err != nil {
			return nil, err
		}
	}

	stock := 0
	if in.StockQuantity != nil {
		stock = *in.StockQuantity
	}

	size, color := trimmed(in.Size), trimmed(in.Color)
	variant := &model.ProductVariant{
		BaseModel: model.BaseModel{
			ID:        uuid.New(),
			CreatedBy: auditor,
			UpdatedBy: auditor,
		},
		ProductID:     product.ID,
		Name:          variantName(size, color, resolved),
		SKU:           sku,
		Price:         price,
		StockQuantity: stock,
		Size:          optional(size),
		Color:         optional(color),
		Attributes:    variantAttributeMap(size, color, resolved),
	}
	if err := repo.CreateVariant(ctx, variant); err != nil {
		return nil, fmt.Errorf("failed to create variant: %w", err)
	}

	if len(resolved) > 0 {
		if err := s.values.SaveVariantAttributes(ctx, tx, variant.ID, in.Attributes); err != nil {
			return nil, err
		}
	}

	if err := s.storeImages(ctx, tx, uploads, product.ID, &variant.ID, in.Images, auditor); err != nil {
		return nil, err
	}
	return variant, nil
}

func (s *productService) updateVariant(ctx context.Context, tx *gorm.DB, uploads *uploadTracker, product *model.Product, current *model.ProductVariant, in *VariantInput, auditor string) error {
	repo := s.productRepo.WithTx(tx)
	updated := *current
	updated.UpdatedBy = auditor

	if in.Price.IsSet() {
		amount, err := in.Price.Amount()
		if err != nil {
			return err
		}
		updated.Price = amount
	}
	if in.StockQuantity != nil {
		updated.StockQuantity = *in.StockQuantity
	}

	if sku := strings.TrimSpace(in.SKU); sku != "" && sku != current.SKU {
		taken, err := repo.SKUExists(ctx, sku)
		if err != nil {
			return fmt.Errorf("failed to check SKU: %w", err)
		}
		if taken {
			return fmt.Errorf("%w: %s", ErrDuplicateSKU, sku)
		}
		updated.SKU = sku
	}

	if in.Size != nil || in.Color != nil || in.Attributes != nil {
		size, color := trimmed(current.Size), trimmed(current.Color)
		if in.Size != nil {
			size = trimmed(in.Size)
		}
		if in.Color != nil {
			color = trimmed(in.Color)
		}

		values := in.Attributes
		if values == nil {
			stored, err := s.values.VariantValues(ctx, tx, current.ID)
			if err != nil {
				return err
			}
			values = stored
		}
		resolved, err := s.values.Resolve(ctx, tx, values)
		if err != nil {
			return err
		}

		if in.Attributes != nil {
			if err := s.checkCombination(ctx, tx, product.ID, resolved, &current.ID); err != nil {
				return err
			}
			if err := s.values.SaveVariantAttributes(ctx, tx, current.ID, in.Attributes); err != nil {
				return err
			}
		}

		updated.Size, updated.Color = optional(size), optional(color)
		updated.Name = variantName(size, color, resolved)
		updated.Attributes = variantAttributeMap(size, color, resolved)
	}

	if err := repo.UpdateVariant(ctx, &updated); err != nil {
		return fmt.Errorf("failed to update variant: %w", err)
	}

	if len(in.DeleteImages) > 0 {
		if err := s.removeImages(ctx, tx, uploads, product.ID, &current.ID, in.DeleteImages); err != nil {
			return err
		}
	}
	return s.storeImages(ctx, tx, uploads, product.ID, &current.ID, in.Images, auditor)
}

// storeImages writes the uploads into one image scope and appends their rows.
// The first image of a scope without a primary becomes the primary.
func (s *productService) storeImages(ctx context.Context, tx *gorm.DB, uploads *uploadTracker, productID uuid.UUID, variantID *uuid.UUID, files []ImageUpload, auditor string) error {
	if len(files) == 0 {
		return nil
	}
	repo := s.productRepo.WithTx(tx)

	existing, err := repo.FindImages(ctx, productID, variantID)
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}
	hasPrimary := false
	nextSort := 0
	for _, img := range existing {
		hasPrimary = hasPrimary || img.IsPrimary
		if img.SortOrder >= nextSort {
			nextSort = img.SortOrder + 1
		}
	}

	for i := range files {
		file := &files[i]
		if len(file.Data) == 0 {
			return fmt.Errorf("%w: %s is empty", ErrInvalidImage, file.Filename)
		}
		detected := mimetype.Detect(file.Data)
		if !strings.HasPrefix(detected.String(), "image/") {
			return fmt.Errorf("%w: %s is %s", ErrInvalidImage, file.Filename, detected.String())
		}

		image := &model.ProductImage{
			BaseModel: model.BaseModel{
				ID:        uuid.New(),
				CreatedBy: auditor,
				UpdatedBy: auditor,
			},
			ProductID: productID,
			VariantID: variantID,
			SortOrder: nextSort,
			IsPrimary: !hasPrimary,
		}

		key := imageKey(productID, variantID, image.ID, file.Filename)
		info, err := uploads.put(ctx, key, file.Data, detected.String())
		if err != nil {
			return fmt.Errorf("%w: put %s: %w", ErrStorage, key, err)
		}
		image.Path = info.Key
		image.URL = s.store.URL(info.Key)

		if err := repo.CreateImage(ctx, image); err != nil {
			return fmt.Errorf("failed to save image: %w", err)
		}
		hasPrimary = true
		nextSort++
	}
	return nil
}

// removeImages deletes the listed images of one scope and queues their files.
// Ids from other scopes are ignored. A deleted primary hands over to the first
// remaining image.
func (s *productService) removeImages(ctx context.Context, tx *gorm.DB, uploads *uploadTracker, productID uuid.UUID, variantID *uuid.UUID, ids []uuid.UUID) error {
	repo := s.productRepo.WithTx(tx)

	images, err := repo.FindImagesByIDs(ctx, productID, variantID, ids)
	if err != nil {
		return fmt.Errorf("failed to find images: %w", err)
	}
	if len(images) == 0 {
		return nil
	}

	toDelete := make([]uuid.UUID, 0, len(images))
	primaryRemoved := false
	for _, img := range images {
		uploads.remove(img.Path)
		toDelete = append(toDelete, img.ID)
		primaryRemoved = primaryRemoved || img.IsPrimary
	}
	if err := repo.DeleteImages(ctx, toDelete); err != nil {
		return fmt.Errorf("failed to delete images: %w", err)
	}

	if !primaryRemoved {
		return nil
	}
	remaining, err := repo.FindImages(ctx, productID, variantID)
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}
	if len(remaining) == 0 {
		return nil
	}
	return repo.SetPrimaryImage(ctx, remaining[0].ID)
}

func (s *productService) publish(action string, product *model.Product, actor Actor, message string) {
	if product == nil {
		return
	}
	s.wsHub.Publish(ws.Event{
		Type:   "product",
		Action: action,
		Product: map[string]interface{}{
			"id":             product.ID,
			"shop_id":        product.ShopID,
			"name":           product.Name,
			"slug":           product.Slug,
			"status":         product.Status,
			"total_quantity": product.TotalQuantity,
			"variants":       len(product.Variants),
		},
		Actor: map[string]interface{}{
			"id":   actor.SellerID,
			"name": actor.Name,
		},
		Message: message,
	})
}

package service

import (
	"context"
	"testing"

	"marketplace-catalog/internal/model"
	"marketplace-catalog/internal/repository"
	"marketplace-catalog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCatalogService(t *testing.T, limit int) (CatalogService, *testutil.Catalog, *testutil.MemoryCache, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	catalog := testutil.SeedCatalog(t, db)
	c := testutil.NewMemoryCache()
	return NewCatalogService(repository.NewAttributeRepo(db), db, c, nil, limit), catalog, c, db
}

func attributeNames(attrs []model.CategoryAttributeResponse) []string {
	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.Name
	}
	return names
}

func TestCatalogService_AttributesForCategory(t *testing.T) {
	svc, c, _, _ := newCatalogService(t, 0)
	ctx := context.Background()

	attrs, err := svc.AttributesForCategory(ctx, c.Fashion.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"Color", "Size", "Material"}, attributeNames(attrs))

	color := attrs[0]
	assert.True(t, color.IsVariant)
	assert.True(t, color.IsRequired)
	assert.True(t, color.IsFilterable)
	assert.Equal(t, model.InputSelect, color.InputType)
	require.Len(t, color.Options, 2, "inactive options are hidden")
	assert.Equal(t, "Red", color.Options[0].Label)
	assert.Equal(t, "Blue", color.Options[1].Label)
	require.NotNil(t, color.Options[0].ColorCode)
	assert.Equal(t, "#ff0000", *color.Options[0].ColorCode)

	size := attrs[1]
	assert.Equal(t, "M", size.Options[0].Label, "label falls back to value")

	material := attrs[2]
	assert.False(t, material.IsVariant)
	assert.Empty(t, material.Options)
}

func TestCatalogService_AttributeOrderBreaksTiesOnAttributeSortOrder(t *testing.T) {
	svc, c, _, _ := newCatalogService(t, 0)
	ctx := context.Background()

	brand, err := svc.CreateAttribute(ctx, &CreateAttributeRequest{Name: "Brand", InputType: model.InputText})
	require.NoError(t, err)
	require.NoError(t, svc.AttachAttribute(ctx, c.Fashion.ID, &AttachAttributeRequest{AttributeID: brand.ID, SortOrder: 3}))

	attrs, err := svc.AttributesForCategory(ctx, c.Fashion.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Color", "Size", "Brand", "Material"}, attributeNames(attrs))
}

func TestCatalogService_VariantAndSpecificationViews(t *testing.T) {
	svc, c, _, _ := newCatalogService(t, 0)
	ctx := context.Background()

	variants, err := svc.VariantAttributesForCategory(ctx, c.Fashion.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Color", "Size"}, attributeNames(variants))

	specs, err := svc.SpecificationAttributesForCategory(ctx, c.Fashion.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Material"}, attributeNames(specs))

	sets, err := svc.AttributeSetsForCategory(ctx, c.Fashion.ID)
	require.NoError(t, err)
	assert.Len(t, sets.Attributes, 3)
	assert.Equal(t, variants, sets.VariantAttributes)
	assert.Equal(t, specs, sets.SpecificationAttributes)
}

func TestCatalogService_UnknownCategoryIsEmpty(t *testing.T) {
	svc, _, _, _ := newCatalogService(t, 0)

	attrs, err := svc.AttributesForCategory(context.Background(), 9999)
	require.NoError(t, err)
	assert.NotNil(t, attrs)
	assert.Empty(t, attrs)
}

func TestCatalogService_CachesAndInvalidates(t *testing.T) {
	svc, c, mc, _ := newCatalogService(t, 0)
	ctx := context.Background()
	key := "category:" + uintString(c.Fashion.ID)

	_, err := svc.AttributesForCategory(ctx, c.Fashion.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, mc.Misses)
	assert.True(t, mc.Has(key))

	cached, err := svc.AttributesForCategory(ctx, c.Fashion.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, mc.Hits)
	assert.Equal(t, []string{"Color", "Size", "Material"}, attributeNames(cached))

	_, err = svc.AddOption(ctx, c.Color.ID, &CreateOptionRequest{Value: "black", Label: label("Black")})
	require.NoError(t, err)
	assert.False(t, mc.Has(key), "adding an option drops every category using the attribute")

	attrs, err := svc.AttributesForCategory(ctx, c.Fashion.ID)
	require.NoError(t, err)
	assert.Len(t, attrs[0].Options, 3)

	require.NoError(t, svc.AttachAttribute(ctx, c.Fashion.ID, &AttachAttributeRequest{AttributeID: c.Material.ID, IsVariant: true, SortOrder: 3}))
	assert.False(t, mc.Has(key))

	variants, err := svc.VariantAttributesForCategory(ctx, c.Fashion.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Color", "Size", "Material"}, attributeNames(variants))
}

func TestCatalogService_CreateCategoryDropsStaleEmptyEntry(t *testing.T) {
	svc, _, mc, _ := newCatalogService(t, 0)
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, &CreateCategoryRequest{Name: "Fashion"})
	require.NoError(t, err)
	assert.Equal(t, "fashion-1", category.Slug)
	assert.False(t, mc.Has("category:"+uintString(category.ID)))

	other, err := svc.CreateCategory(ctx, &CreateCategoryRequest{Name: "Shoes", Slug: "Giày Dép"})
	require.NoError(t, err)
	assert.Equal(t, "giay-dep", other.Slug)
}

func TestCatalogService_GenerateCombinations(t *testing.T) {
	svc, c, _, _ := newCatalogService(t, 0)

	combos, err := svc.GenerateCombinations(context.Background(), Selections{
		{AttributeID: c.Color.ID, OptionIDs: []uint{c.Red.ID, c.Blue.ID, c.Green.ID}},
		{AttributeID: c.Size.ID, OptionIDs: []uint{c.M.ID, c.L.ID}},
		{AttributeID: 9999, OptionIDs: []uint{1}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Red / M", "Red / L", "Blue / M", "Blue / L"}, displayNames(combos))

	empty, err := svc.GenerateCombinations(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCatalogService_GenerateCombinationsRespectsLimit(t *testing.T) {
	svc, c, _, _ := newCatalogService(t, 3)

	_, err := svc.GenerateCombinations(context.Background(), Selections{
		{AttributeID: c.Color.ID, OptionIDs: []uint{c.Red.ID, c.Blue.ID}},
		{AttributeID: c.Size.ID, OptionIDs: []uint{c.M.ID, c.L.ID}},
	})
	assert.ErrorIs(t, err, ErrTooManyCombinations)

	combos, err := svc.GenerateCombinations(context.Background(), Selections{
		{AttributeID: c.Color.ID, OptionIDs: []uint{c.Red.ID}},
		{AttributeID: c.Size.ID, OptionIDs: []uint{c.M.ID, c.L.ID}},
	})
	require.NoError(t, err)
	assert.Len(t, combos, 2)
}

func TestCatalogService_CreateAttribute(t *testing.T) {
	svc, _, _, db := newCatalogService(t, 0)
	ctx := context.Background()
	inactive := false

	attr, err := svc.CreateAttribute(ctx, &CreateAttributeRequest{
		Name: "Storage Capacity",
		Options: []CreateOptionRequest{
			{Value: "64GB"},
			{Value: "128GB", SortOrder: 5},
			{Value: "256GB", IsActive: &inactive},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "storage-capacity", attr.Slug)
	assert.Equal(t, model.InputSelect, attr.InputType)

	stored, err := repository.NewAttributeRepo(db).FindAttributeByID(ctx, attr.ID)
	require.NoError(t, err)
	require.Len(t, stored.Options, 3)
	assert.Equal(t, "64GB", stored.Options[0].Value)
	assert.Equal(t, "256GB", stored.Options[1].Value)
	assert.False(t, stored.Options[1].IsActive)
	assert.Equal(t, "128GB", stored.Options[2].Value)
	assert.True(t, stored.Options[2].IsActive)

	_, err = svc.CreateAttribute(ctx, &CreateAttributeRequest{Name: "storage capacity"})
	assert.ErrorIs(t, err, ErrDuplicateAttribute)

	_, err = svc.CreateAttribute(ctx, &CreateAttributeRequest{Name: "Weight", InputType: model.InputNumber, Options: []CreateOptionRequest{{Value: "1"}}})
	assert.ErrorIs(t, err, ErrInvalidInputType)

	_, err = svc.CreateAttribute(ctx, &CreateAttributeRequest{Name: "Weight", InputType: "slider"})
	assert.ErrorIs(t, err, ErrInvalidInputType)
}

func TestCatalogService_AddOptionAndAttachErrors(t *testing.T) {
	svc, c, _, _ := newCatalogService(t, 0)
	ctx := context.Background()

	_, err := svc.AddOption(ctx, c.Material.ID, &CreateOptionRequest{Value: "cotton"})
	assert.ErrorIs(t, err, ErrInvalidInputType)

	_, err = svc.AddOption(ctx, 9999, &CreateOptionRequest{Value: "x"})
	assert.ErrorIs(t, err, ErrAttributeNotFound)

	assert.ErrorIs(t, svc.AttachAttribute(ctx, 9999, &AttachAttributeRequest{AttributeID: c.Color.ID}), ErrCategoryNotFound)
	assert.ErrorIs(t, svc.AttachAttribute(ctx, c.Fashion.ID, &AttachAttributeRequest{AttributeID: 9999}), ErrAttributeNotFound)

	option, err := svc.AddOption(ctx, c.Size.ID, &CreateOptionRequest{Value: "XL"})
	require.NoError(t, err)
	assert.True(t, option.IsActive)
	assert.Equal(t, 2, option.SortOrder)
}

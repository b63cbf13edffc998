package testutil

import (
	"testing"

	"marketplace-catalog/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Catalog is the "Fashion" fixture: Color and Size vary products, Material
// only describes them.
type Catalog struct {
	Fashion  model.Category
	Color    model.Attribute
	Size     model.Attribute
	Material model.Attribute

	Red, Blue, Green model.AttributeOption
	M, L             model.AttributeOption
}

func strPtr(s string) *string { return &s }

// SeedCatalog inserts the Fashion fixture. Green is inactive.
func SeedCatalog(t *testing.T, db *gorm.DB) *Catalog {
	t.Helper()

	c := &Catalog{
		Fashion:  model.Category{Name: "Fashion", Slug: "fashion"},
		Color:    model.Attribute{Name: "Color", Slug: "color", InputType: model.InputSelect, SortOrder: 1},
		Size:     model.Attribute{Name: "Size", Slug: "size", InputType: model.InputSelect, SortOrder: 2},
		Material: model.Attribute{Name: "Material", Slug: "material", InputType: model.InputText, SortOrder: 3},
	}

	mustCreate(t, db, &c.Fashion)
	mustCreate(t, db, &c.Color)
	mustCreate(t, db, &c.Size)
	mustCreate(t, db, &c.Material)

	c.Red = model.AttributeOption{AttributeID: c.Color.ID, Value: "red", Label: strPtr("Red"), ColorCode: strPtr("#ff0000"), SortOrder: 1, IsActive: true}
	c.Blue = model.AttributeOption{AttributeID: c.Color.ID, Value: "blue", Label: strPtr("Blue"), ColorCode: strPtr("#0000ff"), SortOrder: 2, IsActive: true}
	c.Green = model.AttributeOption{AttributeID: c.Color.ID, Value: "green", Label: strPtr("Green"), SortOrder: 3, IsActive: true}
	c.M = model.AttributeOption{AttributeID: c.Size.ID, Value: "M", SortOrder: 1, IsActive: true}
	c.L = model.AttributeOption{AttributeID: c.Size.ID, Value: "L", SortOrder: 2, IsActive: true}
	for _, o := range []*model.AttributeOption{&c.Red, &c.Blue, &c.Green, &c.M, &c.L} {
		mustCreate(t, db, o)
	}
	if err := db.Model(&c.Green).Update("is_active", false).Error; err != nil {
		t.Fatalf("failed to deactivate option: %v", err)
	}
	c.Green.IsActive = false

	pivots := []model.CategoryAttribute{
		{CategoryID: c.Fashion.ID, AttributeID: c.Color.ID, IsVariant: true, IsRequired: true, IsFilterable: true, SortOrder: 1},
		{CategoryID: c.Fashion.ID, AttributeID: c.Size.ID, IsVariant: true, IsRequired: true, SortOrder: 2},
		{CategoryID: c.Fashion.ID, AttributeID: c.Material.ID, SortOrder: 3},
	}
	for i := range pivots {
		if err := db.Omit(clause.Associations).Create(&pivots[i]).Error; err != nil {
			t.Fatalf("failed to attach attribute: %v", err)
		}
	}
	return c
}

func mustCreate(t *testing.T, db *gorm.DB, value interface{}) {
	t.Helper()
	if err := db.Omit(clause.Associations).Create(value).Error; err != nil {
		t.Fatalf("failed to create %T: %v", value, err)
	}
}

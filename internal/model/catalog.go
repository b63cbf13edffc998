package model

import "time"

// InputType is how a seller supplies a value for an attribute.
type InputType string

const (
	InputSelect   InputType = "select"
	InputText     InputType = "text"
	InputNumber   InputType = "number"
	InputBoolean  InputType = "boolean"
	InputDate     InputType = "date"
	InputTextarea InputType = "textarea"
	InputColor    InputType = "color"
)

// Valid reports whether t is one of the supported input kinds.
func (t InputType) Valid() bool {
	switch t {
	case InputSelect, InputText, InputNumber, InputBoolean, InputDate, InputTextarea, InputColor:
		return true
	}
	return false
}

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Slug      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Attribute is a named product characteristic usable across categories (e.g. "Color").
type Attribute struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	Name        string            `gorm:"type:varchar(100);not null" json:"name"`
	Slug        string            `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	InputType   InputType         `gorm:"type:varchar(20);not null;default:'select'" json:"input_type"`
	Description string            `gorm:"type:text" json:"description"`
	SortOrder   int               `gorm:"default:0" json:"sort_order"`
	Options     []AttributeOption `gorm:"foreignKey:AttributeID;constraint:OnDelete:CASCADE" json:"options,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// IsSelectable reports whether values of this attribute reference an AttributeOption.
func (a *Attribute) IsSelectable() bool {
	return a.InputType == InputSelect
}

// AttributeOption is one allowed value of a selectable attribute (e.g. "Red").
type AttributeOption struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	AttributeID uint    `gorm:"not null;index" json:"attribute_id"`
	Value       string  `gorm:"type:varchar(255);not null" json:"value"`
	Label       *string `gorm:"type:varchar(255)" json:"label,omitempty"`
	ColorCode   *string `gorm:"type:varchar(20)" json:"color_code,omitempty"`
	SortOrder   int     `gorm:"default:0" json:"sort_order"`
	IsActive    bool    `gorm:"default:true" json:"is_active"`
}

// DisplayLabel falls back to the raw value when no label is set.
func (o *AttributeOption) DisplayLabel() string {
	if o.Label != nil && *o.Label != "" {
		return *o.Label
	}
	return o.Value
}

// CategoryAttribute attaches an Attribute to a Category. The flags are per
// category: the same attribute can differentiate variants in one category
// and only describe the product in another.
type CategoryAttribute struct {
	CategoryID   uint       `gorm:"primaryKey" json:"category_id"`
	AttributeID  uint       `gorm:"primaryKey" json:"attribute_id"`
	IsVariant    bool       `gorm:"default:false" json:"is_variant"`
	IsRequired   bool       `gorm:"default:false" json:"is_required"`
	IsFilterable bool       `gorm:"default:false" json:"is_filterable"`
	SortOrder    int        `gorm:"default:0" json:"sort_order"`
	Category     *Category  `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"-"`
	Attribute    *Attribute `gorm:"foreignKey:AttributeID;constraint:OnDelete:CASCADE" json:"-"`
}

func (CategoryAttribute) TableName() string {
	return "category_attribute"
}

// OptionResponse is the API shape of an active option.
type OptionResponse struct {
	ID        uint    `json:"id"`
	Value     string  `json:"value"`
	Label     string  `json:"label"`
	ColorCode *string `json:"color_code"`
}

// CategoryAttributeResponse is an Attribute enriched with its per-category
// flags and active options.
type CategoryAttributeResponse struct {
	ID           uint             `json:"id"`
	Name         string           `json:"name"`
	Slug         string           `json:"slug"`
	InputType    InputType        `json:"input_type"`
	Description  string           `json:"description"`
	IsVariant    bool             `json:"is_variant"`
	IsRequired   bool             `json:"is_required"`
	IsFilterable bool             `json:"is_filterable"`
	SortOrder    int              `json:"sort_order"`
	Options      []OptionResponse `json:"options"`
}

// ToResponse merges the attribute with the pivot row that attached it.
func (a *Attribute) ToResponse(pivot CategoryAttribute) CategoryAttributeResponse {
	options := make([]OptionResponse, 0, len(a.Options))
	for i := range a.Options {
		o := &a.Options[i]
		if !o.IsActive {
			continue
		}
		options = append(options, OptionResponse{
			ID:        o.ID,
			Value:     o.Value,
			Label:     o.DisplayLabel(),
			ColorCode: o.ColorCode,
		})
	}

	return CategoryAttributeResponse{
		ID:           a.ID,
		Name:         a.Name,
		Slug:         a.Slug,
		InputType:    a.InputType,
		Description:  a.Description,
		IsVariant:    pivot.IsVariant,
		IsRequired:   pivot.IsRequired,
		IsFilterable: pivot.IsFilterable,
		SortOrder:    pivot.SortOrder,
		Options:      options,
	}
}

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProductAttributeValue records a product's value for one attribute.
// At most one row exists per (product, attribute).
type ProductAttributeValue struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	ProductID         uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_product_attribute" json:"product_id"`
	AttributeID       uint             `gorm:"not null;uniqueIndex:idx_product_attribute" json:"attribute_id"`
	Attribute         *Attribute       `gorm:"foreignKey:AttributeID;constraint:OnDelete:CASCADE" json:"attribute,omitempty"`
	Value             *string          `gorm:"type:text" json:"value"`
	AttributeOptionID *uint            `gorm:"index" json:"attribute_option_id"`
	AttributeOption   *AttributeOption `gorm:"foreignKey:AttributeOptionID;constraint:OnDelete:SET NULL" json:"attribute_option,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}

// ProductVariantAttributeValue is the variant-scoped twin of ProductAttributeValue.
type ProductVariantAttributeValue struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	VariantID         uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_variant_attribute" json:"variant_id"`
	AttributeID       uint             `gorm:"not null;uniqueIndex:idx_variant_attribute" json:"attribute_id"`
	Attribute         *Attribute       `gorm:"foreignKey:AttributeID;constraint:OnDelete:CASCADE" json:"attribute,omitempty"`
	Value             *string          `gorm:"type:text" json:"value"`
	AttributeOptionID *uint            `gorm:"index" json:"attribute_option_id"`
	AttributeOption   *AttributeOption `gorm:"foreignKey:AttributeOptionID;constraint:OnDelete:SET NULL" json:"attribute_option,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}

// ValueKind tags an AttributeValue.
type ValueKind uint8

const (
	KindNone ValueKind = iota
	KindFreeText
	KindOptionRef
)

// AttributeValue is either FreeText(text) or OptionRef(option id, display text).
// Clients send a bare scalar for the former and {"value", "option_id"} for the latter.
type AttributeValue struct {
	Kind     ValueKind
	Text     string
	OptionID uint
}

func FreeText(text string) AttributeValue {
	return AttributeValue{Kind: KindFreeText, Text: text}
}

func OptionRef(optionID uint, display string) AttributeValue {
	return AttributeValue{Kind: KindOptionRef, Text: display, OptionID: optionID}
}

// IsEmpty reports whether the value carries nothing worth storing.
func (v AttributeValue) IsEmpty() bool {
	switch v.Kind {
	case KindOptionRef:
		return v.OptionID == 0 && strings.TrimSpace(v.Text) == ""
	case KindFreeText:
		return strings.TrimSpace(v.Text) == ""
	}
	return true
}

func (v AttributeValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindOptionRef:
		return json.Marshal(struct {
			Value    string `json:"value"`
			OptionID uint   `json:"option_id"`
		}{v.Text, v.OptionID})
	case KindFreeText:
		return json.Marshal(v.Text)
	}
	return []byte("null"), nil
}

func (v *AttributeValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = AttributeValue{}
		return nil
	}

	if data[0] != '{' {
		text, err := scalarText(data)
		if err != nil {
			return err
		}
		*v = FreeText(text)
		return nil
	}

	var obj struct {
		Value    json.RawMessage `json:"value"`
		OptionID json.RawMessage `json:"option_id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	var text string
	if len(obj.Value) > 0 && !bytes.Equal(obj.Value, []byte("null")) {
		t, err := scalarText(obj.Value)
		if err != nil {
			return err
		}
		text = t
	}

	var optionID uint64
	if len(obj.OptionID) > 0 && !bytes.Equal(obj.OptionID, []byte("null")) {
		raw, err := scalarText(obj.OptionID)
		if err != nil {
			return err
		}
		if raw != "" {
			optionID, err = strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid option_id %q: %w", raw, err)
			}
		}
	}

	if optionID > 0 {
		*v = OptionRef(uint(optionID), text)
	} else {
		*v = FreeText(text)
	}
	return nil
}

// scalarText renders a JSON string, number or boolean as plain text.
func scalarText(data []byte) (string, error) {
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		return n.String(), nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		return strconv.FormatBool(b), nil
	}
	return "", fmt.Errorf("unsupported attribute value %s", string(data))
}

// AttributeValues maps attribute id to the chosen value.
type AttributeValues map[uint]AttributeValue

package validator

import (
	"testing"

	"marketplace-catalog/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Owner  uuid.UUID           `validate:"uuid_required"`
	Status model.ProductStatus `validate:"omitempty,product_status"`
	Kind   model.InputType     `validate:"omitempty,input_type"`
	Name   string              `validate:"required,max=5"`
}

func TestValidateStruct(t *testing.T) {
	assert.Empty(t, ValidateStruct(&sample{Owner: uuid.New(), Name: "Tee"}))
	assert.Empty(t, ValidateStruct(&sample{Owner: uuid.New(), Name: "Tee", Status: model.StatusActive, Kind: model.InputColor}))

	errs := ValidateStruct(&sample{Status: "archived", Kind: "slider", Name: "Too long"})
	require.Len(t, errs, 4)
	tags := make([]string, len(errs))
	for i, e := range errs {
		tags[i] = e.Tag
	}
	assert.Equal(t, []string{"uuid_required", "product_status", "input_type", "max"}, tags)
	assert.Equal(t, "sample.Owner", errs[0].FailedField)
	assert.Equal(t, "5", errs[3].Value)
}

func TestValidateStruct_NonStruct(t *testing.T) {
	errs := ValidateStruct("not a struct")
	require.Len(t, errs, 1)
	assert.Equal(t, "struct", errs[0].Tag)
}

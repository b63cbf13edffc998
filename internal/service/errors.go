package service

import "errors"

// Error definitions
var (
	ErrProductNotFound     = errors.New("product not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrAttributeNotFound   = errors.New("attribute not found")
	ErrDuplicateVariant    = errors.New("a variant with this attribute combination already exists")
	ErrDuplicateSKU        = errors.New("SKU already exists")
	ErrDuplicateAttribute  = errors.New("attribute slug already exists")
	ErrInvalidImage        = errors.New("invalid image upload")
	ErrTooManyCombinations = errors.New("too many variant combinations")
	ErrInvalidPrice        = errors.New("invalid price")
	ErrInvalidInputType    = errors.New("invalid attribute input type")
	ErrStorage             = errors.New("image storage failure")
)

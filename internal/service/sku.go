package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	nanoid "github.com/jaevor/go-nanoid"
)

const (
	skuAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	skuSuffixLength = 6
	skuMaxAttempts  = 10
)

// SKUGenerator produces candidate SKUs of the form PRD-<productId>-<suffix>.
type SKUGenerator func(productID uuid.UUID) string

func NewSKUGenerator() (SKUGenerator, error) {
	suffix, err := nanoid.CustomASCII(skuAlphabet, skuSuffixLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create SKU generator: %w", err)
	}
	return func(productID uuid.UUID) string {
		return fmt.Sprintf("PRD-%s-%s", productID, suffix())
	}, nil
}

// uniqueSKU draws candidates until one is unused.
func uniqueSKU(ctx context.Context, gen SKUGenerator, productID uuid.UUID, exists func(context.Context, string) (bool, error)) (string, error) {
	for i := 0; i < skuMaxAttempts; i++ {
		sku := gen(productID)
		taken, err := exists(ctx, sku)
		if err != nil {
			return "", fmt.Errorf("failed to check SKU: %w", err)
		}
		if !taken {
			return sku, nil
		}
	}
	return "", fmt.Errorf("%w: no free SKU after %d attempts", ErrDuplicateSKU, skuMaxAttempts)
}

package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrUnknownCategory = errors.New("unknown product category")
	ErrSizeSetMismatch = errors.New("size labels do not match category")
	ErrNegativeStock   = errors.New("negative stock count")
	ErrNegativePrice   = errors.New("negative price")
	ErrSizeNotInSet    = errors.New("size label not in product size set")
)

// Category discriminates the product variants. The size label set is
// always derived from the category, never from the keys of Sizes.
type Category string

const (
	CategoryClothing Category = "clothing"
	CategoryShoes    Category = "shoes"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryClothing, CategoryShoes:
		return true
	}
	return false
}

type SizeLabel string

var (
	clothingLabels = []SizeLabel{
		"S", "M", "L", "XL", "XXL", "XXXL", "4XL", "5XL", "6XL",
	}
	shoeLabels = []SizeLabel{
		"36", "37", "38", "39", "40", "41", "42", "43", "44", "45",
	}
)

// SizeLabels returns the fixed, ordered label sequence for the category.
// The result is a copy, callers may mutate it freely.
func SizeLabels(c Category) []SizeLabel {
	switch c {
	case CategoryClothing:
		return append([]SizeLabel(nil), clothingLabels...)
	case CategoryShoes:
		return append([]SizeLabel(nil), shoeLabels...)
	}
	return nil
}

// HasSizeLabel reports whether label belongs to the category's label set.
func HasSizeLabel(c Category, label SizeLabel) bool {
	for _, l := range SizeLabels(c) {
		if l == label {
			return true
		}
	}
	return false
}

type Product struct {
	ID        string
	Name      string
	Image     string
	Price     decimal.Decimal
	Category  Category
	Sizes     map[SizeLabel]int
	CreatedAt time.Time
}

// Validate checks the product invariants: the category is known, the
// key set of Sizes exactly matches the category's label set, every
// stock count is non-negative and the price is non-negative.
func (p Product) Validate() error {
	if !p.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, p.Category)
	}

	labels := SizeLabels(p.Category)
	if len(p.Sizes) != len(labels) {
		return ErrSizeSetMismatch
	}
	for _, label := range labels {
		count, ok := p.Sizes[label]
		if !ok {
			return fmt.Errorf("%w: missing %q", ErrSizeSetMismatch, label)
		}
		if count < 0 {
			return fmt.Errorf("%w: %q", ErrNegativeStock, label)
		}
	}

	if p.Price.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

type Order struct {
	ProductID string
	Size      SizeLabel
	Customer  string
	CreatedAt time.Time
}

// ValidateFor checks that the order references the product and that the
// chosen size belongs to the product's label set.
func (o Order) ValidateFor(p Product) error {
	if o.ProductID != p.ID {
		return fmt.Errorf("order product %q: %w", o.ProductID, ErrProductNotFound)
	}
	if !HasSizeLabel(p.Category, o.Size) {
		return fmt.Errorf("%w: %q for %q", ErrSizeNotInSet, o.Size, p.Category)
	}
	return nil
}

package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Draft is the transient working copy of a product being edited. It is
// exclusively owned by one edit session, seeded once from the product
// snapshot at open time and discarded on submit or cancel.
//
// Sizes retains counts for every label touched across category toggles.
// Labels outside the current category's set are dropped only when the
// draft is assembled, so toggling back and forth loses nothing.
type Draft struct {
	Name      string
	PriceText string
	Image     string
	Category  Category
	Sizes     map[SizeLabel]int
}

func NewDraft(p Product) Draft {
	sizes := make(map[SizeLabel]int, len(p.Sizes))
	for label, count := range p.Sizes {
		sizes[label] = count
	}
	return Draft{
		Name:      p.Name,
		PriceText: p.Price.String(),
		Image:     p.Image,
		Category:  p.Category,
		Sizes:     sizes,
	}
}

// Clone returns a deep copy, the size map is not shared.
func (d Draft) Clone() Draft {
	out := d
	out.Sizes = make(map[SizeLabel]int, len(d.Sizes))
	for label, count := range d.Sizes {
		out.Sizes[label] = count
	}
	return out
}

// SetStock records a raw stock-count input for the label.
func (d *Draft) SetStock(label SizeLabel, raw string) {
	if d.Sizes == nil {
		d.Sizes = make(map[SizeLabel]int)
	}
	d.Sizes[label] = CoerceStock(raw)
}

// Assemble builds the submission payload: counts restricted to the
// current category's label set (missing entries default to 0), price
// parsed from the raw text and the original creation timestamp carried
// over untouched. Assembling never fails, coercion always yields a value.
func (d Draft) Assemble(createdAt time.Time) Product {
	labels := SizeLabels(d.Category)
	sizes := make(map[SizeLabel]int, len(labels))
	for _, label := range labels {
		sizes[label] = max(d.Sizes[label], 0)
	}
	return Product{
		Name:      d.Name,
		Image:     d.Image,
		Price:     ParsePrice(d.PriceText),
		Category:  d.Category,
		Sizes:     sizes,
		CreatedAt: createdAt,
	}
}

// CoerceStock parses a raw stock-count input. Unparsable input yields 0,
// negative values clamp to 0, non-negative integers pass through. There
// is no upper bound.
func CoerceStock(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ParsePrice parses a raw price input as a decimal. Unparsable or
// negative input yields zero, never a NaN-like value.
func ParsePrice(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EditRecord is the audit-trail entry written after an edit is applied.
type EditRecord struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	Category  Category
	EditedAt  time.Time
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ndbelov/stockwear/internal/core/domain"
	"github.com/ndbelov/stockwear/internal/core/port"
)

var _ port.EditAuditor = (*EditAuditLog)(nil)

type editEvent struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Category  string    `json:"category"`
	EditedAt  time.Time `json:"edited_at"`
}

// EditAuditLog appends one JSON line per applied edit to a local file.
type EditAuditLog struct {
	mu   sync.Mutex
	path string
}

func NewEditAuditLog(path string) *EditAuditLog {
	return &EditAuditLog{path: path}
}

func (l *EditAuditLog) RecordEdit(
	ctx context.Context, rec domain.EditRecord,
) error {
	const op = "EditAuditLog.RecordEdit"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	v := l.toEvent(rec)
	if err := json.NewEncoder(f).Encode(v); err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (l *EditAuditLog) toEvent(rec domain.EditRecord) (v editEvent) {
	v.ProductID = rec.ProductID
	v.Name = rec.Name
	v.Price = rec.Price.String()
	v.Category = string(rec.Category)
	v.EditedAt = rec.EditedAt
	return
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ndbelov/stockwear/internal/core/domain"
	"github.com/ndbelov/stockwear/internal/core/port"
)

var _ port.EditApplier = (*Applier)(nil)

// Applier is the "apply edit" collaborator: it writes the payload to the
// product store, then publishes a product-updated event and appends an
// audit record. Only the store write is load-bearing, publish and audit
// failures are logged and swallowed because the edit is already applied.
type Applier struct {
	store     port.ProductWriter
	publisher port.ProductUpdatePublisher
	audit     port.EditAuditor
}

// NewApplier wires the applier. publisher and audit may be nil, the
// corresponding step is skipped then.
func NewApplier(
	store port.ProductWriter,
	publisher port.ProductUpdatePublisher,
	audit port.EditAuditor,
) Applier {
	return Applier{store: store, publisher: publisher, audit: audit}
}

func (a Applier) ApplyEdit(
	ctx context.Context, productID string, p domain.Product,
) error {
	const op = "Applier.ApplyEdit"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.store.UpdateProduct(ctx, productID, p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if a.publisher != nil {
		err := a.publisher.PublishProductUpdate(ctx, productID, p)
		if err != nil {
			log.Error("failed to publish product update",
				"productID", productID, "err", err)
		}
	}

	if a.audit != nil {
		rec := domain.EditRecord{
			ProductID: productID,
			Name:      p.Name,
			Price:     p.Price,
			Category:  p.Category,
			EditedAt:  time.Now().UTC(),
		}
		if err := a.audit.RecordEdit(ctx, rec); err != nil {
			log.Error("failed to record edit", "productID", productID, "err", err)
		}
	}

	return nil
}

package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ndbelov/stockwear/internal/core/domain"
	"github.com/ndbelov/stockwear/internal/core/port"
	"github.com/ndbelov/stockwear/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.ProductUpdatePublisher = (*ProductUpdatesProducer)(nil)

// A ProductUpdatesProducer publishes one record per applied edit, keyed
// by product id.
type ProductUpdatesProducer struct {
	cl      ProducerClient
	encoder Encoder
}

func NewProductUpdatesProducer(
	opts ...ProducerOpt,
) (ProductUpdatesProducer, error) {
	const op = "NewProductUpdatesProducer"

	if len(opts) != 2 {
		panic(fmt.Errorf("%s: %w", op, ErrTooFewOpts)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return ProductUpdatesProducer{}, fmt.Errorf("%s: %w", op, err)
		}
	}
	return ProductUpdatesProducer{options.cl, options.encoder}, nil
}

func (p ProductUpdatesProducer) Close() {
	const op = "ProductUpdatesProducer.Close"
	log := slog.With("op", op)
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p ProductUpdatesProducer) PublishProductUpdate(
	ctx context.Context, productID string, v domain.Product,
) error {
	const op = "ProductUpdatesProducer.PublishProductUpdate"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	r, err := p.createRecord(productID, v)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res := p.cl.ProduceSync(ctx, r)
	if err := res.FirstErr(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (p ProductUpdatesProducer) createRecord(
	productID string, v domain.Product,
) (*kgo.Record, error) {
	const op = "ProductUpdatesProducer.createRecord"

	s := p.toSchema(productID, v)
	b, err := p.encoder.Encode(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &kgo.Record{Key: []byte(productID), Value: b}, nil
}

func (ProductUpdatesProducer) toSchema(
	productID string, v domain.Product,
) (s schema.ProductUpdateV1) {
	s.ProductID = productID
	s.Name = v.Name
	s.Image = v.Image
	s.Price = v.Price.InexactFloat64()
	s.Category = string(v.Category)
	s.CreatedAt = v.CreatedAt.UnixMilli()

	s.Sizes = make(map[string]int, len(v.Sizes))
	for label, count := range v.Sizes {
		s.Sizes[string(label)] = count
	}
	return s
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ndbelov/stockwear/internal/core/domain"
	"github.com/ndbelov/stockwear/internal/core/port"
	"github.com/shopspring/decimal"
)

var (
	_ port.ProductReader = (*ProductsRepository)(nil)
	_ port.ProductWriter = (*ProductsRepository)(nil)
)

type ProductsRepository struct {
	sqldb sqldb
}

func NewProductsRepository(sqldb sqldb) ProductsRepository {
	return ProductsRepository{sqldb}
}

func (r ProductsRepository) ReadProduct(
	ctx context.Context, id string,
) (domain.Product, error) {
	const op = "ProductsRepository.ReadProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT id, name, image, price, category, sizes, created_at
		FROM products
		WHERE id = $1;`

	var (
		p      domain.Product
		priceS string
		sizesS string
	)
	err := r.sqldb.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Image, &priceS, &p.Category, &sizesS, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrProductNotFound)
		}
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p.Price, err = decimal.NewFromString(priceS)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: invalid price: %w", op, err)
	}

	if err := json.Unmarshal([]byte(sizesS), &p.Sizes); err != nil {
		return domain.Product{}, fmt.Errorf("%s: invalid sizes: %w", op, err)
	}
	return p, nil
}

// UpdateProduct replaces the editable fields of the row. created_at is
// deliberately not in the SET list, edits preserve provenance.
func (r ProductsRepository) UpdateProduct(
	ctx context.Context, id string, p domain.Product,
) error {
	const op = "ProductsRepository.UpdateProduct"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	sizesB, err := json.Marshal(p.Sizes)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		UPDATE products SET
			name = $2,
			image = $3,
			price = $4,
			category = $5,
			sizes = $6
		WHERE id = $1;`

	res, err := r.sqldb.ExecContext(ctx, query,
		id, p.Name, p.Image, p.Price.String(), p.Category, string(sizesB),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to exec: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrProductNotFound)
	}
	return nil
}

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Oracle answers price lookups for a (product, size, finish) key. Cart and
// checkout code must take unit prices from here, never from client input.
type Oracle interface {
	Lookup(ctx context.Context, productID, size, finish string) (PricedVariant, error)
}

type Repository interface {
	Oracle
	UpsertProduct(ctx context.Context, p Product, variants []Variant) error
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) Lookup(ctx context.Context, productID, size, finish string) (PricedVariant, error) {
	var (
		pv     PricedVariant
		vSize  sql.NullString
		vPrice sql.NullInt64
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT p.id, p.slug, p.title, p.image_url, v.size, v.price_cents
		FROM products p
		LEFT JOIN product_variants v
			ON v.product_id = p.id AND v.size = $2 AND v.finish = $3
		WHERE p.id = $1
	`, productID, size, finish).Scan(
		&pv.Product.ID, &pv.Product.Slug, &pv.Product.Title, &pv.Product.ImageURL,
		&vSize, &vPrice,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PricedVariant{}, &ProductNotFoundError{ProductID: productID}
		}
		return PricedVariant{}, fmt.Errorf("select product: %w", err)
	}

	if !vSize.Valid {
		return PricedVariant{}, &VariantUnavailableError{ProductID: productID, Size: size, Finish: finish}
	}

	pv.Variant = Variant{
		ProductID:  productID,
		Size:       size,
		Finish:     finish,
		PriceCents: int(vPrice.Int64),
	}
	return pv, nil
}

func (r *repo) UpsertProduct(ctx context.Context, p Product, variants []Variant) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO products (id, slug, title, image_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET slug = EXCLUDED.slug, title = EXCLUDED.title, image_url = EXCLUDED.image_url
	`, p.ID, p.Slug, p.Title, p.ImageURL)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}

	for _, v := range variants {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO product_variants (product_id, size, finish, price_cents)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (product_id, size, finish) DO UPDATE
			SET price_cents = EXCLUDED.price_cents
		`, p.ID, v.Size, v.Finish, v.PriceCents)
		if err != nil {
			return fmt.Errorf("upsert variant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

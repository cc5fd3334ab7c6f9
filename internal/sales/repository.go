package sales

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// RecordSaleTx appends one ledger entry for a sold order item inside the
	// caller's transaction, creating the product's site listing on first
	// sale. Running inside the reconciliation transaction is what makes the
	// ledger write atomic with the paid transition.
	RecordSaleTx(ctx context.Context, tx *sql.Tx, productID string, unitPriceCents, qty int) error
	TotalRevenue(ctx context.Context, from, to *time.Time) (int64, error)
	RevenueByChannel(ctx context.Context, from, to *time.Time) ([]ChannelRevenue, error)
	TopProducts(ctx context.Context, limit int, from, to *time.Time) ([]TopProduct, error)
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) RecordSaleTx(ctx context.Context, tx *sql.Tx, productID string, unitPriceCents, qty int) error {
	// Upsert-returning so the listing id comes back in one round trip
	// whether or not the listing existed.
	var listingID string
	err := tx.QueryRowContext(ctx, `
		INSERT INTO listings (id, product_id, channel, status, price_cents)
		VALUES ($1, $2, $3, 'active', $4)
		ON CONFLICT (product_id, channel)
		DO UPDATE SET status = listings.status
		RETURNING id
	`, uuid.NewString(), productID, ChannelSite, unitPriceCents).Scan(&listingID)
	if err != nil {
		return fmt.Errorf("upsert listing: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, listing_id, channel, qty, total_cents, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, uuid.NewString(), listingID, ChannelSite, qty, unitPriceCents*qty)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	return nil
}

func (r *repo) TotalRevenue(ctx context.Context, from, to *time.Time) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total_cents), 0)
		FROM sales
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at <= $2)
	`, from, to).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum sales: %w", err)
	}
	return total, nil
}

func (r *repo) RevenueByChannel(ctx context.Context, from, to *time.Time) ([]ChannelRevenue, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT channel, SUM(total_cents), COUNT(*)
		FROM sales
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at <= $2)
		GROUP BY channel
		ORDER BY SUM(total_cents) DESC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("select revenue by channel: %w", err)
	}
	defer rows.Close()

	var out []ChannelRevenue
	for rows.Next() {
		var cr ChannelRevenue
		if err := rows.Scan(&cr.Channel, &cr.TotalCents, &cr.Count); err != nil {
			return nil, fmt.Errorf("scan channel revenue: %w", err)
		}
		out = append(out, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *repo) TopProducts(ctx context.Context, limit int, from, to *time.Time) ([]TopProduct, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT l.product_id, COALESCE(p.title, ''), SUM(s.total_cents), SUM(s.qty)
		FROM sales s
		JOIN listings l ON l.id = s.listing_id
		LEFT JOIN products p ON p.id = l.product_id
		WHERE ($1::timestamptz IS NULL OR s.created_at >= $1)
		  AND ($2::timestamptz IS NULL OR s.created_at <= $2)
		GROUP BY l.product_id, p.title
		ORDER BY SUM(s.total_cents) DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("select top products: %w", err)
	}
	defer rows.Close()

	var out []TopProduct
	for rows.Next() {
		var tp TopProduct
		if err := rows.Scan(&tp.ProductID, &tp.Title, &tp.TotalCents, &tp.UnitsSold); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		out = append(out, tp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

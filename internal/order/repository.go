package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Repository interface {
	// Create persists the order and its items in one transaction.
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID string) (*Order, error)
	GetByIntentID(ctx context.Context, intentID string) (*Order, error)
	// AttachPaymentIntent sets the order's unique payment intent id. An
	// order correlates to exactly one intent for its lifetime.
	AttachPaymentIntent(ctx context.Context, orderID, intentID string) error
	// UpdateStatus applies a transition permitted by Status.CanTransitionTo.
	UpdateStatus(ctx context.Context, orderID string, next Status) error
	ListRecent(ctx context.Context, limit int) ([]Order, error)
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

const orderColumns = `id, order_number, email, name,
		ship_street, ship_city, ship_state, ship_zip, ship_country,
		subtotal_cents, shipping_cents, total_cents, status, payment_intent_id,
		created_at, updated_at`

func (r *repo) Create(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = StatusPending
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (id, order_number, email, name,
			ship_street, ship_city, ship_state, ship_zip, ship_country,
			subtotal_cents, shipping_cents, total_cents, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING created_at, updated_at
	`, o.ID, o.OrderNumber, o.Email, o.Name,
		o.ShippingAddress.Street, o.ShippingAddress.City, o.ShippingAddress.State,
		o.ShippingAddress.Zip, o.ShippingAddress.Country,
		o.SubtotalCents, o.ShippingCents, o.TotalCents, string(o.Status),
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		it := &o.Items[i]
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		it.OrderID = o.ID

		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, title, size, finish, quantity, price_cents)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, it.ID, it.OrderID, it.ProductID, it.Title, it.Size, it.Finish, it.Quantity, it.PriceCents)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *repo) GetByID(ctx context.Context, orderID string) (*Order, error) {
	return r.getOne(ctx, `WHERE id = $1`, orderID)
}

func (r *repo) GetByIntentID(ctx context.Context, intentID string) (*Order, error) {
	return r.getOne(ctx, `WHERE payment_intent_id = $1`, intentID)
}

func (r *repo) getOne(ctx context.Context, where string, arg any) (*Order, error) {
	var (
		o        Order
		intentID sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders `+where, arg,
	).Scan(&o.ID, &o.OrderNumber, &o.Email, &o.Name,
		&o.ShippingAddress.Street, &o.ShippingAddress.City, &o.ShippingAddress.State,
		&o.ShippingAddress.Zip, &o.ShippingAddress.Country,
		&o.SubtotalCents, &o.ShippingCents, &o.TotalCents, &o.Status, &intentID,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}
	o.PaymentIntentID = intentID.String

	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return &o, nil
}

func (r *repo) loadItems(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, title, size, finish, quantity, price_cents
		FROM order_items WHERE order_id = $1
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Title,
			&it.Size, &it.Finish, &it.Quantity, &it.PriceCents); err != nil {
			return nil, fmt.Errorf("scan order_item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return items, nil
}

func (r *repo) AttachPaymentIntent(ctx context.Context, orderID, intentID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET payment_intent_id = $2, updated_at = NOW()
		WHERE id = $1 AND payment_intent_id IS NULL
	`, orderID, intentID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrIntentAttached
		}
		return fmt.Errorf("attach payment intent: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// Either the order is missing or an intent is already set.
	var existing sql.NullString
	err = r.db.QueryRowContext(ctx,
		`SELECT payment_intent_id FROM orders WHERE id = $1`, orderID,
	).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("select order: %w", err)
	}
	return ErrIntentAttached
}

func (r *repo) UpdateStatus(ctx context.Context, orderID string, next Status) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current Status
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("select status: %w", err)
	}

	if !current.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`,
		orderID, string(next)); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *repo) ListRecent(ctx context.Context, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var (
			o        Order
			intentID sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.Email, &o.Name,
			&o.ShippingAddress.Street, &o.ShippingAddress.City, &o.ShippingAddress.State,
			&o.ShippingAddress.Zip, &o.ShippingAddress.Country,
			&o.SubtotalCents, &o.ShippingCents, &o.TotalCents, &o.Status, &intentID,
			&o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.PaymentIntentID = intentID.String
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return orders, nil
}

package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/n0remac/Lumeron/internal/order"
)

// LedgerWriter appends sale records inside the reconciliation transaction.
type LedgerWriter interface {
	RecordSaleTx(ctx context.Context, tx *sql.Tx, productID string, unitPriceCents, qty int) error
}

// Publisher emits order lifecycle events after the reconciliation commits.
type Publisher interface {
	PublishOrderPaid(ctx context.Context, orderID, orderNumber string, totalCents int) error
	PublishOrderCancelled(ctx context.Context, orderID, orderNumber string) error
}

// ReconcileResult reports what a reconcile call observed and did.
type ReconcileResult struct {
	OrderID      string
	OrderNumber  string
	Status       order.Status
	Transitioned bool
}

// Reconciler applies payment outcomes to orders exactly once. Both the
// client-confirmation path and the webhook path funnel into Reconcile; the
// status check, status write, and ledger append happen inside one
// transaction holding a row lock on the order, so a duplicate or racing
// signal observes a non-pending order and does nothing.
type Reconciler struct {
	db     *sql.DB
	ledger LedgerWriter
	pub    Publisher // optional
	logger zerolog.Logger
}

func NewReconciler(db *sql.DB, ledger LedgerWriter, pub Publisher, logger zerolog.Logger) *Reconciler {
	return &Reconciler{db: db, ledger: ledger, pub: pub, logger: logger}
}

// Reconcile is idempotent and safe under concurrent invocation for the same
// intent id. Redelivery of a settled outcome returns success without side
// effects.
func (r *Reconciler) Reconcile(ctx context.Context, intentID string, outcome Outcome) (*ReconcileResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var (
		res        ReconcileResult
		totalCents int
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, order_number, total_cents, status
		FROM orders
		WHERE payment_intent_id = $1
		FOR UPDATE
	`, intentID).Scan(&res.OrderID, &res.OrderNumber, &totalCents, &res.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("intent %s: %w", intentID, order.ErrNotFound)
		}
		return nil, fmt.Errorf("select order for update: %w", err)
	}

	if res.Status != order.StatusPending {
		// Already settled. Redelivered and racing signals land here; report
		// success so at-least-once delivery converges without new writes.
		r.logger.Info().
			Str("intentId", intentID).
			Str("orderNumber", res.OrderNumber).
			Str("status", res.Status.String()).
			Str("outcome", string(outcome)).
			Msg("payment signal for settled order ignored")
		return &res, nil
	}

	switch outcome {
	case OutcomeFailed:
		// Order stays pending so the customer can retry the payment.
		r.logger.Warn().
			Str("intentId", intentID).
			Str("orderNumber", res.OrderNumber).
			Msg("payment failed, order left pending")
		return &res, nil

	case OutcomeCanceled:
		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`,
			res.OrderID, string(order.StatusCancelled)); err != nil {
			return nil, fmt.Errorf("cancel order: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
		res.Status = order.StatusCancelled
		res.Transitioned = true

		if r.pub != nil {
			if err := r.pub.PublishOrderCancelled(ctx, res.OrderID, res.OrderNumber); err != nil {
				r.logger.Error().Err(err).Str("orderNumber", res.OrderNumber).Msg("publish order.cancelled failed")
			}
		}
		r.logger.Info().Str("orderNumber", res.OrderNumber).Msg("payment canceled, order cancelled")
		return &res, nil

	case OutcomeSucceeded:
		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`,
			res.OrderID, string(order.StatusPaid)); err != nil {
			return nil, fmt.Errorf("mark paid: %w", err)
		}

		if err := r.writeLedger(ctx, tx, res.OrderID); err != nil {
			return nil, err
		}

		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
		res.Status = order.StatusPaid
		res.Transitioned = true

		if r.pub != nil {
			if err := r.pub.PublishOrderPaid(ctx, res.OrderID, res.OrderNumber, totalCents); err != nil {
				r.logger.Error().Err(err).Str("orderNumber", res.OrderNumber).Msg("publish order.paid failed")
			}
		}
		r.logger.Info().
			Str("orderNumber", res.OrderNumber).
			Int("totalCents", totalCents).
			Msg("payment succeeded, order paid")
		return &res, nil

	default:
		return nil, fmt.Errorf("unknown payment outcome %q", outcome)
	}
}

func (r *Reconciler) writeLedger(ctx context.Context, tx *sql.Tx, orderID string) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT product_id, price_cents, quantity
		FROM order_items WHERE order_id = $1
	`, orderID)
	if err != nil {
		return fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	type soldItem struct {
		productID  string
		priceCents int
		qty        int
	}
	var items []soldItem
	for rows.Next() {
		var it soldItem
		if err := rows.Scan(&it.productID, &it.priceCents, &it.qty); err != nil {
			return fmt.Errorf("scan order_item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows: %w", err)
	}

	for _, it := range items {
		if err := r.ledger.RecordSaleTx(ctx, tx, it.productID, it.priceCents, it.qty); err != nil {
			return fmt.Errorf("record sale: %w", err)
		}
	}
	return nil
}

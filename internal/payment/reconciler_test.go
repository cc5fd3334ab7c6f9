package payment

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/n0remac/Lumeron/internal/order"
)

type ledgerCall struct {
	productID  string
	priceCents int
	qty        int
}

type fakeLedger struct {
	calls []ledgerCall
	err   error
}

func (f *fakeLedger) RecordSaleTx(ctx context.Context, tx *sql.Tx, productID string, unitPriceCents, qty int) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, ledgerCall{productID, unitPriceCents, qty})
	return nil
}

type publishedEvent struct {
	kind        string
	orderID     string
	orderNumber string
	totalCents  int
}

type fakePublisher struct {
	events []publishedEvent
}

func (f *fakePublisher) PublishOrderPaid(ctx context.Context, orderID, orderNumber string, totalCents int) error {
	f.events = append(f.events, publishedEvent{"paid", orderID, orderNumber, totalCents})
	return nil
}

func (f *fakePublisher) PublishOrderCancelled(ctx context.Context, orderID, orderNumber string) error {
	f.events = append(f.events, publishedEvent{"cancelled", orderID, orderNumber, 0})
	return nil
}

const selectForUpdateSQL = `
		SELECT id, order_number, total_cents, status
		FROM orders
		WHERE payment_intent_id = $1
		FOR UPDATE
	`

func orderRow(id, number string, total int, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "order_number", "total_cents", "status"}).
		AddRow(id, number, total, status)
}

func TestReconcile_SucceededTransitionsAndWritesLedger(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ledger := &fakeLedger{}
	pub := &fakePublisher{}
	r := NewReconciler(db, ledger, pub, zerolog.Nop())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectForUpdateSQL)).
		WithArgs("pi_123").
		WillReturnRows(orderRow("order-1", "LUM-20260828-001", 1900, "pending"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`)).
		WithArgs("order-1", "paid").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT product_id, price_cents, quantity
		FROM order_items WHERE order_id = $1
	`)).
		WithArgs("order-1").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "price_cents", "quantity"}).
			AddRow("prod-a", 700, 2).
			AddRow("prod-b", 450, 1))
	mock.ExpectCommit()

	res, err := r.Reconcile(context.Background(), "pi_123", OutcomeSucceeded)
	require.NoError(t, err)
	require.True(t, res.Transitioned)
	require.Equal(t, order.StatusPaid, res.Status)
	require.Equal(t, "LUM-20260828-001", res.OrderNumber)

	require.Equal(t, []ledgerCall{
		{"prod-a", 700, 2},
		{"prod-b", 450, 1},
	}, ledger.calls)

	require.Equal(t, []publishedEvent{
		{"paid", "order-1", "LUM-20260828-001", 1900},
	}, pub.events)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcile_SettledOrderIsNoOp(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ledger := &fakeLedger{}
	pub := &fakePublisher{}
	r := NewReconciler(db, ledger, pub, zerolog.Nop())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectForUpdateSQL)).
		WithArgs("pi_123").
		WillReturnRows(orderRow("order-1", "LUM-20260828-001", 1900, "paid"))
	mock.ExpectRollback()

	res, err := r.Reconcile(context.Background(), "pi_123", OutcomeSucceeded)
	require.NoError(t, err)
	require.False(t, res.Transitioned)
	require.Equal(t, order.StatusPaid, res.Status)
	require.Empty(t, ledger.calls)
	require.Empty(t, pub.events)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcile_FailedLeavesPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ledger := &fakeLedger{}
	r := NewReconciler(db, ledger, nil, zerolog.Nop())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectForUpdateSQL)).
		WithArgs("pi_123").
		WillReturnRows(orderRow("order-1", "LUM-20260828-001", 1900, "pending"))
	mock.ExpectRollback()

	res, err := r.Reconcile(context.Background(), "pi_123", OutcomeFailed)
	require.NoError(t, err)
	require.False(t, res.Transitioned)
	require.Equal(t, order.StatusPending, res.Status)
	require.Empty(t, ledger.calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcile_CanceledCancelsWithoutLedger(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ledger := &fakeLedger{}
	pub := &fakePublisher{}
	r := NewReconciler(db, ledger, pub, zerolog.Nop())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectForUpdateSQL)).
		WithArgs("pi_123").
		WillReturnRows(orderRow("order-1", "LUM-20260828-001", 1900, "pending"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`)).
		WithArgs("order-1", "cancelled").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := r.Reconcile(context.Background(), "pi_123", OutcomeCanceled)
	require.NoError(t, err)
	require.True(t, res.Transitioned)
	require.Equal(t, order.StatusCancelled, res.Status)
	require.Empty(t, ledger.calls)
	require.Equal(t, []publishedEvent{
		{"cancelled", "order-1", "LUM-20260828-001", 0},
	}, pub.events)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcile_UnknownIntent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := NewReconciler(db, &fakeLedger{}, nil, zerolog.Nop())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectForUpdateSQL)).
		WithArgs("pi_unknown").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_number", "total_cents", "status"}))
	mock.ExpectRollback()

	res, err := r.Reconcile(context.Background(), "pi_unknown", OutcomeSucceeded)
	require.Nil(t, res)
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestReconcile_LedgerFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ledger := &fakeLedger{err: sql.ErrConnDone}
	pub := &fakePublisher{}
	r := NewReconciler(db, ledger, pub, zerolog.Nop())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectForUpdateSQL)).
		WithArgs("pi_123").
		WillReturnRows(orderRow("order-1", "LUM-20260828-001", 1900, "pending"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`)).
		WithArgs("order-1", "paid").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT product_id, price_cents, quantity
		FROM order_items WHERE order_id = $1
	`)).
		WithArgs("order-1").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "price_cents", "quantity"}).
			AddRow("prod-a", 700, 2))
	mock.ExpectRollback()

	res, err := r.Reconcile(context.Background(), "pi_123", OutcomeSucceeded)
	require.Nil(t, res)
	require.Error(t, err)
	require.Empty(t, pub.events)
	require.NoError(t, mock.ExpectationsWereMet())
}

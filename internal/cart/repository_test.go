package cart

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

// The merge clamp in the upsert must track MaxQuantity, not a literal.
var upsertLineSQL = fmt.Sprintf(`
		INSERT INTO cart_lines
			(session_id, product_id, size, finish, quantity, unit_price_cents, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (session_id, product_id, size, finish) DO UPDATE
		SET quantity = LEAST(cart_lines.quantity + EXCLUDED.quantity, %d),
			unit_price_cents = EXCLUDED.unit_price_cents,
			image_url = EXCLUDED.image_url,
			updated_at = NOW()
	`, MaxQuantity)

func TestAddLine_Upserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	line := Line{
		SessionID:      "sess-1",
		ProductID:      "prod-1",
		Size:           "3",
		Finish:         "matte",
		Quantity:       2,
		UnitPriceCents: 700,
		ImageURL:       "/img/prod-1.png",
	}

	mock.ExpectExec(regexp.QuoteMeta(upsertLineSQL)).
		WithArgs("sess-1", "prod-1", "3", "matte", 2, 700, "/img/prod-1.png").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AddLine(context.Background(), line))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddLine_RejectsQuantityOutOfRange(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	for _, qty := range []int{0, -1, 100} {
		line := Line{SessionID: "s", ProductID: "p", Size: "3", Finish: "matte", Quantity: qty}
		require.ErrorIs(t, repo.AddLine(context.Background(), line), ErrInvalidQuantity)
	}
	// no SQL should have run
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetQuantity_ZeroRemovesLine(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	key := Key{ProductID: "prod-1", Size: "3", Finish: "matte"}

	mock.ExpectExec(regexp.QuoteMeta(`
		DELETE FROM cart_lines
		WHERE session_id = $1 AND product_id = $2 AND size = $3 AND finish = $4
	`)).
		WithArgs("sess-1", "prod-1", "3", "matte").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetQuantity(context.Background(), "sess-1", key, 0))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetQuantity_MissingLine(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	key := Key{ProductID: "prod-1", Size: "3", Finish: "matte"}

	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE cart_lines
		SET quantity = $5, updated_at = NOW()
		WHERE session_id = $1 AND product_id = $2 AND size = $3 AND finish = $4
	`)).
		WithArgs("sess-1", "prod-1", "3", "matte", 5).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.ErrorIs(t, repo.SetQuantity(context.Background(), "sess-1", key, 5), ErrLineNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetQuantity_RejectsOutOfRange(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	key := Key{ProductID: "p", Size: "3", Finish: "matte"}

	require.ErrorIs(t, repo.SetQuantity(context.Background(), "s", key, 100), ErrInvalidQuantity)
	require.ErrorIs(t, repo.SetQuantity(context.Background(), "s", key, -2), ErrInvalidQuantity)
}

func TestGetLines_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	rows := sqlmock.NewRows([]string{
		"session_id", "product_id", "size", "finish", "quantity", "unit_price_cents", "image_url", "updated_at",
	})
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT session_id, product_id, size, finish, quantity, unit_price_cents, image_url, updated_at
		FROM cart_lines
		WHERE session_id = $1
		ORDER BY created_at
	`)).
		WithArgs("sess-empty").
		WillReturnRows(rows)

	lines, err := repo.GetLines(context.Background(), "sess-empty")
	require.NoError(t, err)
	require.Empty(t, lines)
	require.NoError(t, mock.ExpectationsWereMet())
}

package catalog

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

const lookupSQL = `
		SELECT p.id, p.slug, p.title, p.image_url, v.size, v.price_cents
		FROM products p
		LEFT JOIN product_variants v
			ON v.product_id = p.id AND v.size = $2 AND v.finish = $3
		WHERE p.id = $1
	`

func lookupColumns() []string {
	return []string{"id", "slug", "title", "image_url", "size", "price_cents"}
}

func TestLookup_ReturnsPricedVariant(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(lookupSQL)).
		WithArgs("prod-a", "3", "matte").
		WillReturnRows(sqlmock.NewRows(lookupColumns()).
			AddRow("prod-a", "fox-sticker", "Fox Sticker", "/img/a.png", "3", 700))

	pv, err := repo.Lookup(context.Background(), "prod-a", "3", "matte")
	require.NoError(t, err)
	require.Equal(t, "Fox Sticker", pv.Product.Title)
	require.Equal(t, 700, pv.Variant.PriceCents)
	require.Equal(t, "matte", pv.Variant.Finish)
}

func TestLookup_ProductMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(lookupSQL)).
		WithArgs("prod-gone", "3", "matte").
		WillReturnRows(sqlmock.NewRows(lookupColumns()))

	_, err = repo.Lookup(context.Background(), "prod-gone", "3", "matte")

	var notFound *ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "prod-gone", notFound.ProductID)
}

func TestLookup_VariantMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	// product row exists, variant columns come back NULL from the left join
	mock.ExpectQuery(regexp.QuoteMeta(lookupSQL)).
		WithArgs("prod-a", "9", "holo").
		WillReturnRows(sqlmock.NewRows(lookupColumns()).
			AddRow("prod-a", "fox-sticker", "Fox Sticker", "/img/a.png", nil, nil))

	_, err = repo.Lookup(context.Background(), "prod-a", "9", "holo")

	var unavailable *VariantUnavailableError
	require.ErrorAs(t, err, &unavailable)
	require.Equal(t, "prod-a", unavailable.ProductID)
	require.Equal(t, "9", unavailable.Size)
	require.Equal(t, "holo", unavailable.Finish)
}

func TestUpsertProduct(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO products`)).
		WithArgs("prod-a", "fox-sticker", "Fox Sticker", "/img/a.png").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO product_variants`)).
		WithArgs("prod-a", "3", "matte", 700).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO product_variants`)).
		WithArgs("prod-a", "5", "glossy", 900).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p := Product{ID: "prod-a", Slug: "fox-sticker", Title: "Fox Sticker", ImageURL: "/img/a.png"}
	variants := []Variant{
		{ProductID: "prod-a", Size: "3", Finish: "matte", PriceCents: 700},
		{ProductID: "prod-a", Size: "5", Finish: "glossy", PriceCents: 900},
	}

	require.NoError(t, repo.UpsertProduct(context.Background(), p, variants))
	require.NoError(t, mock.ExpectationsWereMet())
}

package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/steppin/internal/catalog"
	"github.com/MrJamesThe3rd/steppin/internal/database"
	"github.com/MrJamesThe3rd/steppin/internal/errx"
	"github.com/MrJamesThe3rd/steppin/internal/ledger"
	"github.com/MrJamesThe3rd/steppin/internal/sale"
	"github.com/MrJamesThe3rd/steppin/internal/store/postgres"
)

// newStore connects to POS_TEST_DATABASE_URL and wipes the POS tables.
// Without it the tests are skipped.
func newStore(t *testing.T) *postgres.Store {
	t.Helper()

	url := os.Getenv("POS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("POS_TEST_DATABASE_URL not set")
	}

	db, err := database.New(url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, database.Migrate(ctx, db))

	_, err = db.ExecContext(ctx, `TRUNCATE products, product_stock, sales; UPDATE pos_versions SET value = 0`)
	require.NoError(t, err)

	return postgres.New(db)
}

func TestStore_ProductRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	p := &catalog.Product{
		ID:        uuid.New(),
		Name:      "Runner X",
		Price:     decimal.RequireFromString("1500.50"),
		Category:  "Sneakers",
		Stock:     []int{0, 3, 0, 7},
		DateAdded: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.CreateProduct(ctx, p))

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.True(t, p.Price.Equal(got.Price))
	assert.Equal(t, p.Stock, got.Stock)
	assert.True(t, p.DateAdded.Equal(got.DateAdded))

	require.NoError(t, s.SetStock(ctx, p.ID, 1, 9))

	list, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []int{0, 9, 0, 7}, list[0].Stock)

	v, err := s.CatalogVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	require.NoError(t, s.DeleteProduct(ctx, p.ID))

	_, err = s.GetProduct(ctx, p.ID)
	assert.True(t, errx.Is(err, errx.KindNotFound))

	err = s.SetStock(ctx, p.ID, 1, 1)
	assert.True(t, errx.Is(err, errx.KindNotFound))
}

func TestStore_CommitSale(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	p := &catalog.Product{ID: uuid.New(), Name: "Court", Price: decimal.NewFromInt(1000), Category: "General", Stock: []int{4}, DateAdded: time.Now()}
	require.NoError(t, s.CreateProduct(ctx, p))

	sl := &ledger.Sale{
		ID:              uuid.New(),
		ProductID:       p.ID,
		ProductName:     p.Name,
		Size:            "6",
		Quantity:        3,
		UnitPrice:       p.Price,
		DiscountPercent: decimal.NewFromInt(10),
		Total:           ledger.LineTotal(p.Price, 3, decimal.NewFromInt(10)),
		PaymentMethod:   ledger.PaymentCash,
		CustomerType:    ledger.CustomerWalkIn,
		Timestamp:       time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC),
	}

	err := s.CommitSale(ctx, sale.StockSwap{ProductID: p.ID, Slot: 0, Expected: 5, Next: 2}, sl)
	assert.True(t, errx.Is(err, errx.KindConflict))

	require.NoError(t, s.CommitSale(ctx, sale.StockSwap{ProductID: p.ID, Slot: 0, Expected: 4, Next: 1}, sl))

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got.Stock)

	sales, err := s.ListSales(ctx, ledger.Filter{})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, sl.ID, sales[0].ID)
	assert.Equal(t, "2700.00", sales[0].Total.StringFixed(2))
	assert.True(t, sl.Timestamp.Equal(sales[0].Timestamp))

	lv, err := s.LedgerVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), lv)
}

package report_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/steppin/internal/ledger"
	"github.com/MrJamesThe3rd/steppin/internal/report"
	"github.com/MrJamesThe3rd/steppin/internal/store/memory"
)

func TestScheduler_ExportDay(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	led := ledger.NewService(st, time.UTC)
	dir := filepath.Join(t.TempDir(), "exports")

	s, err := report.NewScheduler(led, dir, "")
	require.NoError(t, err)

	day := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	_, err = s.ExportDay(ctx, day)
	require.ErrorIs(t, err, report.ErrNoSales)

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "nothing is written for an empty day")

	require.NoError(t, led.Append(ctx, &ledger.Sale{
		ID:              uuid.New(),
		ProductName:     "Runner X",
		Size:            "9",
		Quantity:        1,
		UnitPrice:       decimal.NewFromInt(1000),
		DiscountPercent: decimal.Zero,
		Total:           decimal.NewFromInt(1000),
		PaymentMethod:   ledger.PaymentCard,
		CustomerType:    ledger.CustomerRegular,
		Timestamp:       day,
	}))

	require.NoError(t, led.Append(ctx, &ledger.Sale{
		ID:        uuid.New(),
		Quantity:  1,
		Timestamp: day.AddDate(0, 0, 1),
	}))

	path, err := s.ExportDay(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sales-2026-10-15.csv"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"Time,Product,Size,Quantity,Unit Price,Discount %,Total,Payment Method,Customer\n"+
			"12:00:00,Runner X,9,1,1000.00,0,1000.00,Card,Regular\n",
		string(raw))
}

func TestScheduler_ExportPreviousDay_IncludesLateSales(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewService(memory.New(), time.UTC)
	dir := t.TempDir()

	s, err := report.NewScheduler(led, dir, "")
	require.NoError(t, err)

	late := time.Date(2026, 10, 15, 23, 58, 0, 0, time.UTC)

	require.NoError(t, led.Append(ctx, &ledger.Sale{
		ID:              uuid.New(),
		ProductName:     "Trail Y",
		Size:            "10",
		Quantity:        2,
		UnitPrice:       decimal.NewFromInt(500),
		DiscountPercent: decimal.Zero,
		Total:           decimal.NewFromInt(1000),
		PaymentMethod:   ledger.PaymentCash,
		CustomerType:    ledger.CustomerWalkIn,
		Timestamp:       late,
	}))

	path, err := s.ExportPreviousDay(ctx, time.Date(2026, 10, 16, 0, 5, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sales-2026-10-15.csv"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "23:58:00,Trail Y,10,2,500.00,0,1000.00,")
}

func TestNewScheduler_RejectsBadSchedule(t *testing.T) {
	_, err := report.NewScheduler(ledger.NewService(memory.New(), time.UTC), t.TempDir(), "not a schedule")
	assert.Error(t, err)
}

package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/steppin/internal/analytics"
	"github.com/MrJamesThe3rd/steppin/internal/catalog"
	"github.com/MrJamesThe3rd/steppin/internal/errx"
	"github.com/MrJamesThe3rd/steppin/internal/ledger"
	"github.com/MrJamesThe3rd/steppin/internal/sale"
	"github.com/MrJamesThe3rd/steppin/internal/store/memory"
)

func TestService_SummaryMatchesLedger(t *testing.T) {
	ctx := context.Background()
	sizes := catalog.MustSizeRange(catalog.DefaultSizeLabels)
	st := memory.New()

	cat := catalog.NewService(st, sizes)
	led := ledger.NewService(st, time.UTC)
	coord := sale.NewCoordinator(st, sizes)
	svc := analytics.NewService(cat, led, analytics.NewMemoryCache(), analytics.DefaultOptions())

	p, err := cat.Create(ctx, catalog.CreateParams{Name: "Runner X", Price: decimal.NewFromInt(1000), Sizes: map[string]int{"9": 10}})
	require.NoError(t, err)

	for _, d := range []int64{0, 10, 50} {
		_, err := coord.Sell(ctx, sale.Request{
			ProductID:       p.ID,
			Size:            "9",
			Quantity:        1,
			DiscountPercent: decimal.NewFromInt(d),
			PaymentMethod:   ledger.PaymentCash,
			CustomerType:    ledger.CustomerRegular,
		})
		require.NoError(t, err)
	}

	all, err := led.List(ctx, ledger.Filter{})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, s := range all {
		sum = sum.Add(s.Total)
	}

	for _, scope := range []analytics.Scope{analytics.ScopeAll, analytics.ScopeToday} {
		r, err := svc.Summary(ctx, scope)
		require.NoError(t, err)

		assert.True(t, sum.Equal(r.TotalRevenue), scope)
		assert.Equal(t, len(all), r.SalesCount, scope)
		assert.Equal(t, 7, r.TotalStock, scope)
		assert.Equal(t, 3, r.CountByCustomerType[ledger.CustomerRegular], scope)
	}

	_, err = cat.SetStock(ctx, p.ID, "9", 2)
	require.NoError(t, err)

	r, err := svc.Summary(ctx, analytics.ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, 2, r.TotalStock, "a catalog change must invalidate the cached report")
	require.Len(t, r.LowStockProducts, 1)
}

func TestService_SummaryServesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	cat := analytics.NewMockCatalog(ctrl)
	led := analytics.NewMockLedger(ctrl)

	cat.EXPECT().Version(gomock.Any()).Return(int64(3), nil).AnyTimes()
	led.EXPECT().Version(gomock.Any()).Return(int64(7), nil).AnyTimes()

	cat.EXPECT().List(gomock.Any()).Return([]*catalog.Product{product("A", 1)}, nil).Times(1)
	led.EXPECT().List(gomock.Any(), ledger.Filter{}).Return(nil, nil).Times(1)

	svc := analytics.NewService(cat, led, nil, analytics.DefaultOptions())

	first, err := svc.Summary(context.Background(), analytics.ScopeAll)
	require.NoError(t, err)

	second, err := svc.Summary(context.Background(), analytics.ScopeAll)
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestService_SummaryRetriesMovingSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	cat := analytics.NewMockCatalog(ctrl)
	led := analytics.NewMockLedger(ctrl)

	cat.EXPECT().Version(gomock.Any()).Return(int64(1), nil).AnyTimes()

	// A sale lands while the first read is in flight.
	gomock.InOrder(
		led.EXPECT().Version(gomock.Any()).Return(int64(1), nil),
		led.EXPECT().Version(gomock.Any()).Return(int64(2), nil),
		led.EXPECT().Version(gomock.Any()).Return(int64(2), nil).Times(2),
	)

	cat.EXPECT().List(gomock.Any()).Return(nil, nil).Times(2)
	gomock.InOrder(
		led.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil),
		led.EXPECT().List(gomock.Any(), gomock.Any()).Return([]*ledger.Sale{
			saleOf("A", 1, "100.00", ledger.PaymentCard, ledger.CustomerWalkIn),
		}, nil),
	)

	svc := analytics.NewService(cat, led, nil, analytics.DefaultOptions())

	r, err := svc.Summary(context.Background(), analytics.ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, 1, r.SalesCount)
}

func TestService_SummaryTodayUsesDayFilter(t *testing.T) {
	ctrl := gomock.NewController(t)
	cat := analytics.NewMockCatalog(ctrl)
	led := analytics.NewMockLedger(ctrl)

	now := time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC)
	from := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	day := ledger.Filter{From: &from, To: &to}

	led.EXPECT().Now().Return(now)
	led.EXPECT().DayFilter(now).Return(day)
	cat.EXPECT().Version(gomock.Any()).Return(int64(0), nil).AnyTimes()
	led.EXPECT().Version(gomock.Any()).Return(int64(0), nil).AnyTimes()
	cat.EXPECT().List(gomock.Any()).Return(nil, nil)
	led.EXPECT().List(gomock.Any(), day).Return(nil, nil)

	svc := analytics.NewService(cat, led, nil, analytics.DefaultOptions())

	_, err := svc.Summary(context.Background(), analytics.ScopeToday)
	require.NoError(t, err)
}

func TestParseScope(t *testing.T) {
	type testCase struct {
		in      string
		want    analytics.Scope
		wantErr bool
	}

	tests := []testCase{
		{in: "", want: analytics.ScopeAll},
		{in: "all", want: analytics.ScopeAll},
		{in: " Today ", want: analytics.ScopeToday},
		{in: "week", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := analytics.ParseScope(tt.in)
			if tt.wantErr {
				assert.True(t, errx.Is(err, errx.KindInvalidInput))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

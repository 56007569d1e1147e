package analytics_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/steppin/internal/analytics"
	"github.com/MrJamesThe3rd/steppin/internal/catalog"
	"github.com/MrJamesThe3rd/steppin/internal/ledger"
)

func TestMemoryCache_KeepsLatestPerScope(t *testing.T) {
	ctx := context.Background()
	c := analytics.NewMemoryCache()
	r1, r2 := &analytics.Report{SalesCount: 1}, &analytics.Report{SalesCount: 2}

	require.NoError(t, c.Set(ctx, "all:all:1:1", r1))
	require.NoError(t, c.Set(ctx, "all:all:1:2", r2))

	got, err := c.Get(ctx, "all:all:1:1")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = c.Get(ctx, "all:all:1:2")
	require.NoError(t, err)
	assert.Same(t, r2, got)
}

func TestRedisCache_RoundTrip(t *testing.T) {
	url := os.Getenv("POS_TEST_REDIS_URL")
	if url == "" {
		t.Skip("POS_TEST_REDIS_URL not set")
	}

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)

	rdb := redis.NewClient(opts)
	t.Cleanup(func() { rdb.Close() })

	ctx := context.Background()
	c := analytics.NewRedisCache(rdb, time.Minute)
	key := "test:" + time.Now().Format(time.RFC3339Nano)

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)

	want := analytics.Compute(
		[]*catalog.Product{product("A", 1)},
		[]*ledger.Sale{saleOf("A", 1, "99.99", ledger.PaymentCard, ledger.CustomerVIP)},
		analytics.DefaultOptions(),
	)
	require.NoError(t, c.Set(ctx, key, want))

	got, err = c.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, want.TotalRevenue.Equal(got.TotalRevenue))
	assert.Equal(t, want.CountByCustomerType, got.CountByCustomerType)
	assert.Equal(t, want.TopSellers, got.TopSellers)
}

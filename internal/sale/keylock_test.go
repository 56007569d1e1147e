package sale

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedLock_DistinctKeysDoNotBlock(t *testing.T) {
	ctx := context.Background()
	k := newKeyedLock()
	id := uuid.New()

	unlockA, err := k.lock(ctx, stockKey{productID: id, slot: 0})
	require.NoError(t, err)
	defer unlockA()

	done := make(chan struct{})

	go func() {
		unlock, err := k.lock(ctx, stockKey{productID: id, slot: 1})
		if err == nil {
			unlock()
		}

		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different size blocked")
	}
}

func TestKeyedLock_ReleasesEntries(t *testing.T) {
	k := newKeyedLock()
	key := stockKey{productID: uuid.New(), slot: 3}

	var wg sync.WaitGroup

	counter := 0

	for range 100 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			unlock, err := k.lock(context.Background(), key)
			if err != nil {
				return
			}

			counter++
			unlock()
		}()
	}

	wg.Wait()

	assert.Equal(t, 100, counter)
	assert.Zero(t, k.size())
}

func TestKeyedLock_WaitHonoursCancel(t *testing.T) {
	k := newKeyedLock()
	key := stockKey{productID: uuid.New(), slot: 2}

	unlock, err := k.lock(context.Background(), key)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = k.lock(ctx, key)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.Zero(t, k.size(), "a cancelled waiter must not leak its entry")

	again, err := k.lock(context.Background(), key)
	require.NoError(t, err)
	again()
}

func TestMonotonicClock(t *testing.T) {
	base := time.Date(2026, 10, 15, 8, 0, 0, 1500, time.UTC)
	times := []time.Time{base, base.Add(-time.Hour), base.Add(time.Millisecond)}
	i := 0

	c := monotonicClock{now: func() time.Time {
		now := times[i]
		i++

		return now
	}}

	first := c.next()
	assert.Equal(t, base.Truncate(time.Microsecond), first)
	assert.Equal(t, first, c.next())
	assert.Equal(t, base.Add(time.Millisecond).Truncate(time.Microsecond), c.next())
}

package sale

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type stockKey struct {
	productID uuid.UUID
	slot      int
}

// keyedLock hands out one lock per stock cell and forgets it once no caller
// holds or waits on it. Waiting gives up when the caller's context ends.
type keyedLock struct {
	mu    sync.Mutex
	locks map[stockKey]*cellLock
}

type cellLock struct {
	sem  chan struct{}
	refs int
}

func newKeyedLock() *keyedLock {
	return &keyedLock{locks: make(map[stockKey]*cellLock)}
}

func (k *keyedLock) lock(ctx context.Context, key stockKey) (unlock func(), err error) {
	k.mu.Lock()

	l, ok := k.locks[key]
	if !ok {
		l = &cellLock{sem: make(chan struct{}, 1)}
		k.locks[key] = l
	}

	l.refs++
	k.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		k.release(key, l)
		return nil, ctx.Err()
	}

	return func() {
		<-l.sem
		k.release(key, l)
	}, nil
}

func (k *keyedLock) release(key stockKey, l *cellLock) {
	k.mu.Lock()
	defer k.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

func (k *keyedLock) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	return len(k.locks)
}

package adapter_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/infrastructure/adapter"
)

func TestLocalLockerSerializesSameKey(t *testing.T) {
	locker := adapter.NewLocalLocker()

	var (
		mu      sync.Mutex
		current int
		max     int
	)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), "p1")
			require.NoError(t, err)
			defer release()

			mu.Lock()
			current++
			if current > max {
				max = current
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			current--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, max)
}

func TestLocalLockerDifferentKeysDoNotBlock(t *testing.T) {
	locker := adapter.NewLocalLocker()

	release1, err := locker.Acquire(context.Background(), "p1")
	require.NoError(t, err)
	defer release1()

	done := make(chan struct{})
	go func() {
		release2, err := locker.Acquire(context.Background(), "p2")
		assert.NoError(t, err)
		release2()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquire on a different key should not block")
	}
}

func TestLocalLockerRespectsContextCancellation(t *testing.T) {
	locker := adapter.NewLocalLocker()

	release, err := locker.Acquire(context.Background(), "p1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, "p1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()

	// 取消过的等待者不能把锁弄坏
	release3, err := locker.Acquire(context.Background(), "p1")
	require.NoError(t, err)
	release3()
}

func TestLocalLockerReleaseIsIdempotent(t *testing.T) {
	locker := adapter.NewLocalLocker()

	release, err := locker.Acquire(context.Background(), "p1")
	require.NoError(t, err)
	release()
	release()

	again, err := locker.Acquire(context.Background(), "p1")
	require.NoError(t, err)
	again()
}

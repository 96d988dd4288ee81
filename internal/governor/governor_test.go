package governor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkSemBoundsConcurrency(t *testing.T) {
	w := NewWorkSem(2)
	var inflight, maxInflight int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := context.Background()
			_ = w.Acquire(ctx)
			defer w.Release()
			n := atomic.AddInt32(&inflight, 1)
			for {
				old := atomic.LoadInt32(&maxInflight)
				if n <= old || atomic.CompareAndSwapInt32(&maxInflight, old, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inflight, -1)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, int(maxInflight), 2)
}

func TestWorkSemAcquireRespectsContext(t *testing.T) {
	w := NewWorkSem(1)
	ctx := context.Background()
	assert.NoError(t, w.Acquire(ctx))

	cancelCtx, cancel := context.WithCancel(context.Background())
	cancel()
	err := w.Acquire(cancelCtx)
	assert.Error(t, err)
}

func TestLevelSemaphoresIndependentLevels(t *testing.T) {
	l := NewLevelSemaphores(1)
	ctx := context.Background()
	assert.NoError(t, l.Acquire(ctx, 0))
	assert.NoError(t, l.Acquire(ctx, 1))
	l.Release(0)
	l.Release(1)
}

func TestLevelSemaphoresSlotPersists(t *testing.T) {
	l := NewLevelSemaphores(1)
	ctx := context.Background()
	assert.NoError(t, l.Acquire(ctx, 3))
	l.Release(3)
	// revisiting the same level must reuse the existing slot rather than
	// panic on an out-of-range access.
	assert.NoError(t, l.Acquire(ctx, 3))
	l.Release(3)
}

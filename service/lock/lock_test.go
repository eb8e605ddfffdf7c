package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/guaranty/fault"
)

func TestLocker_Serializes(t *testing.T) {
	locker := New(time.Second)
	ctx := context.Background()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(ctx, PolicyKey("p1"))
			if !assert.NoError(t, err) {
				return
			}
			defer release()
			current := counter
			time.Sleep(time.Microsecond)
			counter = current + 1
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, locker.Held())
}

func TestLocker_Timeout(t *testing.T) {
	locker := New(20 * time.Millisecond)
	ctx := context.Background()
	release, err := locker.Acquire(ctx, PolicyKey("p1"))
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, PolicyKey("p1"))
	assert.ErrorIs(t, err, fault.ErrLockTimeout)
	assert.Equal(t, fault.KindConcurrencyConflict, fault.KindOf(err))

	other, err := locker.Acquire(ctx, PolicyKey("p2"))
	require.NoError(t, err)
	other()

	release()
	release()
	again, err := locker.Acquire(ctx, PolicyKey("p1"))
	require.NoError(t, err)
	again()
	assert.Equal(t, 0, locker.Held())
}

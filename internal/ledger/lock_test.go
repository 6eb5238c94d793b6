package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSortedUnique(t *testing.T) {
	require.Equal(t, []uint{1, 2, 7}, sortedUnique([]uint{7, 2, 1, 2, 7}))
	require.Equal(t, []uint{3}, sortedUnique([]uint{3, 3}))
	require.Empty(t, sortedUnique(nil))
}

func TestMutexLockerExclusion(t *testing.T) {
	locker := NewMutexLocker()
	ctx := context.Background()

	release, err := locker.LockWallets(ctx, nil, []uint{1, 2})
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		rel, err := locker.LockWallets(ctx, nil, []uint{2, 1})
		require.NoError(t, err)
		close(acquired)
		rel()
	}()

	select {
	case <-acquired:
		t.Fatal("second caller acquired wallets while first still held them")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second caller never acquired wallets after release")
	}
}

func TestMutexLockerOppositeOrderings(t *testing.T) {
	locker := NewMutexLocker()
	ctx := context.Background()

	// Half the callers name the pair (1,2), half (2,1). Ordered
	// acquisition must let every one of them finish.
	const callers = 50
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		ids := []uint{1, 2}
		if i%2 == 1 {
			ids = []uint{2, 1}
		}
		go func(ids []uint) {
			defer wg.Done()
			release, err := locker.LockWallets(ctx, nil, ids)
			if err != nil {
				t.Error(err)
				return
			}
			release()
		}(ids)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("lock acquisitions did not complete; possible deadlock")
	}
}

package ledger

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ledger-service/internal/model"
)

// Locker acquires exclusive locks on a set of wallets for the duration
// of the caller's transaction. Implementations must take the locks in
// ascending wallet-ID order: any two operations contending on the same
// pair of wallets then acquire them in the same order no matter which
// wallet each started from, so no circular wait can form.
//
// The returned release func is a no-op for store-native row locks
// (the store drops them at commit/rollback) and must be called after
// the transaction closes for in-process locks.
type Locker interface {
	LockWallets(ctx context.Context, tx *gorm.DB, walletIDs []uint) (release func(), err error)
}

func sortedUnique(ids []uint) []uint {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// RowLocker takes blocking SELECT ... FOR UPDATE row locks. The store
// releases them when the enclosing transaction commits or rolls back.
type RowLocker struct{}

func (RowLocker) LockWallets(ctx context.Context, tx *gorm.DB, walletIDs []uint) (func(), error) {
	for _, id := range sortedUnique(walletIDs) {
		var w model.Wallet
		err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&w, id).Error
		if err != nil {
			return nil, fmt.Errorf("failed to lock wallet %d: %w", id, err)
		}
	}
	return func() {}, nil
}

// MutexLocker keys an in-process mutex per wallet, for stores without
// native row locks. The caller holds the mutexes across the whole
// transaction and releases them via the returned func once it closes.
type MutexLocker struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewMutexLocker() *MutexLocker {
	return &MutexLocker{locks: make(map[uint]*sync.Mutex)}
}

func (l *MutexLocker) mutexFor(id uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

func (l *MutexLocker) LockWallets(ctx context.Context, tx *gorm.DB, walletIDs []uint) (func(), error) {
	held := make([]*sync.Mutex, 0, len(walletIDs))
	for _, id := range sortedUnique(walletIDs) {
		m := l.mutexFor(id)
		m.Lock()
		held = append(held, m)
	}
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
	return release, nil
}

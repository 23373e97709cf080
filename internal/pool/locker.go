package pool

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// locker serializes work per pool address. Entries are dropped once no
// caller holds or waits on them.
type locker struct {
	mu    sync.Mutex
	locks map[common.Address]*poolLock
}

type poolLock struct {
	mu   sync.Mutex
	refs int
}

func newLocker() *locker {
	return &locker{locks: make(map[common.Address]*poolLock)}
}

// lock blocks until the caller owns pool and returns the release func.
func (l *locker) lock(pool common.Address) func() {
	l.mu.Lock()
	entry, ok := l.locks[pool]
	if !ok {
		entry = &poolLock{}
		l.locks[pool] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, pool)
		}
		l.mu.Unlock()
	}
}

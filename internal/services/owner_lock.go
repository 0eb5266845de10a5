package service

import "sync"

// OwnerLocks hands out one mutex per owner key. Entries are dropped once no
// goroutine holds or waits on them, so idle owners cost nothing. The cart and
// checkout services share one instance.
type OwnerLocks struct {
	mu    sync.Mutex
	locks map[string]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

func NewOwnerLocks() *OwnerLocks {
	return &OwnerLocks{locks: make(map[string]*ownerLock)}
}

// Lock blocks until the owner is free and returns the matching unlock.
func (l *OwnerLocks) Lock(ownerKey string) func() {

	l.mu.Lock()
	lock, ok := l.locks[ownerKey]
	if !ok {
		lock = &ownerLock{}
		l.locks[ownerKey] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, ownerKey)
		}
		l.mu.Unlock()
	}
}

func (l *OwnerLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.locks)
}

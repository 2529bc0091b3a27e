package portfolio

import (
	"sync"

	"github.com/google/uuid"
)

// recordLocks serializes writers of the same record inside one process.
// Entries are reference counted and dropped when the last holder unlocks.
type recordLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*recordLock
}

type recordLock struct {
	mu   sync.Mutex
	refs int
}

func newRecordLocks() *recordLocks {
	return &recordLocks{locks: make(map[uuid.UUID]*recordLock)}
}

// lock blocks until id is free and returns the matching unlock func.
func (l *recordLocks) lock(id uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &recordLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

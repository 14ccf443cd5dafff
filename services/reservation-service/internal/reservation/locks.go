package reservation

import (
	"slices"
	"sync"
)

// TableLocks serializes writes per table: bookings placed on it and admin changes to
// it. Share one set between a Scheduler and its TableAdmin. Entries are reference
// counted and dropped once nobody holds or waits on them.
type TableLocks struct {
	mu      sync.Mutex
	entries map[int64]*tableLock
}

type tableLock struct {
	mu   sync.Mutex
	refs int
}

func NewTableLocks() *TableLocks {
	return &TableLocks{entries: make(map[int64]*tableLock)}
}

// lock acquires the locks of every distinct table id in ascending order and returns the
// matching release function.
func (l *TableLocks) lock(ids ...int64) func() {
	ids = slices.Clone(ids)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	held := make([]*tableLock, 0, len(ids))
	for _, id := range ids {
		entry := l.acquire(id)
		entry.mu.Lock()
		held = append(held, entry)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			l.release(ids[i])
		}
	}
}

func (l *TableLocks) acquire(id int64) *tableLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[id]
	if !ok {
		entry = &tableLock{}
		l.entries[id] = entry
	}
	entry.refs++
	return entry
}

func (l *TableLocks) release(id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := l.entries[id]
	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, id)
	}
}

func (l *TableLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

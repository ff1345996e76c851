package services

import "sync"

// declarationLocks serializes mutations per declaration id. Units of work on
// different declarations run concurrently; two units touching the same
// declaration take turns.
type declarationLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newDeclarationLocks() *declarationLocks {
	return &declarationLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for the given declaration id and returns the
// unlock function.
func (l *declarationLocks) Lock(declarationID string) func() {
	l.mu.Lock()
	m, ok := l.locks[declarationID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[declarationID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

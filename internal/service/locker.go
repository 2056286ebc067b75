package service

import "sync"

// sessionLocker hands out one mutex per session id. Entries are dropped
// once no goroutine holds or waits for them.
type sessionLocker struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newSessionLocker() *sessionLocker {
	return &sessionLocker{locks: make(map[string]*refMutex)}
}

// Lock blocks until the session is free and returns the unlock func.
func (l *sessionLocker) Lock(id string) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &refMutex{}
		l.locks[id] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

package continuity

import "sync"

// projectLocks serializes scans per project. Recording alerts reads then
// writes without a transaction, so two concurrent scans of one project could
// both insert for the same signature; the keyed mutex closes that window
// while leaving scans of different projects fully parallel.
type projectLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newProjectLocks() *projectLocks {
	return &projectLocks{locks: map[string]*sync.Mutex{}}
}

// lock acquires the project's mutex and returns its unlock func.
// Lock entries are never removed; the set of projects is small and stable.
func (l *projectLocks) lock(projectID string) func() {
	l.mu.Lock()
	m, ok := l.locks[projectID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[projectID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

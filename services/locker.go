package services

import (
	"sync"

	"github.com/google/uuid"
)

// TournamentLocker hands out one mutex per tournament. Entries are dropped
// once nobody holds or waits for them.
type TournamentLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*tournamentLock
}

type tournamentLock struct {
	mu   sync.Mutex
	refs int
}

func NewTournamentLocker() *TournamentLocker {
	return &TournamentLocker{locks: make(map[uuid.UUID]*tournamentLock)}
}

// Lock blocks until the tournament is free and returns the unlock func.
func (l *TournamentLocker) Lock(id uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &tournamentLock{}
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

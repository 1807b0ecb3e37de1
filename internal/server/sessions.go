package server

import (
	"sync"

	"github.com/scoutbase/matchscout/internal/scouting"
)

// SessionEntry wraps one station's session with its own lock. The session
// itself is a single-actor state machine; the lock only serializes the
// HTTP handlers that drive it.
type SessionEntry struct {
	mu      sync.Mutex
	Session *scouting.Session
}

// Lock takes exclusive ownership of the entry's session.
func (e *SessionEntry) Lock()   { e.mu.Lock() }
func (e *SessionEntry) Unlock() { e.mu.Unlock() }

// SessionRegistry holds the in-progress sessions, one per station.
type SessionRegistry struct {
	mu      sync.RWMutex
	entries map[string]*SessionEntry
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{entries: make(map[string]*SessionEntry)}
}

// Get returns the entry for a station, or nil if none exists.
func (r *SessionRegistry) Get(station string) *SessionEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[station]
}

// Put starts a fresh session for the station, replacing any previous one.
func (r *SessionRegistry) Put(meta scouting.Meta) *SessionEntry {
	e := &SessionEntry{Session: scouting.NewSession(meta)}
	r.mu.Lock()
	r.entries[meta.Station] = e
	r.mu.Unlock()
	return e
}

// Delete drops the station's session.
func (r *SessionRegistry) Delete(station string) {
	r.mu.Lock()
	delete(r.entries, station)
	r.mu.Unlock()
}

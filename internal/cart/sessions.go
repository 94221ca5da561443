package cart

import (
	"sync"
	"time"
)

const (
	DefaultSessionIdleTTL = 30 * time.Minute
	DefaultMaxSessions    = 10000
)

type SessionsOption func(*Sessions)

// WithIdleTTL drops stores that have not been used for d.
func WithIdleTTL(d time.Duration) SessionsOption {
	return func(s *Sessions) {
		if d > 0 {
			s.idleTTL = d
		}
	}
}

// WithMaxSessions caps the number of resident stores. The least recently
// used store is dropped when the cap is exceeded.
func WithMaxSessions(n int) SessionsOption {
	return func(s *Sessions) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

func WithSessionClock(now func() time.Time) SessionsOption {
	return func(s *Sessions) {
		if now != nil {
			s.now = now
		}
	}
}

type sessionEntry struct {
	store    *Store
	lastUsed time.Time
}

// Sessions lazily creates one Store per session id and keeps it resident
// while it is in use. Dropped stores are rebuilt from their persistence on
// the next access.
type Sessions struct {
	mu          sync.Mutex
	entries     map[string]*sessionEntry
	lastSweep   time.Time
	newStore    func(sessionID string) *Store
	idleTTL     time.Duration
	maxSessions int
	now         func() time.Time
}

func NewSessions(newStore func(sessionID string) *Store, opts ...SessionsOption) *Sessions {
	s := &Sessions{
		entries:     make(map[string]*sessionEntry),
		newStore:    newStore,
		idleTTL:     DefaultSessionIdleTTL,
		maxSessions: DefaultMaxSessions,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the store for sessionID, building it on first use. The store
// is built outside the lock; if two callers race, the first insert wins.
func (s *Sessions) Get(sessionID string) *Store {
	s.mu.Lock()
	if e, ok := s.entries[sessionID]; ok {
		e.lastUsed = s.now()
		s.mu.Unlock()
		return e.store
	}
	s.mu.Unlock()

	built := s.newStore(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[sessionID]; ok {
		e.lastUsed = now
		return e.store
	}
	s.entries[sessionID] = &sessionEntry{store: built, lastUsed: now}
	s.evictLocked(now, sessionID)
	return built
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep drops every store idle for longer than the idle TTL.
func (s *Sessions) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(s.now())
}

func (s *Sessions) evictLocked(now time.Time, keep string) {
	if now.Sub(s.lastSweep) >= s.idleTTL/2 {
		s.sweepLocked(now)
	}
	for len(s.entries) > s.maxSessions {
		oldest := ""
		var oldestUsed time.Time
		for id, e := range s.entries {
			if id == keep {
				continue
			}
			if oldest == "" || e.lastUsed.Before(oldestUsed) {
				oldest, oldestUsed = id, e.lastUsed
			}
		}
		if oldest == "" {
			return
		}
		delete(s.entries, oldest)
	}
}

func (s *Sessions) sweepLocked(now time.Time) {
	s.lastSweep = now
	for id, e := range s.entries {
		if now.Sub(e.lastUsed) >= s.idleTTL {
			delete(s.entries, id)
		}
	}
}

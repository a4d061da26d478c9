package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/storefront/internal/core/domain"
)

// A session is the state owned by one visitor.
// Fields other than id are guarded by mu.
type session struct {
	mu          sync.Mutex
	id          string
	category    string
	searchTerm  string
	cart        domain.Cart
	cartVisible bool
}

func newSession(id string) *session {
	return &session{id: id, category: domain.AllCategories}
}

type sessionEntry struct {
	s        *session
	lastSeen time.Time
}

// Sessions is the registry of live visitor sessions.
type Sessions struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
	idleTTL time.Duration
	now     func() time.Time
	newID   func() string
}

// NewSessions creates a registry evicting sessions idle for longer than
// idleTTL. A zero idleTTL keeps sessions forever.
func NewSessions(idleTTL time.Duration) *Sessions {
	return &Sessions{
		entries: make(map[string]*sessionEntry),
		idleTTL: idleTTL,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// open returns the session for id, creating a fresh one when id is unknown.
func (r *Sessions) open(id string) *session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if e, ok := r.entries[id]; ok {
		e.lastSeen = now
		return e.s
	}

	s := newSession(r.newID())
	r.entries[s.id] = &sessionEntry{s: s, lastSeen: now}
	return s
}

func (r *Sessions) get(id string) (*session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.s, true
}

func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep evicts idle sessions and returns how many were evicted.
func (r *Sessions) Sweep() (n int) {
	if r.idleTTL <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	deadline := r.now().Add(-r.idleTTL)
	for id, e := range r.entries {
		if e.lastSeen.Before(deadline) {
			delete(r.entries, id)
			n++
		}
	}
	return n
}

// Run sweeps idle sessions every interval until ctx is done.
func (r *Sessions) Run(ctx context.Context, interval time.Duration) {
	const op = "Sessions.Run"
	log := slog.With("op", op)

	if interval <= 0 || r.idleTTL <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n != 0 {
				log.Debug("idle sessions evicted", "n", n, "live", r.Len())
			}
		}
	}
}

// Package setup implements the per-user flow that collects a chat's Wallu API
// key from an administrator.
package setup

import (
	"sync"
	"time"
)

// State is the phase of a user's setup flow.
type State int

const (
	// StateNone means the user has no flow in progress.
	StateNone State = iota
	// StateAwaitingAPIKey means the next non-command text from the user is the key.
	StateAwaitingAPIKey
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateAwaitingAPIKey:
		return "awaiting_api_key"
	default:
		return "unknown"
	}
}

// Session is one user's in-flight setup.
type Session struct {
	UserID       int64
	State        State
	TargetChatID int64
	StartedAt    time.Time
}

// Registry holds sessions in memory, at most one per user. Sessions do not
// survive a restart.
type Registry struct {
	mu       sync.Mutex
	sessions map[int64]Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[int64]Session)}
}

// Get returns the session for userID.
func (r *Registry) Get(userID int64) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	return s, ok
}

// Put stores s, replacing any session the user already had.
func (r *Registry) Put(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.UserID] = s
}

// Delete removes the user's session and reports whether one existed.
func (r *Registry) Delete(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[userID]
	delete(r.sessions, userID)
	return ok
}

// Sweep drops sessions started before cutoff and returns how many were removed.
func (r *Registry) Sweep(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if s.StartedAt.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

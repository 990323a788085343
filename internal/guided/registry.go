// ABOUTME: In-memory session registry with per-user serialization and idle sweep
package guided

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultSessionWindow is how long a session lives from its start.
	DefaultSessionWindow = 30 * time.Minute
	// DefaultSweepInterval is how often expired sessions are removed.
	DefaultSweepInterval = 10 * time.Minute
)

// Registry holds at most one live session per user. Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	locks    map[string]*sync.Mutex

	now func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		locks:    make(map[string]*sync.Mutex),
		now:      time.Now,
	}
}

// Acquire locks the per-user mutex so concurrent requests from the same user
// run one at a time. The returned func releases it.
func (r *Registry) Acquire(userID string) func() {
	r.mu.Lock()
	lock, ok := r.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[userID] = lock
	}
	r.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Get returns the user's live session, or nil.
func (r *Registry) Get(userID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[userID]
}

// Put stores the session, replacing any existing one for the user.
func (r *Registry) Put(session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.UserID] = session
}

// Delete removes the user's session.
func (r *Registry) Delete(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Clear removes all sessions. Intended for tests.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = make(map[string]*Session)
}

// Sweep removes sessions older than window, measured from session start, and
// returns how many were removed.
func (r *Registry) Sweep(window time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for userID, session := range r.sessions {
		if now.Sub(session.StartedAt) > window {
			delete(r.sessions, userID)
			removed++
		}
	}
	return removed
}

// StartSweeper sweeps on a ticker until ctx is cancelled.
func (r *Registry) StartSweeper(ctx context.Context, interval, window time.Duration, logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.Sweep(window); n > 0 {
					logger.Info("swept expired guided sessions", "count", n)
				}
			}
		}
	}()
}

// SetClock replaces the registry's time source. Intended for tests.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

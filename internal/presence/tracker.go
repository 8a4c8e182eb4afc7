// Package presence tracks which users currently hold a live connection.
// State lives only for the process lifetime and is rebuilt from connections
// after a restart; last-seen instants survive disconnects but not restarts.
package presence

import (
	"sort"
	"sync"
	"time"
)

// Tracker is the process-wide online set plus last-seen timestamps. All
// mutation goes through its operation set; it is safe for concurrent use
// from any number of connection lifecycles.
type Tracker struct {
	mu       sync.RWMutex
	online   map[string]struct{}
	lastSeen map[string]time.Time

	now func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		online:   make(map[string]struct{}),
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
}

// MarkOnline records userID as online. Idempotent.
func (t *Tracker) MarkOnline(userID string) {
	if userID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.online[userID] = struct{}{}
}

// MarkOffline removes userID from the online set and stamps last-seen with
// the current time. Idempotent.
func (t *Tracker) MarkOffline(userID string) {
	if userID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.online, userID)
	t.lastSeen[userID] = t.now()
}

func (t *Tracker) IsOnline(userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.online[userID]
	return ok
}

// LastSeen returns the instant userID last went offline. ok is false when
// the user was never seen going offline by this process.
func (t *Tracker) LastSeen(userID string) (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ts, ok := t.lastSeen[userID]
	return ts, ok
}

// ListOnline returns the online user ids in sorted order.
func (t *Tracker) ListOnline() []string {
	t.mu.RLock()
	users := make([]string, 0, len(t.online))
	for id := range t.online {
		users = append(users, id)
	}
	t.mu.RUnlock()

	sort.Strings(users)
	return users
}

package session

import (
	"sort"
	"sync"
)

// Registry holds all live sessions keyed by session id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	joined   map[string]uint64
	next     uint64
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		joined:   make(map[string]uint64),
	}
}

// Register inserts or overwrites. A replaced session is closed.
func (that *Registry) Register(session *Session) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if previous, ok := that.sessions[session.ID]; ok && previous != session {
		previous.Close()
	}

	that.sessions[session.ID] = session
	that.next++
	that.joined[session.ID] = that.next
}

// Unregister removes the session and closes its queue. Safe to call more than once.
func (that *Registry) Unregister(id string) bool {
	that.mu.Lock()
	session, ok := that.sessions[id]
	delete(that.sessions, id)
	delete(that.joined, id)
	that.mu.Unlock()

	if ok {
		session.Close()
	}

	return ok
}

func (that *Registry) Get(id string) (*Session, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	session, ok := that.sessions[id]

	return session, ok
}

func (that *Registry) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.sessions)
}

// HasPlayer reports whether any live session belongs to the player.
func (that *Registry) HasPlayer(playerID string) bool {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for _, session := range that.sessions {
		if session.PlayerID == playerID {
			return true
		}
	}

	return false
}

// PlayerIDs - distinct players of live sessions, in the order their first live session registered.
func (that *Registry) PlayerIDs() []string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	sessions := make([]*Session, 0, len(that.sessions))
	for _, session := range that.sessions {
		sessions = append(sessions, session)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return that.joined[sessions[i].ID] < that.joined[sessions[j].ID]
	})

	seen := make(map[string]struct{}, len(sessions))
	playerIDs := make([]string, 0, len(sessions))
	for _, session := range sessions {
		if _, ok := seen[session.PlayerID]; ok {
			continue
		}

		seen[session.PlayerID] = struct{}{}
		playerIDs = append(playerIDs, session.PlayerID)
	}

	return playerIDs
}

// Broadcast enqueues the payload on every session. It never blocks; ids of sessions
// that refused the payload are returned so the caller can log them.
func (that *Registry) Broadcast(payload []byte) []string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	var failed []string
	for id, session := range that.sessions {
		if err := session.Send(payload); err != nil {
			failed = append(failed, id)
		}
	}

	return failed
}

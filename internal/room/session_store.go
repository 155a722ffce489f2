// internal/room/session_store.go
package room

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// SessionStore tracks the sessions a process is running, keyed by room code.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	log      *logrus.Entry
}

// NewSessionStore returns an empty store.
func NewSessionStore(log *logrus.Entry) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		log:      log,
	}
}

// Add registers s under its current room code. A session outside any room,
// or a code already registered, is ignored.
func (st *SessionStore) Add(s *Session) bool {
	code := s.RoomID()
	if code == "" {
		return false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, exists := st.sessions[code]; exists {
		st.log.WithField("room", code).Warn("session already registered")
		return false
	}
	st.sessions[code] = s
	return true
}

// Get returns the session for code.
func (st *SessionStore) Get(code string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[code]
	return s, ok
}

// Remove unregisters code and leaves its room.
func (st *SessionStore) Remove(code string) {
	st.mu.Lock()
	s, ok := st.sessions[code]
	delete(st.sessions, code)
	st.mu.Unlock()
	if ok {
		s.LeaveRoom()
	}
}

// Codes lists the registered room codes.
func (st *SessionStore) Codes() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	codes := make([]string, 0, len(st.sessions))
	for c := range st.sessions {
		codes = append(codes, c)
	}
	return codes
}

// Close leaves every registered room.
func (st *SessionStore) Close() {
	for _, code := range st.Codes() {
		st.Remove(code)
	}
}

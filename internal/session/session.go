package session

import (
	"sync"
	"time"

	"quiz-bot/internal/quiz"
)

// Session is one user's in-progress quiz run. Answers is sparse: an
// index a caller never answered simply has no entry and scores as a
// mismatch at finalization.
type Session struct {
	ID        string
	UserID    int64
	Identity  string
	Quiz      quiz.Quiz
	Index     int
	Answers   map[int]string
	StartedAt time.Time
	UpdatedAt time.Time
}

// Store abstracts the per-user session map so the engine never holds
// ambient global state. Implementations must be safe for concurrent use.
type Store interface {
	Get(userID int64) (*Session, bool)
	Put(userID int64, s *Session)
	Remove(userID int64)
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]*Session)}
}

func (m *MemoryStore) Get(userID int64) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return s, ok
}

func (m *MemoryStore) Put(userID int64, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = s
}

func (m *MemoryStore) Remove(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions idle longer than maxIdle and reports how many
// were removed. Abandoned runs otherwise live forever.
func (m *MemoryStore) Sweep(maxIdle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-maxIdle)
	removed := 0
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Package session keeps per-user conversation state in memory.
package session

import (
	"sync"
	"time"
)

// Role identifies the author of a history entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the conversation history.
type Turn struct {
	Role Role
	Text string
	At   time.Time
}

// Session is the state of one user's conversation.
type Session struct {
	UserID    int64
	CreatedAt time.Time
	History   []Turn
}

// Store maps users to sessions. Sessions live until the process exits.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session), now: time.Now}
}

func (s *Store) getLocked(userID int64) *Session {
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &Session{UserID: userID, CreatedAt: s.now()}
		s.sessions[userID] = sess
	}
	return sess
}

// Append adds a turn to the user's history.
func (s *Store) Append(userID int64, role Role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getLocked(userID)
	sess.History = append(sess.History, Turn{Role: role, Text: text, At: s.now()})
}

// History returns a copy of the user's turns.
func (s *Store) History(userID int64) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil
	}
	return append([]Turn(nil), sess.History...)
}

// Reset drops the user's history while keeping the session.
func (s *Store) Reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[userID]; ok {
		sess.History = nil
	}
}

// Len returns the number of known sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// Package session holds the per-user guided-entry state: an in-memory
// store keyed by user id and the linear state machine that collects a
// payment method, an amount, a category and an optional note.
package session

import (
	"sync"

	"gastos/internal/core"
)

type State int

const (
	AwaitingMethod State = iota
	AwaitingAmount
	AwaitingCategory
	AwaitingNote
)

func (s State) String() string {
	switch s {
	case AwaitingMethod:
		return "awaiting_method"
	case AwaitingAmount:
		return "awaiting_amount"
	case AwaitingCategory:
		return "awaiting_category"
	case AwaitingNote:
		return "awaiting_note"
	}
	return "unknown"
}

// Session is the transient per-user flow state. It lives only between
// flow start and completion, cancellation or error.
type Session struct {
	State    State
	Method   string
	Amount   core.Money
	Category string
}

// Store maps user ids to their open session. At most one session per
// user; message delivery per user is sequential, the mutex only guards
// the map against the scheduler goroutine.
type Store struct {
	mu sync.Mutex
	m  map[int64]*Session
}

func NewStore() *Store {
	return &Store{m: map[int64]*Session{}}
}

func (s *Store) Get(userID int64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[userID]
	return sess, ok
}

func (s *Store) Set(userID int64, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[userID] = sess
}

func (s *Store) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
}

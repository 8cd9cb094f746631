package appstate

import (
	"sync"
)

// Store keeps one State per user in memory. It is created once at startup
// and injected into the handlers that need it.
type Store struct {
	mu     sync.RWMutex
	states map[string]State
}

func NewStore() *Store {
	return &Store{states: make(map[string]State)}
}

// Get returns the user's state, seeding it on first access.
func (s *Store) Get(userID string) State {
	s.mu.RLock()
	st, ok := s.states[userID]
	s.mu.RUnlock()
	if ok {
		return st.clone()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[userID]; ok {
		return st.clone()
	}
	st = Initial()
	s.states[userID] = st
	return st.clone()
}

// Apply runs reduce against the user's current state and stores the result
// unless reduce fails.
func (s *Store) Apply(userID string, reduce func(State) (State, error)) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.states[userID]
	if !ok {
		current = Initial()
	}

	next, err := reduce(current.clone())
	if err != nil {
		return current.clone(), err
	}
	s.states[userID] = next
	return next.clone(), nil
}

// Package session holds the signed-in user and decides which routes the
// current visitor may open.
package session

import (
	"sync"

	"github.com/nhle/clinicdesk/internal/model"
)

// Store holds the current user and whether a profile fetch is in flight.
// Listeners registered with Subscribe run after every change.
type Store struct {
	mu        sync.RWMutex
	user      *model.User
	loading   bool
	listeners []func()
}

// NewStore returns an empty store: no user, not loading.
func NewStore() *Store {
	return &Store{}
}

// User returns a copy of the current user, or nil when none is loaded.
func (s *Store) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Loading reports whether a profile fetch is in progress.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// BeginLoad marks a profile fetch as started.
func (s *Store) BeginLoad() {
	s.update(func() { s.loading = true })
}

// SetUser stores a loaded profile and ends loading.
func (s *Store) SetUser(u *model.User) {
	var cp *model.User
	if u != nil {
		v := *u
		cp = &v
	}
	s.update(func() {
		s.user = cp
		s.loading = false
	})
}

// Fail ends loading without a user.
func (s *Store) Fail() {
	s.update(func() {
		s.user = nil
		s.loading = false
	})
}

// Clear forgets the user, as on logout.
func (s *Store) Clear() {
	s.Fail()
}

// Subscribe registers fn to run after each change.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// update applies fn under the lock, then notifies listeners outside it so
// they may read the store.
func (s *Store) update(fn func()) {
	s.mu.Lock()
	fn()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l()
	}
}

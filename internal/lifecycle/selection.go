package lifecycle

import (
	"sync"

	"wayfarer/internal/inbox"
)

// Selection is the currently open conversation, shared between the list and
// the lifecycle machine.
type Selection struct {
	mu  sync.RWMutex
	key *inbox.Key
}

// Select marks key as open.
func (s *Selection) Select(key inbox.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key
	s.key = &k
}

// Selected returns the open item, if any.
func (s *Selection) Selected() (inbox.Key, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.key == nil {
		return inbox.Key{}, false
	}
	return *s.key, true
}

// Clear drops the selection.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = nil
}

// ClearIf drops the selection only when it is key, and reports whether it did.
func (s *Selection) ClearIf(key inbox.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key == nil || *s.key != key {
		return false
	}
	s.key = nil
	return true
}

// Package cache holds the in-flight conversation state that must survive
// between otherwise stateless webhook invocations without touching durable
// storage. Entries carry a fixed TTL; a lost entry only means the user has
// to restart the contact-share flow.
package cache

import (
	"sync"
	"time"
)

// PendingTicket is the state captured from a contact-share event while the
// bridge waits for the customer-number reply.
type PendingTicket struct {
	Phone  string
	ChatID int64
}

type pendingKey struct {
	telegramID int64
	botID      uint
}

type pendingEntry struct {
	value     PendingTicket
	expiresAt time.Time
}

// PendingStore is a mutex-guarded key-value store with per-entry expiry,
// keyed by (telegram user, bot). Absence is a normal outcome, not an error.
type PendingStore struct {
	mu      sync.Mutex
	entries map[pendingKey]pendingEntry
	ttl     time.Duration

	// now is swappable in tests.
	now func() time.Time
}

// NewPendingStore returns an empty store whose entries live for ttl.
func NewPendingStore(ttl time.Duration) *PendingStore {
	return &PendingStore{
		entries: make(map[pendingKey]pendingEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Put stores (or replaces) the pending state for a user-bot pair and
// restarts its TTL.
func (s *PendingStore) Put(telegramID int64, botID uint, v PendingTicket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[pendingKey{telegramID, botID}] = pendingEntry{
		value:     v,
		expiresAt: s.now().Add(s.ttl),
	}
}

// Get returns the pending state for a user-bot pair. Expired entries are
// removed on read and reported as absent.
func (s *PendingStore) Get(telegramID int64, botID uint) (PendingTicket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pendingKey{telegramID, botID}
	e, ok := s.entries[k]
	if !ok {
		return PendingTicket{}, false
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, k)
		return PendingTicket{}, false
	}
	return e.value, true
}

// Delete clears the pending state for a user-bot pair. Deleting an absent
// entry is a no-op.
func (s *PendingStore) Delete(telegramID int64, botID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, pendingKey{telegramID, botID})
}

package session

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is how long an unconfirmed purchase draft stays valid.
const DefaultTTL = 5 * time.Minute

// PurchaseDraft is a quoted purchase awaiting the user's confirmation. It
// holds no reservation; stock and balance are only touched at confirm time.
type PurchaseDraft struct {
	ProductID int64
	Quantity  int
	Total     int64
	QuotedAt  time.Time
}

type entry struct {
	draft     PurchaseDraft
	expiresAt time.Time
}

// Store keeps one draft per user in memory. State is per instance and
// disposable; losing it only means the user re-quotes.
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{ttl: ttl, entries: make(map[string]entry)}
}

// Put replaces any existing draft for the user.
func (s *Store) Put(userID string, draft PurchaseDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = entry{draft: draft, expiresAt: time.Now().Add(s.ttl)}
}

// Get returns the user's draft if one exists and has not expired.
func (s *Store) Get(userID string) (PurchaseDraft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		return PurchaseDraft{}, false
	}
	if time.Now().After(e.expiresAt) {
		delete(s.entries, userID)
		return PurchaseDraft{}, false
	}
	return e.draft, true
}

// Take returns and removes the draft in one step, so a draft can be
// confirmed at most once.
func (s *Store) Take(userID string) (PurchaseDraft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		return PurchaseDraft{}, false
	}
	delete(s.entries, userID)
	if time.Now().After(e.expiresAt) {
		return PurchaseDraft{}, false
	}
	return e.draft, true
}

func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartJanitor sweeps expired drafts until the context is cancelled.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *Store) sweep() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for userID, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, userID)
		}
	}
}

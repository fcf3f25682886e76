package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/Pensezy/EduTrack-CM-sub003/core/onboarding"
)

type memoryEntry struct {
	sess      onboarding.Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. A zero ttl keeps them forever.
// Expired sessions are dropped when accessed, and swept on every Save.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

var _ onboarding.SessionStore = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, sess onboarding.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()
	entry := memoryEntry{sess: sess}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	s.entries[sess.ID] = entry
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (onboarding.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return onboarding.Session{}, onboarding.ErrSessionNotFound
	}
	if s.expired(entry) {
		delete(s.entries, id)
		return onboarding.Session{}, onboarding.ErrSessionNotFound
	}
	return entry.sess, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return onboarding.ErrSessionNotFound
	}
	delete(s.entries, id)
	if s.expired(entry) {
		return onboarding.ErrSessionNotFound
	}
	return nil
}

func (s *MemoryStore) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt)
}

// sweep drops every expired entry. Callers hold the lock.
func (s *MemoryStore) sweep() {
	if s.ttl <= 0 {
		return
	}
	for id, entry := range s.entries {
		if s.expired(entry) {
			delete(s.entries, id)
		}
	}
}

// Package storage provides persistence gateways for profiles and the nap
// log: in-memory, a JSON file per identity, SQLite and PostgreSQL.
package storage

import (
	"context"
	"sync"

	"github.com/hammamikhairi/napflow/internal/domain"
	"github.com/hammamikhairi/napflow/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.Gateway          = (*MemoryStore)(nil)
	_ domain.SessionCompleter = (*MemoryStore)(nil)
)

// MemoryStore is an in-memory gateway. Safe for concurrent access.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]domain.Profile
	sessions map[string][]domain.SessionRecord
	log      *logger.Logger
}

// NewMemoryStore creates an empty in-memory gateway.
func NewMemoryStore(log *logger.Logger) *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]domain.Profile),
		sessions: make(map[string][]domain.SessionRecord),
		log:      log,
	}
}

// GetProfile returns the stored profile or domain.ErrNotFound.
func (s *MemoryStore) GetProfile(ctx context.Context, identity string) (*domain.Profile, error) {
	if err := checkIdentity(identity); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[identity]
	if !ok {
		s.log.Debug("profile not found: %s", identity)
		return nil, domain.ErrNotFound
	}
	return cloneProfile(p), nil
}

// SetProfile stores a profile, overwriting any previous one.
func (s *MemoryStore) SetProfile(ctx context.Context, identity string, profile domain.Profile) error {
	if err := checkIdentity(identity); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug("saving profile %s (xp=%d, naps=%d)", identity, profile.XP, profile.TotalNaps)
	s.profiles[identity] = *cloneProfile(profile)
	return nil
}

// Clear removes the profile and every nap of identity.
func (s *MemoryStore) Clear(ctx context.Context, identity string) error {
	if err := checkIdentity(identity); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.profiles, identity)
	delete(s.sessions, identity)
	s.log.Debug("cleared %s", identity)
	return nil
}

// AppendSession adds a completed nap to the log.
func (s *MemoryStore) AppendSession(ctx context.Context, identity string, record domain.SessionRecord) error {
	if err := checkIdentity(identity); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[identity] = append(s.sessions[identity], record)
	s.log.Debug("appended nap %s for %s", record.ID, identity)
	return nil
}

// CompleteSession appends the record and stores the profile atomically.
func (s *MemoryStore) CompleteSession(ctx context.Context, identity string, profile domain.Profile, record domain.SessionRecord) error {
	if err := checkIdentity(identity); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[identity] = append(s.sessions[identity], record)
	s.profiles[identity] = *cloneProfile(profile)
	s.log.Debug("completed nap %s for %s", record.ID, identity)
	return nil
}

// QuerySessions returns the naps in r, ordered by date and completion time.
func (s *MemoryStore) QuerySessions(ctx context.Context, identity string, r domain.DateRange) ([]domain.SessionRecord, error) {
	if err := checkIdentity(identity); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := selectRange(s.sessions[identity], r)
	s.log.Debug("querying naps %s..%s for %s, count=%d", r.From, r.To, identity, len(out))
	return out, nil
}

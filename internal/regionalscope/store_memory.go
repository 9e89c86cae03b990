package regionalscope

import (
	"context"
	"sync"

	id "siscof/pkg/domain"
)

// InMemoryStore keeps scopes in a map guarded by a RWMutex.
type InMemoryStore struct {
	mu     sync.RWMutex
	scopes map[id.UserID][]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{scopes: make(map[id.UserID][]string)}
}

func (s *InMemoryStore) Get(ctx context.Context, userID id.UserID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := s.scopes[userID]
	out := make([]string, len(codes))
	copy(out, codes)
	return out, nil
}

func (s *InMemoryStore) Replace(ctx context.Context, userID id.UserID, regionCodes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(regionCodes) == 0 {
		delete(s.scopes, userID)
		return nil
	}
	codes := make([]string, len(regionCodes))
	copy(codes, regionCodes)
	s.scopes[userID] = codes
	return nil
}

package members

import (
	"context"
	"sort"
	"sync"

	id "siscof/pkg/domain"
)

// InMemoryStore keeps members in a slice guarded by a RWMutex.
type InMemoryStore struct {
	mu      sync.RWMutex
	members []Member
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Create(ctx context.Context, member *Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = append(s.members, *member)
	return nil
}

func (s *InMemoryStore) ListByUnits(ctx context.Context, unitIDs []id.UnitID, limit, offset int) ([]Member, error) {
	allowed := make(map[id.UnitID]bool, len(unitIDs))
	for _, unitID := range unitIDs {
		allowed[unitID] = true
	}

	s.mu.RLock()
	var matched []Member
	for _, member := range s.members {
		if allowed[member.UnitID] {
			matched = append(matched, member)
		}
	}
	s.mu.RUnlock()

	return page(matched, limit, offset), nil
}

func (s *InMemoryStore) ListAll(ctx context.Context, limit, offset int) ([]Member, error) {
	s.mu.RLock()
	matched := make([]Member, len(s.members))
	copy(matched, s.members)
	s.mu.RUnlock()

	return page(matched, limit, offset), nil
}

func page(members []Member, limit, offset int) []Member {
	sort.Slice(members, func(i, j int) bool {
		if members[i].FullName != members[j].FullName {
			return members[i].FullName < members[j].FullName
		}
		return members[i].ID.String() < members[j].ID.String()
	})
	if offset >= len(members) {
		return []Member{}
	}
	members = members[offset:]
	if limit > 0 && limit < len(members) {
		members = members[:limit]
	}
	return members
}

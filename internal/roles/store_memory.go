package roles

import (
	"context"
	"sync"

	id "siscof/pkg/domain"
)

type assignmentKey struct {
	userID id.UserID
	unitID id.UnitID
	role   RoleName
}

// InMemoryStore keeps assignments in a map guarded by a RWMutex.
type InMemoryStore struct {
	mu          sync.RWMutex
	assignments map[assignmentKey]Assignment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{assignments: make(map[assignmentKey]Assignment)}
}

func (s *InMemoryStore) CreateIfAbsent(ctx context.Context, assignment *Assignment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := assignmentKey{assignment.UserID, assignment.UnitID, assignment.Role}
	if _, exists := s.assignments[key]; exists {
		return false, nil
	}
	s.assignments[key] = *assignment
	return true, nil
}

func (s *InMemoryStore) Delete(ctx context.Context, userID id.UserID, unitID id.UnitID, role RoleName) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := assignmentKey{userID, unitID, role}
	if _, exists := s.assignments[key]; !exists {
		return false, nil
	}
	delete(s.assignments, key)
	return true, nil
}

func (s *InMemoryStore) ListByUser(ctx context.Context, userID id.UserID) ([]Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []Assignment
	for key, assignment := range s.assignments {
		if key.userID == userID {
			result = append(result, assignment)
		}
	}
	return result, nil
}

func (s *InMemoryStore) ListByUnit(ctx context.Context, unitID id.UnitID) ([]Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []Assignment
	for key, assignment := range s.assignments {
		if key.unitID == unitID {
			result = append(result, assignment)
		}
	}
	return result, nil
}

// Count reports the number of stored assignments. Test helper.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assignments)
}

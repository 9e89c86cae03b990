package hierarchy

import (
	"context"
	"sync"

	id "siscof/pkg/domain"
	"siscof/pkg/platform/sentinel"
)

// InMemoryStore keeps units in a map guarded by a RWMutex. Used in unit
// tests and single-instance development mode; production uses PostgresStore.
type InMemoryStore struct {
	mu    sync.RWMutex
	units map[id.UnitID]*Unit
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{units: make(map[id.UnitID]*Unit)}
}

func (s *InMemoryStore) Create(ctx context.Context, unit *Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.units[unit.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *unit
	s.units[unit.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(ctx context.Context, unitID id.UnitID) (*Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	unit, ok := s.units[unitID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *unit
	return &cp, nil
}

func (s *InMemoryStore) Update(ctx context.Context, unit *Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.units[unit.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *unit
	s.units[unit.ID] = &cp
	return nil
}

func (s *InMemoryStore) Ancestors(ctx context.Context, unitID id.UnitID) ([]*Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	unit, ok := s.units[unitID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	var ancestors []*Unit
	for unit.ParentID != nil {
		parent, ok := s.units[*unit.ParentID]
		if !ok {
			// Dangling parent pointer; treat the chain as ending here.
			break
		}
		cp := *parent
		ancestors = append(ancestors, &cp)
		unit = parent
	}
	return ancestors, nil
}

func (s *InMemoryStore) DescendantIDs(ctx context.Context, unitID id.UnitID) ([]id.UnitID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.units[unitID]; !ok {
		return nil, sentinel.ErrNotFound
	}

	children := make(map[id.UnitID][]id.UnitID, len(s.units))
	for _, u := range s.units {
		if u.ParentID != nil {
			children[*u.ParentID] = append(children[*u.ParentID], u.ID)
		}
	}

	result := []id.UnitID{unitID}
	queue := []id.UnitID{unitID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range children[current] {
			result = append(result, child)
			queue = append(queue, child)
		}
	}
	return result, nil
}

func (s *InMemoryStore) UnitIDsInRegions(ctx context.Context, regionCodes []string) ([]id.UnitID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[string]struct{}, len(regionCodes))
	for _, code := range regionCodes {
		wanted[code] = struct{}{}
	}
	var ids []id.UnitID
	for _, u := range s.units {
		if _, ok := wanted[u.RegionCode]; ok {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

func (s *InMemoryStore) HasChildren(ctx context.Context, unitID id.UnitID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.units {
		if u.Active && u.ParentID != nil && *u.ParentID == unitID {
			return true, nil
		}
	}
	return false, nil
}

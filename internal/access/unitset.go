// Package access answers visibility and management questions by combining
// role assignments, the unit tree and regional scopes. It holds no state of
// its own; every answer is recomputed from the stores.
package access

import (
	id "siscof/pkg/domain"
)

// UnitSet is the result of a visibility computation. The zero value is the
// empty set. A set may be marked "all", which subsumes any explicit ids;
// callers must check All before ranging over IDs.
type UnitSet struct {
	all bool
	ids map[id.UnitID]struct{}
}

// NewUnitSet returns an empty set.
func NewUnitSet() *UnitSet {
	return &UnitSet{ids: make(map[id.UnitID]struct{})}
}

// AllUnits returns the set containing every unit, present and future.
func AllUnits() *UnitSet {
	return &UnitSet{all: true}
}

// All reports whether the set covers every unit.
func (s *UnitSet) All() bool { return s.all }

func (s *UnitSet) Add(unitID id.UnitID) {
	if s.all {
		return
	}
	if s.ids == nil {
		s.ids = make(map[id.UnitID]struct{})
	}
	s.ids[unitID] = struct{}{}
}

// AddAll folds a slice of ids into the set.
func (s *UnitSet) AddAll(unitIDs []id.UnitID) {
	for _, unitID := range unitIDs {
		s.Add(unitID)
	}
}

// Union folds other into s.
func (s *UnitSet) Union(other *UnitSet) {
	if other == nil {
		return
	}
	if other.all {
		s.all = true
		s.ids = nil
		return
	}
	for unitID := range other.ids {
		s.Add(unitID)
	}
}

func (s *UnitSet) Contains(unitID id.UnitID) bool {
	if s.all {
		return true
	}
	_, ok := s.ids[unitID]
	return ok
}

// IDs returns the explicit members. Meaningless when All is true.
func (s *UnitSet) IDs() []id.UnitID {
	out := make([]id.UnitID, 0, len(s.ids))
	for unitID := range s.ids {
		out = append(out, unitID)
	}
	return out
}

// Len returns the number of explicit members.
func (s *UnitSet) Len() int { return len(s.ids) }

// Empty reports whether the set grants visibility over nothing.
func (s *UnitSet) Empty() bool { return !s.all && len(s.ids) == 0 }

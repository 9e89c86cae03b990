// Package hierarchy models the church organizational tree and answers
// ancestor/descendant queries. Units form a tree rooted at a matriz; the
// level taxonomy is fixed and parent links are validated against it.
package hierarchy

import (
	"strings"
	"time"

	id "siscof/pkg/domain"
	dErrors "siscof/pkg/domain-errors"
)

// Level is the position of a unit in the fixed taxonomy.
type Level string

const (
	LevelMatriz      Level = "matriz"
	LevelSede        Level = "sede"
	LevelSubsede     Level = "subsede"
	LevelCongregacao Level = "congregacao"
	LevelCelula      Level = "celula"
)

// levelRank orders levels from root (lowest rank) to leaf.
var levelRank = map[Level]int{
	LevelMatriz:      0,
	LevelSede:        1,
	LevelSubsede:     2,
	LevelCongregacao: 3,
	LevelCelula:      4,
}

// validParents is the single source of truth for allowed parent levels.
// matriz has no parent; celula may hang off any level above it.
var validParents = map[Level][]Level{
	LevelMatriz:      {},
	LevelSede:        {LevelMatriz},
	LevelSubsede:     {LevelSede},
	LevelCongregacao: {LevelSubsede, LevelSede},
	LevelCelula:      {LevelMatriz, LevelSede, LevelSubsede, LevelCongregacao},
}

// ParseLevel validates external input into a Level.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := levelRank[l]; !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown organizational level")
	}
	return l, nil
}

// IsValid reports whether the level is one of the taxonomy values.
func (l Level) IsValid() bool {
	_, ok := levelRank[l]
	return ok
}

func (l Level) String() string { return string(l) }

// IsValidParentLevel reports whether a unit at childLevel may hang off a
// parent at parentLevel. Matriz never has a parent.
func IsValidParentLevel(childLevel, parentLevel Level) bool {
	for _, allowed := range validParents[childLevel] {
		if allowed == parentLevel {
			return true
		}
	}
	return false
}

// Unit is a node in the organizational tree.
//
// Invariants:
//   - Level is one of the taxonomy values
//   - ParentID is nil only for matriz units; otherwise it references a unit
//     whose level satisfies IsValidParentLevel
//   - RegionCode is a non-empty geographic code (state abbreviation)
//   - Units with dependent members are deactivated, never hard-deleted
type Unit struct {
	ID         id.UnitID  `json:"id"`
	Name       string     `json:"name"`
	Level      Level      `json:"level"`
	ParentID   *id.UnitID `json:"parent_id,omitempty"`
	RegionCode string     `json:"region_code"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewUnit constructs a unit, enforcing construction invariants. Parent-level
// validation needs the parent row and happens in the service.
func NewUnit(unitID id.UnitID, name string, level Level, parentID *id.UnitID, regionCode string, now time.Time) (*Unit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unit name cannot be empty")
	}
	if !level.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown organizational level")
	}
	if level == LevelMatriz && parentID != nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "matriz cannot have a parent")
	}
	if level != LevelMatriz && parentID == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "non-matriz unit requires a parent")
	}
	regionCode = strings.ToUpper(strings.TrimSpace(regionCode))
	if regionCode == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "region code cannot be empty")
	}
	return &Unit{
		ID:         unitID,
		Name:       name,
		Level:      level,
		ParentID:   parentID,
		RegionCode: regionCode,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

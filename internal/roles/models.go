// Package roles stores which user holds which named role at which
// organizational unit, and owns the static role/level validity table.
package roles

import (
	"sort"
	"strings"
	"time"

	"siscof/internal/hierarchy"
	id "siscof/pkg/domain"
	dErrors "siscof/pkg/domain-errors"
)

// RoleName names a church role. The roster below is the consolidated table;
// assignment of unknown names is rejected at the parse boundary.
type RoleName string

const (
	RoleSuperAdmin         RoleName = "super_admin"
	RoleAdmin              RoleName = "admin"
	RolePresidenteEstadual RoleName = "presidente_estadual"
	RolePastor             RoleName = "pastor"
	RoleDirigente          RoleName = "dirigente"
	RoleCoordenador        RoleName = "coordenador"
	RoleSecretario         RoleName = "secretario"
	RolePrimeiroTesoureiro RoleName = "primeiro_tesoureiro"
)

// allowedLevels is the single source of truth for which levels a role may
// be assigned at. A nil entry means every level.
var allowedLevels = map[RoleName]map[hierarchy.Level]bool{
	RoleSuperAdmin: nil,
	RoleAdmin:      nil,
	RolePastor:     nil,
	RolePresidenteEstadual: {
		hierarchy.LevelMatriz: true,
	},
	RoleDirigente: {
		hierarchy.LevelCongregacao: true,
		hierarchy.LevelCelula:      true,
	},
	RoleCoordenador: {
		hierarchy.LevelMatriz:  true,
		hierarchy.LevelSede:    true,
		hierarchy.LevelSubsede: true,
	},
	RoleSecretario: {
		hierarchy.LevelMatriz:      true,
		hierarchy.LevelSede:        true,
		hierarchy.LevelSubsede:     true,
		hierarchy.LevelCongregacao: true,
	},
	// Treasurer roles exist everywhere except cell groups.
	RolePrimeiroTesoureiro: {
		hierarchy.LevelMatriz:      true,
		hierarchy.LevelSede:        true,
		hierarchy.LevelSubsede:     true,
		hierarchy.LevelCongregacao: true,
	},
}

// ParseRoleName validates external input against the roster.
func ParseRoleName(s string) (RoleName, error) {
	r := RoleName(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := allowedLevels[r]; !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role name")
	}
	return r, nil
}

func (r RoleName) String() string { return string(r) }

// IsGlobal reports whether the role grants authority over every unit.
func (r RoleName) IsGlobal() bool { return r == RoleSuperAdmin }

// IsRegional reports whether the role's authority is defined by the
// holder's regional scope rather than tree position alone.
func (r RoleName) IsRegional() bool { return r == RolePresidenteEstadual }

// ValidAtLevel reports whether the role may be assigned at the given level.
func (r RoleName) ValidAtLevel(level hierarchy.Level) bool {
	levels, ok := allowedLevels[r]
	if !ok {
		return false
	}
	if levels == nil {
		return true
	}
	return levels[level]
}

// AssignableAt returns the roster filtered to roles valid at the level.
func AssignableAt(level hierarchy.Level) []RoleName {
	var names []RoleName
	for role := range allowedLevels {
		if role.ValidAtLevel(level) {
			names = append(names, role)
		}
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Assignment records that a user holds a role at a unit.
//
// Invariant: at most one assignment per (user, unit, role); grants are
// idempotent. IsManipulator distinguishes read-only holders from holders
// who may grant roles within the unit's subtree.
type Assignment struct {
	UserID        id.UserID `json:"user_id"`
	UnitID        id.UnitID `json:"organizational_unit_id"`
	Role          RoleName  `json:"role_name"`
	IsManipulator bool      `json:"is_manipulator"`
	GrantedAt     time.Time `json:"granted_at"`
}

package access

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"siscof/internal/hierarchy"
	"siscof/internal/roles"
	id "siscof/pkg/domain"
	dErrors "siscof/pkg/domain-errors"
	"siscof/pkg/platform/sentinel"
)

// AssignmentLister exposes the role assignments of a user.
type AssignmentLister interface {
	ListByUser(ctx context.Context, userID id.UserID) ([]roles.Assignment, error)
}

// Tree exposes the parts of the unit store the evaluator walks.
type Tree interface {
	FindByID(ctx context.Context, unitID id.UnitID) (*hierarchy.Unit, error)
	Ancestors(ctx context.Context, unitID id.UnitID) ([]*hierarchy.Unit, error)
	DescendantIDs(ctx context.Context, unitID id.UnitID) ([]id.UnitID, error)
	UnitIDsInRegions(ctx context.Context, regionCodes []string) ([]id.UnitID, error)
}

// ScopeReader exposes a user's regional scope, a set of region codes.
type ScopeReader interface {
	Get(ctx context.Context, userID id.UserID) ([]string, error)
}

// Evaluator computes visibility and management rights. It is stateless and
// safe for concurrent use.
type Evaluator struct {
	assignments AssignmentLister
	tree        Tree
	scopes      ScopeReader
	logger      *slog.Logger
}

type Option func(*Evaluator)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) { e.logger = logger }
}

func NewEvaluator(assignments AssignmentLister, tree Tree, scopes ScopeReader, opts ...Option) *Evaluator {
	e := &Evaluator{
		assignments: assignments,
		tree:        tree,
		scopes:      scopes,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AccessibleUnitIDs returns the set of units the user may see: for a global
// role every unit, otherwise the union of the subtrees under each held unit
// plus, for regional roles with a non-empty scope, every unit in the scoped
// regions. A user with no assignments sees nothing.
func (e *Evaluator) AccessibleUnitIDs(ctx context.Context, userID id.UserID) (*UnitSet, error) {
	start := time.Now()
	defer func() { evalDuration.Observe(time.Since(start).Seconds()) }()

	assignments, err := e.assignments.ListByUser(ctx, userID)
	if err != nil {
		return nil, wrapEvalErr(err)
	}

	set := NewUnitSet()
	needScope := false
	for _, a := range assignments {
		if a.Role.IsGlobal() {
			return AllUnits(), nil
		}
		if a.Role.IsRegional() {
			// Regional authority comes from the scope, not from the
			// subtree under the unit the role happens to be held at.
			needScope = true
			continue
		}
		descendants, err := e.tree.DescendantIDs(ctx, a.UnitID)
		if err != nil {
			// A held unit that has since disappeared contributes
			// nothing rather than failing the whole evaluation.
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			return nil, wrapEvalErr(err)
		}
		set.AddAll(descendants)
	}

	if needScope {
		regionCodes, err := e.scopes.Get(ctx, userID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return nil, wrapEvalErr(err)
		}
		if len(regionCodes) > 0 {
			regional, err := e.tree.UnitIDsInRegions(ctx, regionCodes)
			if err != nil {
				return nil, wrapEvalErr(err)
			}
			set.AddAll(regional)
		}
	}

	return set, nil
}

// CanManage reports whether the actor may grant or revoke the role at the
// unit. Global actors may; otherwise the actor needs a manipulator
// assignment at the unit itself or at an ancestor, the role must be valid
// at the unit's level, and only global actors hand out global roles.
func (e *Evaluator) CanManage(ctx context.Context, actor id.UserID, unitID id.UnitID, role roles.RoleName) (bool, error) {
	assignments, err := e.assignments.ListByUser(ctx, actor)
	if err != nil {
		return false, wrapEvalErr(err)
	}
	for _, a := range assignments {
		if a.Role.IsGlobal() {
			return true, nil
		}
	}
	if role.IsGlobal() {
		manageDenied.Inc()
		return false, nil
	}

	unit, err := e.tree.FindByID(ctx, unitID)
	if err != nil {
		return false, wrapEvalErr(err)
	}
	if !role.ValidAtLevel(unit.Level) {
		manageDenied.Inc()
		return false, nil
	}

	allowed, err := e.holdsManipulatorOver(ctx, assignments, unitID)
	if err != nil {
		return false, err
	}
	if !allowed {
		manageDenied.Inc()
	}
	return allowed, nil
}

// HasGlobalRole reports whether the user holds a role with authority over
// every unit.
func (e *Evaluator) HasGlobalRole(ctx context.Context, userID id.UserID) (bool, error) {
	assignments, err := e.assignments.ListByUser(ctx, userID)
	if err != nil {
		return false, wrapEvalErr(err)
	}
	for _, a := range assignments {
		if a.Role.IsGlobal() {
			return true, nil
		}
	}
	return false, nil
}

// CanAct reports whether the actor has structural authority over the unit:
// a global role, or a manipulator assignment at the unit or an ancestor.
// Used for unit creation, moves and deactivation.
func (e *Evaluator) CanAct(ctx context.Context, actor id.UserID, unitID id.UnitID) (bool, error) {
	assignments, err := e.assignments.ListByUser(ctx, actor)
	if err != nil {
		return false, wrapEvalErr(err)
	}
	for _, a := range assignments {
		if a.Role.IsGlobal() {
			return true, nil
		}
	}
	return e.holdsManipulatorOver(ctx, assignments, unitID)
}

// AssignableRoles returns the roles the actor may grant at the unit. An
// actor with no authority over the unit gets an empty list, not an error.
func (e *Evaluator) AssignableRoles(ctx context.Context, actor id.UserID, unitID id.UnitID) ([]roles.RoleName, error) {
	assignments, err := e.assignments.ListByUser(ctx, actor)
	if err != nil {
		return nil, wrapEvalErr(err)
	}
	global := false
	for _, a := range assignments {
		if a.Role.IsGlobal() {
			global = true
			break
		}
	}
	if !global {
		allowed, err := e.holdsManipulatorOver(ctx, assignments, unitID)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, nil
		}
	}

	unit, err := e.tree.FindByID(ctx, unitID)
	if err != nil {
		return nil, wrapEvalErr(err)
	}
	names := roles.AssignableAt(unit.Level)
	if global {
		return names, nil
	}
	filtered := names[:0]
	for _, name := range names {
		if name.IsGlobal() {
			continue
		}
		filtered = append(filtered, name)
	}
	return filtered, nil
}

// holdsManipulatorOver checks the actor's manipulator assignments against
// the unit and its ancestor chain. One ancestor walk, O(depth).
func (e *Evaluator) holdsManipulatorOver(ctx context.Context, assignments []roles.Assignment, unitID id.UnitID) (bool, error) {
	manipulatorAt := make(map[id.UnitID]bool)
	for _, a := range assignments {
		if a.IsManipulator {
			manipulatorAt[a.UnitID] = true
		}
	}
	if len(manipulatorAt) == 0 {
		return false, nil
	}
	if manipulatorAt[unitID] {
		return true, nil
	}
	ancestors, err := e.tree.Ancestors(ctx, unitID)
	if err != nil {
		return false, wrapEvalErr(err)
	}
	for _, ancestor := range ancestors {
		if manipulatorAt[ancestor.ID] {
			return true, nil
		}
	}
	return false, nil
}

func wrapEvalErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "unit not found")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "store unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "access evaluation failed")
	}
}

package hierarchy

import (
	"context"
	"errors"
	"log/slog"

	"siscof/internal/audit"
	id "siscof/pkg/domain"
	dErrors "siscof/pkg/domain-errors"
	"siscof/pkg/platform/sentinel"
	"siscof/pkg/requestcontext"
)

// Authorizer answers whether an actor may act on a unit. Satisfied by the
// access evaluator; declared here so hierarchy does not import it.
type Authorizer interface {
	CanAct(ctx context.Context, actor id.UserID, unitID id.UnitID) (bool, error)
	HasGlobalRole(ctx context.Context, userID id.UserID) (bool, error)
}

// AuditPublisher records unit lifecycle events alongside the write.
type AuditPublisher interface {
	Emit(ctx context.Context, entry audit.Entry) error
}

// Tx runs a function within a storage transaction so the unit write and its
// audit entry commit or fail together.
type Tx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service orchestrates unit lifecycle and tree queries.
type Service struct {
	units  Store
	authz  Authorizer
	audits AuditPublisher
	tx     Tx
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(units Store, authz Authorizer, audits AuditPublisher, tx Tx, opts ...Option) *Service {
	s := &Service{
		units:  units,
		authz:  authz,
		audits: audits,
		tx:     tx,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetUnit fetches a unit by id.
func (s *Service) GetUnit(ctx context.Context, unitID id.UnitID) (*Unit, error) {
	unit, err := s.units.FindByID(ctx, unitID)
	if err != nil {
		return nil, wrapUnitErr(err)
	}
	return unit, nil
}

// GetAncestors returns unit ids from immediate parent to root.
func (s *Service) GetAncestors(ctx context.Context, unitID id.UnitID) ([]id.UnitID, error) {
	ancestors, err := s.units.Ancestors(ctx, unitID)
	if err != nil {
		return nil, wrapUnitErr(err)
	}
	ids := make([]id.UnitID, 0, len(ancestors))
	for _, unit := range ancestors {
		ids = append(ids, unit.ID)
	}
	return ids, nil
}

// DescendantIDs returns the subtree rooted at unitID, including unitID.
func (s *Service) DescendantIDs(ctx context.Context, unitID id.UnitID) ([]id.UnitID, error) {
	ids, err := s.units.DescendantIDs(ctx, unitID)
	if err != nil {
		return nil, wrapUnitErr(err)
	}
	return ids, nil
}

// CreateUnit validates the parent link against the level taxonomy, requires
// the actor to have authority at or above the parent, and records an audit
// entry in the same transaction as the insert.
func (s *Service) CreateUnit(ctx context.Context, name string, level Level, parentID *id.UnitID, regionCode string, actor id.UserID) (*Unit, error) {
	now := requestcontext.Now(ctx)
	unit, err := NewUnit(id.NewUnitID(), name, level, parentID, regionCode, now)
	if err != nil {
		return nil, err
	}

	if parentID != nil {
		parent, err := s.units.FindByID(ctx, *parentID)
		if err != nil {
			return nil, wrapUnitErr(err)
		}
		if !IsValidParentLevel(level, parent.Level) {
			return nil, dErrors.New(dErrors.CodeValidation, "parent level is not valid for this unit level")
		}
		if err := s.requireAuthority(ctx, actor, parent.ID); err != nil {
			return nil, err
		}
	} else {
		// A root unit has no parent scope to authorize against; only a
		// globally privileged actor may plant a new tree.
		if err := s.requireGlobal(ctx, actor); err != nil {
			return nil, err
		}
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.units.Create(txCtx, unit); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "unit already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create unit")
		}
		return s.audits.Emit(txCtx, audit.Entry{
			Action:  audit.ActionUnitCreated,
			ActorID: actor,
			UnitID:  unit.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "unit created",
		"unit_id", unit.ID.String(),
		"level", unit.Level.String(),
	)
	return unit, nil
}

// MoveUnit reparents a unit. The new parent's level must be valid for the
// unit's level and the actor needs authority over both the unit and the new
// parent. Reparenting is audited.
func (s *Service) MoveUnit(ctx context.Context, unitID, newParentID id.UnitID, actor id.UserID) (*Unit, error) {
	unit, err := s.units.FindByID(ctx, unitID)
	if err != nil {
		return nil, wrapUnitErr(err)
	}
	if unit.Level == LevelMatriz {
		return nil, dErrors.New(dErrors.CodeValidation, "matriz cannot be moved")
	}
	parent, err := s.units.FindByID(ctx, newParentID)
	if err != nil {
		return nil, wrapUnitErr(err)
	}
	if !IsValidParentLevel(unit.Level, parent.Level) {
		return nil, dErrors.New(dErrors.CodeValidation, "parent level is not valid for this unit level")
	}

	// A unit cannot be moved under its own subtree.
	subtree, err := s.units.DescendantIDs(ctx, unitID)
	if err != nil {
		return nil, wrapUnitErr(err)
	}
	for _, descendant := range subtree {
		if descendant == newParentID {
			return nil, dErrors.New(dErrors.CodeValidation, "cannot move a unit under its own descendant")
		}
	}

	if err := s.requireAuthority(ctx, actor, unitID); err != nil {
		return nil, err
	}
	if err := s.requireAuthority(ctx, actor, newParentID); err != nil {
		return nil, err
	}

	unit.ParentID = &newParentID
	unit.UpdatedAt = requestcontext.Now(ctx)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.units.Update(txCtx, unit); err != nil {
			return wrapUnitErr(err)
		}
		return s.audits.Emit(txCtx, audit.Entry{
			Action:  audit.ActionUnitMoved,
			ActorID: actor,
			UnitID:  unit.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return unit, nil
}

// DeactivateUnit soft-deletes a unit. Units are never hard-removed once they
// may have dependent members.
func (s *Service) DeactivateUnit(ctx context.Context, unitID id.UnitID, actor id.UserID) (*Unit, error) {
	unit, err := s.units.FindByID(ctx, unitID)
	if err != nil {
		return nil, wrapUnitErr(err)
	}
	if !unit.Active {
		return nil, dErrors.New(dErrors.CodeConflict, "unit is already inactive")
	}
	hasChildren, err := s.units.HasChildren(ctx, unitID)
	if err != nil {
		return nil, wrapUnitErr(err)
	}
	if hasChildren {
		// Children would dangle under an inactive parent; deactivate or
		// move them first.
		return nil, dErrors.New(dErrors.CodeConflict, "unit still has child units")
	}
	if err := s.requireAuthority(ctx, actor, unitID); err != nil {
		return nil, err
	}

	unit.Active = false
	unit.UpdatedAt = requestcontext.Now(ctx)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.units.Update(txCtx, unit); err != nil {
			return wrapUnitErr(err)
		}
		return s.audits.Emit(txCtx, audit.Entry{
			Action:  audit.ActionUnitDeactivated,
			ActorID: actor,
			UnitID:  unit.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return unit, nil
}

func (s *Service) requireGlobal(ctx context.Context, actor id.UserID) error {
	if actor.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "no signed-in user")
	}
	global, err := s.authz.HasGlobalRole(ctx, actor)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "authority check failed")
	}
	if !global {
		return dErrors.New(dErrors.CodeForbidden, "only a global role may create a root unit")
	}
	return nil
}

func (s *Service) requireAuthority(ctx context.Context, actor id.UserID, unitID id.UnitID) error {
	if actor.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "no signed-in user")
	}
	allowed, err := s.authz.CanAct(ctx, actor, unitID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "authority check failed")
	}
	if !allowed {
		return dErrors.New(dErrors.CodeForbidden, "actor has no authority over this unit")
	}
	return nil
}

func wrapUnitErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "unit not found")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "unit store unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "unit store error")
	}
}

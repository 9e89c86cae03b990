package roles

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"siscof/internal/audit"
	"siscof/internal/hierarchy"
	rolesmetrics "siscof/internal/roles/metrics"
	id "siscof/pkg/domain"
	dErrors "siscof/pkg/domain-errors"
	"siscof/pkg/platform/sentinel"
	"siscof/pkg/requestcontext"
)

// bulkAssignConcurrency bounds parallel grant fan-out in BulkAssign.
const bulkAssignConcurrency = 4

// Authorizer decides whether an actor may manage a role at a unit.
// Satisfied by the access evaluator.
type Authorizer interface {
	CanManage(ctx context.Context, actor id.UserID, unitID id.UnitID, role RoleName) (bool, error)
}

// UnitFinder resolves units so grants can validate the role/level table.
type UnitFinder interface {
	FindByID(ctx context.Context, unitID id.UnitID) (*hierarchy.Unit, error)
}

// AuditPublisher records grant/revoke events in the caller's transaction.
type AuditPublisher interface {
	Emit(ctx context.Context, entry audit.Entry) error
}

// Tx runs a function within a storage transaction.
type Tx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service orchestrates role grants and revocations.
//
// Audit policy: every Grant call that passes its preconditions writes an
// audit entry, including idempotent repeats of an existing tuple. Revoke
// writes an entry only when a row was actually removed, so the log never
// references an assignment that did not exist.
type Service struct {
	assignments Store
	units       UnitFinder
	authz       Authorizer
	audits      AuditPublisher
	tx          Tx
	logger      *slog.Logger
	metrics     *rolesmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *rolesmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(assignments Store, units UnitFinder, authz Authorizer, audits AuditPublisher, tx Tx, opts ...Option) *Service {
	s := &Service{
		assignments: assignments,
		units:       units,
		authz:       authz,
		audits:      audits,
		tx:          tx,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListRoles returns every assignment the user holds.
func (s *Service) ListRoles(ctx context.Context, userID id.UserID) ([]Assignment, error) {
	assignments, err := s.assignments.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list role assignments")
	}
	return assignments, nil
}

// Grant assigns a role to a user at a unit. Preconditions are decided
// before any write: the unit must exist, the role must be valid at the
// unit's level, and the actor must pass the manage check. Granting an
// existing tuple is an idempotent success.
func (s *Service) Grant(ctx context.Context, userID id.UserID, unitID id.UnitID, role RoleName, isManipulator bool, actor id.UserID) (*Assignment, error) {
	start := time.Now()

	unit, err := s.units.FindByID(ctx, unitID)
	if err != nil {
		return nil, wrapStoreErr(err, "unit not found")
	}
	if !role.ValidAtLevel(unit.Level) {
		return nil, dErrors.New(dErrors.CodeValidation, "role is not assignable at this unit level")
	}
	if err := s.requireManage(ctx, actor, unitID, role); err != nil {
		return nil, err
	}

	assignment := &Assignment{
		UserID:        userID,
		UnitID:        unitID,
		Role:          role,
		IsManipulator: isManipulator,
		GrantedAt:     requestcontext.Now(ctx),
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		created, err := s.assignments.CreateIfAbsent(txCtx, assignment)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist role assignment")
		}
		if !created {
			s.logger.DebugContext(txCtx, "repeat grant treated as no-op",
				"user_id", userID.String(),
				"role", role.String(),
			)
		}
		// Every call is audited, repeats included.
		return s.audits.Emit(txCtx, audit.Entry{
			Action:         audit.ActionGranted,
			RoleName:       role.String(),
			AffectedUserID: userID,
			ActorID:        actor,
			UnitID:         unitID,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.GrantsTotal.Inc()
		s.metrics.ObserveGrant(start)
	}
	return assignment, nil
}

// Revoke removes a role from a user at a unit. Revoking a tuple that does
// not exist is an idempotent success with no audit entry.
func (s *Service) Revoke(ctx context.Context, userID id.UserID, unitID id.UnitID, role RoleName, actor id.UserID) error {
	if _, err := s.units.FindByID(ctx, unitID); err != nil {
		return wrapStoreErr(err, "unit not found")
	}
	if err := s.requireManage(ctx, actor, unitID, role); err != nil {
		return err
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		removed, err := s.assignments.Delete(txCtx, userID, unitID, role)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete role assignment")
		}
		if !removed {
			return nil
		}
		return s.audits.Emit(txCtx, audit.Entry{
			Action:         audit.ActionRevoked,
			RoleName:       role.String(),
			AffectedUserID: userID,
			ActorID:        actor,
			UnitID:         unitID,
		})
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RevokesTotal.Inc()
	}
	return nil
}

// AssignmentRequest is one (user, role) pair in a BulkAssign call.
type AssignmentRequest struct {
	UserID        id.UserID
	Role          RoleName
	IsManipulator bool
}

// AssignResult reports the outcome of one BulkAssign item.
type AssignResult struct {
	Request    AssignmentRequest
	Assignment *Assignment
	Err        error
}

// BulkAssign applies Grant for each pair at the same unit. Items succeed or
// fail independently; there is no rollback of earlier successes and no
// ordering guarantee between the writes.
func (s *Service) BulkAssign(ctx context.Context, requests []AssignmentRequest, unitID id.UnitID, actor id.UserID) []AssignResult {
	if s.metrics != nil {
		s.metrics.BulkAssignSize.Observe(float64(len(requests)))
	}

	results := make([]AssignResult, len(requests))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(bulkAssignConcurrency)
	for i, req := range requests {
		g.Go(func() error {
			assignment, err := s.Grant(gCtx, req.UserID, unitID, req.Role, req.IsManipulator, actor)
			results[i] = AssignResult{Request: req, Assignment: assignment, Err: err}
			// Per-item failures stay in the result slice; never abort
			// the group.
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *Service) requireManage(ctx context.Context, actor id.UserID, unitID id.UnitID, role RoleName) error {
	if actor.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "no signed-in user")
	}
	allowed, err := s.authz.CanManage(ctx, actor, unitID, role)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "permission check failed")
	}
	if !allowed {
		if s.metrics != nil {
			s.metrics.DeniedTotal.Inc()
		}
		return dErrors.New(dErrors.CodeForbidden, "actor may not manage this role at this unit")
	}
	return nil
}

func wrapStoreErr(err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "store unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "store error")
	}
}

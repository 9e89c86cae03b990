package regionalscope

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"siscof/internal/audit"
	"siscof/internal/roles"
	id "siscof/pkg/domain"
	dErrors "siscof/pkg/domain-errors"
	"siscof/pkg/platform/sentinel"
)

// Authorizer decides whether an actor has authority over a unit.
type Authorizer interface {
	CanAct(ctx context.Context, actor id.UserID, unitID id.UnitID) (bool, error)
}

// AssignmentLister locates the subject's regional role assignments.
type AssignmentLister interface {
	ListByUser(ctx context.Context, userID id.UserID) ([]roles.Assignment, error)
}

// AuditPublisher records scope replacements.
type AuditPublisher interface {
	Emit(ctx context.Context, entry audit.Entry) error
}

// Tx runs a function within a storage transaction.
type Tx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service manages regional scopes. Setting a scope replaces the previous
// set wholesale; there is no incremental add or remove.
type Service struct {
	scopes      Store
	assignments AssignmentLister
	authz       Authorizer
	audits      AuditPublisher
	tx          Tx
	logger      *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(scopes Store, assignments AssignmentLister, authz Authorizer, audits AuditPublisher, tx Tx, opts ...Option) *Service {
	s := &Service{
		scopes:      scopes,
		assignments: assignments,
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

// GetScope returns the subject's region codes, empty when none are set.
func (s *Service) GetScope(ctx context.Context, userID id.UserID) ([]string, error) {
	codes, err := s.scopes.Get(ctx, userID)
	if err != nil {
		return nil, wrapScopeErr(err)
	}
	return codes, nil
}

// SetScope replaces the subject's scope with the given region codes. The
// subject must hold a regional role somewhere, and the actor must have
// authority over at least one unit where they hold it. An empty code list
// clears the scope, which switches the subject's regional visibility off.
func (s *Service) SetScope(ctx context.Context, subject id.UserID, regionCodes []string, actor id.UserID) error {
	if actor.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "no signed-in user")
	}

	codes, err := normalizeRegionCodes(regionCodes)
	if err != nil {
		return err
	}

	regionalUnits, err := s.subjectRegionalUnits(ctx, subject)
	if err != nil {
		return err
	}
	if len(regionalUnits) == 0 {
		return dErrors.New(dErrors.CodeValidation, "user holds no regional role")
	}
	if err := s.requireAuthorityOverAny(ctx, actor, regionalUnits); err != nil {
		return err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.scopes.Replace(txCtx, subject, codes); err != nil {
			return wrapScopeErr(err)
		}
		return s.audits.Emit(txCtx, audit.Entry{
			Action:         audit.ActionScopeReplaced,
			RoleName:       roles.RolePresidenteEstadual.String(),
			AffectedUserID: subject,
			ActorID:        actor,
		})
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "regional scope replaced",
		"subject_id", subject.String(),
		"actor_id", actor.String(),
		"region_count", len(codes),
	)
	return nil
}

func (s *Service) subjectRegionalUnits(ctx context.Context, subject id.UserID) ([]id.UnitID, error) {
	assignments, err := s.assignments.ListByUser(ctx, subject)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list role assignments")
	}
	var units []id.UnitID
	for _, a := range assignments {
		if a.Role.IsRegional() {
			units = append(units, a.UnitID)
		}
	}
	return units, nil
}

func (s *Service) requireAuthorityOverAny(ctx context.Context, actor id.UserID, units []id.UnitID) error {
	for _, unitID := range units {
		allowed, err := s.authz.CanAct(ctx, actor, unitID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "permission check failed")
		}
		if allowed {
			return nil
		}
	}
	return dErrors.New(dErrors.CodeForbidden, "actor may not manage this user's scope")
}

// normalizeRegionCodes trims, uppercases and deduplicates while keeping
// the caller's order. Blank codes are rejected rather than dropped.
func normalizeRegionCodes(regionCodes []string) ([]string, error) {
	seen := make(map[string]bool, len(regionCodes))
	out := make([]string, 0, len(regionCodes))
	for _, raw := range regionCodes {
		code := strings.ToUpper(strings.TrimSpace(raw))
		if code == "" {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "blank region code")
		}
		if seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out, nil
}

func wrapScopeErr(err error) error {
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "scope store unavailable")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "scope store error")
}

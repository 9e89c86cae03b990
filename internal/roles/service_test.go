package roles

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"siscof/internal/audit"
	"siscof/internal/hierarchy"
	id "siscof/pkg/domain"
	dErrors "siscof/pkg/domain-errors"
	txpkg "siscof/pkg/platform/tx"
	"siscof/pkg/requestcontext"
)

type fakeAuthorizer struct {
	allow bool
}

func (f fakeAuthorizer) CanManage(ctx context.Context, actor id.UserID, unitID id.UnitID, role RoleName) (bool, error) {
	return f.allow, nil
}

type RoleServiceSuite struct {
	suite.Suite
	units  *hierarchy.InMemoryStore
	store  *InMemoryStore
	audits *audit.InMemoryStore
	svc    *Service
	ctx    context.Context
	actor  id.UserID
	matriz *hierarchy.Unit
	sede   *hierarchy.Unit
	celula *hierarchy.Unit
}

func (s *RoleServiceSuite) SetupTest() {
	s.units = hierarchy.NewInMemoryStore()
	s.store = NewInMemoryStore()
	s.audits = audit.NewInMemoryStore()
	s.svc = NewService(s.store, s.units, fakeAuthorizer{allow: true}, audit.NewPublisher(s.audits), txpkg.NopRunner{})
	s.actor = id.NewUserID()
	s.ctx = requestcontext.WithTime(context.Background(), time.Now().UTC())

	s.matriz = s.addUnit("Matriz", hierarchy.LevelMatriz, nil, "SP")
	s.sede = s.addUnit("Sede", hierarchy.LevelSede, &s.matriz.ID, "BA")
	s.celula = s.addUnit("Celula", hierarchy.LevelCelula, &s.sede.ID, "BA")
}

func TestRoleServiceSuite(t *testing.T) {
	suite.Run(t, new(RoleServiceSuite))
}

func (s *RoleServiceSuite) addUnit(name string, level hierarchy.Level, parentID *id.UnitID, region string) *hierarchy.Unit {
	unit, err := hierarchy.NewUnit(id.NewUnitID(), name, level, parentID, region, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.units.Create(s.ctx, unit))
	return unit
}

func (s *RoleServiceSuite) TestGrant() {
	subject := id.NewUserID()

	s.Run("grants and audits", func() {
		assignment, err := s.svc.Grant(s.ctx, subject, s.sede.ID, RolePastor, false, s.actor)
		s.Require().NoError(err)
		s.Equal(RolePastor, assignment.Role)
		s.Equal(1, s.store.Count())
		s.Equal(1, s.audits.Len())
	})

	s.Run("repeat grant is idempotent but still audited", func() {
		_, err := s.svc.Grant(s.ctx, subject, s.sede.ID, RolePastor, false, s.actor)
		s.Require().NoError(err)
		s.Equal(1, s.store.Count())
		s.Equal(2, s.audits.Len())
	})

	s.Run("rejects role invalid at level", func() {
		_, err := s.svc.Grant(s.ctx, subject, s.celula.ID, RoleSecretario, false, s.actor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal(1, s.store.Count())
	})

	s.Run("rejects unknown unit", func() {
		_, err := s.svc.Grant(s.ctx, subject, id.NewUnitID(), RolePastor, false, s.actor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("requires a signed-in actor", func() {
		_, err := s.svc.Grant(s.ctx, subject, s.sede.ID, RolePastor, false, id.UserID{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *RoleServiceSuite) TestGrantDenied() {
	s.svc = NewService(s.store, s.units, fakeAuthorizer{allow: false}, audit.NewPublisher(s.audits), txpkg.NopRunner{})

	_, err := s.svc.Grant(s.ctx, id.NewUserID(), s.sede.ID, RolePastor, false, s.actor)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.Equal(0, s.store.Count())
	s.Equal(0, s.audits.Len())
}

func (s *RoleServiceSuite) TestRevoke() {
	subject := id.NewUserID()
	_, err := s.svc.Grant(s.ctx, subject, s.sede.ID, RolePastor, false, s.actor)
	s.Require().NoError(err)
	auditsAfterGrant := s.audits.Len()

	s.Run("revokes and audits", func() {
		err := s.svc.Revoke(s.ctx, subject, s.sede.ID, RolePastor, s.actor)
		s.Require().NoError(err)
		s.Equal(0, s.store.Count())
		s.Equal(auditsAfterGrant+1, s.audits.Len())
	})

	s.Run("revoking a missing tuple is a silent no-op", func() {
		before := s.audits.Len()
		err := s.svc.Revoke(s.ctx, subject, s.sede.ID, RolePastor, s.actor)
		s.Require().NoError(err)
		s.Equal(before, s.audits.Len())
	})
}

func (s *RoleServiceSuite) TestBulkAssign() {
	userA := id.NewUserID()
	userB := id.NewUserID()
	userC := id.NewUserID()

	s.Run("independent results in request order", func() {
		results := s.svc.BulkAssign(s.ctx, []AssignmentRequest{
			{UserID: userA, Role: RolePastor},
			{UserID: userB, Role: RoleDirigente}, // invalid at sede level
			{UserID: userC, Role: RoleCoordenador, IsManipulator: true},
		}, s.sede.ID, s.actor)

		s.Require().Len(results, 3)
		s.NoError(results[0].Err)
		s.Require().Error(results[1].Err)
		s.True(dErrors.HasCode(results[1].Err, dErrors.CodeValidation))
		s.NoError(results[2].Err)

		s.Equal(userA, results[0].Request.UserID)
		s.Equal(userB, results[1].Request.UserID)
		s.Equal(userC, results[2].Request.UserID)

		s.Equal(2, s.store.Count())
		s.Equal(2, s.audits.Len())
	})

	s.Run("empty input yields empty results", func() {
		results := s.svc.BulkAssign(s.ctx, nil, s.sede.ID, s.actor)
		s.Empty(results)
	})
}

func (s *RoleServiceSuite) TestListRoles() {
	subject := id.NewUserID()
	_, err := s.svc.Grant(s.ctx, subject, s.sede.ID, RolePastor, false, s.actor)
	s.Require().NoError(err)
	_, err = s.svc.Grant(s.ctx, subject, s.celula.ID, RoleDirigente, false, s.actor)
	s.Require().NoError(err)

	assignments, err := s.svc.ListRoles(s.ctx, subject)
	s.Require().NoError(err)
	s.Len(assignments, 2)

	assignments, err = s.svc.ListRoles(s.ctx, id.NewUserID())
	s.Require().NoError(err)
	s.Empty(assignments)
}

package access

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"siscof/internal/hierarchy"
	"siscof/internal/regionalscope"
	"siscof/internal/roles"
	id "siscof/pkg/domain"
)

type EvaluatorSuite struct {
	suite.Suite
	units       *hierarchy.InMemoryStore
	assignments *roles.InMemoryStore
	scopes      *regionalscope.InMemoryStore
	eval        *Evaluator
	ctx         context.Context

	matriz      *hierarchy.Unit
	sedeBA      *hierarchy.Unit
	sedeSE      *hierarchy.Unit
	sedeSP      *hierarchy.Unit
	congregacao *hierarchy.Unit
	celula      *hierarchy.Unit
}

func (s *EvaluatorSuite) SetupTest() {
	s.units = hierarchy.NewInMemoryStore()
	s.assignments = roles.NewInMemoryStore()
	s.scopes = regionalscope.NewInMemoryStore()
	s.eval = NewEvaluator(s.assignments, s.units, s.scopes)
	s.ctx = context.Background()

	s.matriz = s.addUnit("Matriz", hierarchy.LevelMatriz, nil, "SP")
	s.sedeBA = s.addUnit("Sede BA", hierarchy.LevelSede, &s.matriz.ID, "BA")
	s.sedeSE = s.addUnit("Sede SE", hierarchy.LevelSede, &s.matriz.ID, "SE")
	s.sedeSP = s.addUnit("Sede SP", hierarchy.LevelSede, &s.matriz.ID, "SP")
	s.congregacao = s.addUnit("Congregacao BA", hierarchy.LevelCongregacao, &s.sedeBA.ID, "BA")
	s.celula = s.addUnit("Celula BA", hierarchy.LevelCelula, &s.congregacao.ID, "BA")
}

func TestEvaluatorSuite(t *testing.T) {
	suite.Run(t, new(EvaluatorSuite))
}

func (s *EvaluatorSuite) addUnit(name string, level hierarchy.Level, parentID *id.UnitID, region string) *hierarchy.Unit {
	unit, err := hierarchy.NewUnit(id.NewUnitID(), name, level, parentID, region, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.units.Create(s.ctx, unit))
	return unit
}

func (s *EvaluatorSuite) assign(userID id.UserID, unitID id.UnitID, role roles.RoleName, manipulator bool) {
	created, err := s.assignments.CreateIfAbsent(s.ctx, &roles.Assignment{
		UserID:        userID,
		UnitID:        unitID,
		Role:          role,
		IsManipulator: manipulator,
		GrantedAt:     time.Now(),
	})
	s.Require().NoError(err)
	s.Require().True(created)
}

func (s *EvaluatorSuite) TestAccessibleUnitIDs() {
	s.Run("no assignments means no access", func() {
		set, err := s.eval.AccessibleUnitIDs(s.ctx, id.NewUserID())
		s.Require().NoError(err)
		s.True(set.Empty())
	})

	s.Run("super admin sees everything", func() {
		admin := id.NewUserID()
		s.assign(admin, s.celula.ID, roles.RoleSuperAdmin, false)
		set, err := s.eval.AccessibleUnitIDs(s.ctx, admin)
		s.Require().NoError(err)
		s.True(set.All())
	})

	s.Run("holder sees the subtree under the held unit", func() {
		pastor := id.NewUserID()
		s.assign(pastor, s.sedeBA.ID, roles.RolePastor, false)
		set, err := s.eval.AccessibleUnitIDs(s.ctx, pastor)
		s.Require().NoError(err)
		s.False(set.All())
		s.True(set.Contains(s.sedeBA.ID))
		s.True(set.Contains(s.congregacao.ID))
		s.True(set.Contains(s.celula.ID))
		s.False(set.Contains(s.matriz.ID))
		s.False(set.Contains(s.sedeSE.ID))
	})

	s.Run("regional role sees scoped regions only", func() {
		presidente := id.NewUserID()
		s.assign(presidente, s.matriz.ID, roles.RolePresidenteEstadual, false)
		s.Require().NoError(s.scopes.Replace(s.ctx, presidente, []string{"BA", "SE"}))

		set, err := s.eval.AccessibleUnitIDs(s.ctx, presidente)
		s.Require().NoError(err)
		s.False(set.All())
		s.True(set.Contains(s.sedeBA.ID))
		s.True(set.Contains(s.congregacao.ID))
		s.True(set.Contains(s.celula.ID))
		s.True(set.Contains(s.sedeSE.ID))
		s.False(set.Contains(s.sedeSP.ID))
		s.False(set.Contains(s.matriz.ID))
	})

	s.Run("regional role with empty scope sees nothing", func() {
		presidente := id.NewUserID()
		s.assign(presidente, s.matriz.ID, roles.RolePresidenteEstadual, false)
		set, err := s.eval.AccessibleUnitIDs(s.ctx, presidente)
		s.Require().NoError(err)
		s.True(set.Empty())
	})

	s.Run("mixed roles union their grants", func() {
		user := id.NewUserID()
		s.assign(user, s.matriz.ID, roles.RolePresidenteEstadual, false)
		s.assign(user, s.sedeSP.ID, roles.RolePastor, false)
		s.Require().NoError(s.scopes.Replace(s.ctx, user, []string{"SE"}))

		set, err := s.eval.AccessibleUnitIDs(s.ctx, user)
		s.Require().NoError(err)
		s.True(set.Contains(s.sedeSP.ID))
		s.True(set.Contains(s.sedeSE.ID))
		s.False(set.Contains(s.sedeBA.ID))
	})
}

func (s *EvaluatorSuite) TestCanManage() {
	s.Run("super admin manages anything", func() {
		admin := id.NewUserID()
		s.assign(admin, s.celula.ID, roles.RoleSuperAdmin, false)
		ok, err := s.eval.CanManage(s.ctx, admin, s.sedeSP.ID, roles.RolePastor)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("manipulator manages the unit itself", func() {
		manager := id.NewUserID()
		s.assign(manager, s.sedeBA.ID, roles.RoleCoordenador, true)
		ok, err := s.eval.CanManage(s.ctx, manager, s.sedeBA.ID, roles.RolePastor)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("manipulator at ancestor manages descendants", func() {
		manager := id.NewUserID()
		s.assign(manager, s.sedeBA.ID, roles.RoleCoordenador, true)
		ok, err := s.eval.CanManage(s.ctx, manager, s.celula.ID, roles.RoleDirigente)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("manipulator cannot manage outside the subtree", func() {
		manager := id.NewUserID()
		s.assign(manager, s.sedeBA.ID, roles.RoleCoordenador, true)
		ok, err := s.eval.CanManage(s.ctx, manager, s.sedeSE.ID, roles.RolePastor)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("non-manipulator cannot manage even its own unit", func() {
		holder := id.NewUserID()
		s.assign(holder, s.sedeBA.ID, roles.RolePastor, false)
		ok, err := s.eval.CanManage(s.ctx, holder, s.sedeBA.ID, roles.RolePastor)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("role invalid at level is not manageable", func() {
		manager := id.NewUserID()
		s.assign(manager, s.sedeBA.ID, roles.RoleCoordenador, true)
		ok, err := s.eval.CanManage(s.ctx, manager, s.celula.ID, roles.RoleSecretario)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("only super admins hand out global roles", func() {
		manager := id.NewUserID()
		s.assign(manager, s.matriz.ID, roles.RoleAdmin, true)
		ok, err := s.eval.CanManage(s.ctx, manager, s.sedeBA.ID, roles.RoleSuperAdmin)
		s.Require().NoError(err)
		s.False(ok)
	})
}

func (s *EvaluatorSuite) TestAssignableRoles() {
	s.Run("no authority yields empty list", func() {
		names, err := s.eval.AssignableRoles(s.ctx, id.NewUserID(), s.sedeBA.ID)
		s.Require().NoError(err)
		s.Empty(names)
	})

	s.Run("manipulator gets level roster without global roles", func() {
		manager := id.NewUserID()
		s.assign(manager, s.matriz.ID, roles.RoleAdmin, true)
		names, err := s.eval.AssignableRoles(s.ctx, manager, s.celula.ID)
		s.Require().NoError(err)
		s.ElementsMatch([]roles.RoleName{roles.RoleAdmin, roles.RolePastor, roles.RoleDirigente}, names)
	})

	s.Run("super admin gets the full roster for the level", func() {
		admin := id.NewUserID()
		s.assign(admin, s.matriz.ID, roles.RoleSuperAdmin, false)
		names, err := s.eval.AssignableRoles(s.ctx, admin, s.celula.ID)
		s.Require().NoError(err)
		s.Contains(names, roles.RoleSuperAdmin)
		s.Contains(names, roles.RoleDirigente)
	})
}

func (s *EvaluatorSuite) TestCanAct() {
	s.Run("manipulator at ancestor may act", func() {
		manager := id.NewUserID()
		s.assign(manager, s.matriz.ID, roles.RoleAdmin, true)
		ok, err := s.eval.CanAct(s.ctx, manager, s.celula.ID)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("plain holder may not act", func() {
		holder := id.NewUserID()
		s.assign(holder, s.sedeBA.ID, roles.RolePastor, false)
		ok, err := s.eval.CanAct(s.ctx, holder, s.sedeBA.ID)
		s.Require().NoError(err)
		s.False(ok)
	})
}

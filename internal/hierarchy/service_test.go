package hierarchy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"siscof/internal/audit"
	id "siscof/pkg/domain"
	dErrors "siscof/pkg/domain-errors"
	txpkg "siscof/pkg/platform/tx"
	"siscof/pkg/requestcontext"
)

// allowAllAuthorizer grants authority unconditionally; tests that care
// about denial swap in denyAllAuthorizer.
type allowAllAuthorizer struct{}

func (allowAllAuthorizer) CanAct(ctx context.Context, actor id.UserID, unitID id.UnitID) (bool, error) {
	return true, nil
}

func (allowAllAuthorizer) HasGlobalRole(ctx context.Context, userID id.UserID) (bool, error) {
	return true, nil
}

type denyAllAuthorizer struct{}

func (denyAllAuthorizer) CanAct(ctx context.Context, actor id.UserID, unitID id.UnitID) (bool, error) {
	return false, nil
}

func (denyAllAuthorizer) HasGlobalRole(ctx context.Context, userID id.UserID) (bool, error) {
	return false, nil
}

type UnitServiceSuite struct {
	suite.Suite
	store  *InMemoryStore
	audits *audit.InMemoryStore
	svc    *Service
	ctx    context.Context
	actor  id.UserID
}

func (s *UnitServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.audits = audit.NewInMemoryStore()
	s.svc = NewService(s.store, allowAllAuthorizer{}, audit.NewPublisher(s.audits), txpkg.NopRunner{})
	s.actor = id.NewUserID()
	s.ctx = requestcontext.WithTime(context.Background(), time.Now().UTC())
}

func TestUnitServiceSuite(t *testing.T) {
	suite.Run(t, new(UnitServiceSuite))
}

func (s *UnitServiceSuite) createMatriz() *Unit {
	matriz, err := s.svc.CreateUnit(s.ctx, "Matriz", LevelMatriz, nil, "SP", s.actor)
	s.Require().NoError(err)
	return matriz
}

func (s *UnitServiceSuite) TestCreateUnit() {
	s.Run("creates a valid child and audits it", func() {
		matriz := s.createMatriz()
		before := s.audits.Len()

		sede, err := s.svc.CreateUnit(s.ctx, "Sede BA", LevelSede, &matriz.ID, "BA", s.actor)
		s.Require().NoError(err)
		s.Equal(matriz.ID, *sede.ParentID)
		s.Equal(before+1, s.audits.Len())
	})

	s.Run("rejects invalid parent level", func() {
		matriz := s.createMatriz()
		_, err := s.svc.CreateUnit(s.ctx, "Subsede", LevelSubsede, &matriz.ID, "SP", s.actor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects missing parent", func() {
		_, err := s.svc.CreateUnit(s.ctx, "Sede", LevelSede, nil, "BA", s.actor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("requires a signed-in actor", func() {
		matriz := s.createMatriz()
		_, err := s.svc.CreateUnit(s.ctx, "Sede", LevelSede, &matriz.ID, "BA", id.UserID{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *UnitServiceSuite) TestMoveUnit() {
	matriz := s.createMatriz()
	sedeA, err := s.svc.CreateUnit(s.ctx, "Sede A", LevelSede, &matriz.ID, "BA", s.actor)
	s.Require().NoError(err)
	sedeB, err := s.svc.CreateUnit(s.ctx, "Sede B", LevelSede, &matriz.ID, "SE", s.actor)
	s.Require().NoError(err)
	congregacao, err := s.svc.CreateUnit(s.ctx, "Congregacao", LevelCongregacao, &sedeA.ID, "BA", s.actor)
	s.Require().NoError(err)
	celula, err := s.svc.CreateUnit(s.ctx, "Celula", LevelCelula, &congregacao.ID, "BA", s.actor)
	s.Require().NoError(err)

	s.Run("moves to a valid parent", func() {
		moved, err := s.svc.MoveUnit(s.ctx, congregacao.ID, sedeB.ID, s.actor)
		s.Require().NoError(err)
		s.Equal(sedeB.ID, *moved.ParentID)
	})

	s.Run("matriz cannot move", func() {
		_, err := s.svc.MoveUnit(s.ctx, matriz.ID, sedeA.ID, s.actor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("cannot move under own descendant", func() {
		_, err := s.svc.MoveUnit(s.ctx, congregacao.ID, celula.ID, s.actor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *UnitServiceSuite) TestDeactivateUnit() {
	matriz := s.createMatriz()

	s.Run("refuses while children exist", func() {
		sede, err := s.svc.CreateUnit(s.ctx, "Sede BA", LevelSede, &matriz.ID, "BA", s.actor)
		s.Require().NoError(err)

		_, err = s.svc.DeactivateUnit(s.ctx, matriz.ID, s.actor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		_, err = s.svc.DeactivateUnit(s.ctx, sede.ID, s.actor)
		s.Require().NoError(err)
	})

	s.Run("deactivates once", func() {
		unit, err := s.svc.DeactivateUnit(s.ctx, matriz.ID, s.actor)
		s.Require().NoError(err)
		s.False(unit.Active)
	})

	s.Run("second deactivation conflicts", func() {
		_, err := s.svc.DeactivateUnit(s.ctx, matriz.ID, s.actor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *UnitServiceSuite) TestAuthorityDenied() {
	s.svc = NewService(s.store, denyAllAuthorizer{}, audit.NewPublisher(s.audits), txpkg.NopRunner{})
	matriz, err := NewUnit(id.NewUnitID(), "Matriz", LevelMatriz, nil, "SP", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, matriz))

	_, err = s.svc.CreateUnit(s.ctx, "Sede", LevelSede, &matriz.ID, "BA", s.actor)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	// Root creation is gated on a global role, not on unit authority.
	_, err = s.svc.CreateUnit(s.ctx, "Outra Matriz", LevelMatriz, nil, "SP", s.actor)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

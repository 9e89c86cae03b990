//go:build integration

package hierarchy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "siscof/pkg/domain"
	"siscof/pkg/platform/sentinel"
	"siscof/pkg/testutil/containers"
)

type PostgresUnitStoreSuite struct {
	suite.Suite
	store *PostgresStore
	ctx   context.Context
}

func (s *PostgresUnitStoreSuite) SetupTest() {
	pg := containers.GetManager().GetPostgres(s.T())
	s.Require().NoError(pg.TruncateAll(context.Background()))
	s.store = NewPostgres(pg.DB)
	s.ctx = context.Background()
}

func TestPostgresUnitStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresUnitStoreSuite))
}

func (s *PostgresUnitStoreSuite) addUnit(name string, level Level, parentID *id.UnitID, region string) *Unit {
	unit, err := NewUnit(id.NewUnitID(), name, level, parentID, region, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, unit))
	return unit
}

func (s *PostgresUnitStoreSuite) TestCreateAndFind() {
	matriz := s.addUnit("Matriz", LevelMatriz, nil, "SP")

	found, err := s.store.FindByID(s.ctx, matriz.ID)
	s.Require().NoError(err)
	s.Equal(matriz.Name, found.Name)
	s.Equal(LevelMatriz, found.Level)
	s.Nil(found.ParentID)

	_, err = s.store.FindByID(s.ctx, id.NewUnitID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresUnitStoreSuite) TestDuplicateCreateConflicts() {
	matriz := s.addUnit("Matriz", LevelMatriz, nil, "SP")
	err := s.store.Create(s.ctx, matriz)
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresUnitStoreSuite) TestRecursiveQueries() {
	matriz := s.addUnit("Matriz", LevelMatriz, nil, "SP")
	sede := s.addUnit("Sede", LevelSede, &matriz.ID, "BA")
	subsede := s.addUnit("Subsede", LevelSubsede, &sede.ID, "BA")
	congregacao := s.addUnit("Congregacao", LevelCongregacao, &subsede.ID, "BA")

	s.Run("ancestors ordered parent first", func() {
		ancestors, err := s.store.Ancestors(s.ctx, congregacao.ID)
		s.Require().NoError(err)
		s.Require().Len(ancestors, 3)
		s.Equal(subsede.ID, ancestors[0].ID)
		s.Equal(sede.ID, ancestors[1].ID)
		s.Equal(matriz.ID, ancestors[2].ID)
	})

	s.Run("descendants include the root of the walk", func() {
		ids, err := s.store.DescendantIDs(s.ctx, sede.ID)
		s.Require().NoError(err)
		s.ElementsMatch([]id.UnitID{sede.ID, subsede.ID, congregacao.ID}, ids)
	})

	s.Run("missing unit yields ErrNotFound", func() {
		_, err := s.store.DescendantIDs(s.ctx, id.NewUnitID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("units by region", func() {
		ids, err := s.store.UnitIDsInRegions(s.ctx, []string{"BA"})
		s.Require().NoError(err)
		s.ElementsMatch([]id.UnitID{sede.ID, subsede.ID, congregacao.ID}, ids)
	})
}

func (s *PostgresUnitStoreSuite) TestHasChildren() {
	matriz := s.addUnit("Matriz", LevelMatriz, nil, "SP")
	sede := s.addUnit("Sede", LevelSede, &matriz.ID, "BA")

	hasChildren, err := s.store.HasChildren(s.ctx, matriz.ID)
	s.Require().NoError(err)
	s.True(hasChildren)

	hasChildren, err = s.store.HasChildren(s.ctx, sede.ID)
	s.Require().NoError(err)
	s.False(hasChildren)

	// An inactive child does not count.
	sede.Active = false
	sede.UpdatedAt = time.Now().UTC()
	s.Require().NoError(s.store.Update(s.ctx, sede))
	hasChildren, err = s.store.HasChildren(s.ctx, matriz.ID)
	s.Require().NoError(err)
	s.False(hasChildren)
}

func (s *PostgresUnitStoreSuite) TestUpdate() {
	matriz := s.addUnit("Matriz", LevelMatriz, nil, "SP")

	matriz.Active = false
	matriz.UpdatedAt = time.Now().UTC()
	s.Require().NoError(s.store.Update(s.ctx, matriz))

	found, err := s.store.FindByID(s.ctx, matriz.ID)
	s.Require().NoError(err)
	s.False(found.Active)

	ghost := *matriz
	ghost.ID = id.NewUnitID()
	s.Require().ErrorIs(s.store.Update(s.ctx, &ghost), sentinel.ErrNotFound)
}

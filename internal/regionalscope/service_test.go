package regionalscope

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"siscof/internal/audit"
	"siscof/internal/roles"
	id "siscof/pkg/domain"
	dErrors "siscof/pkg/domain-errors"
	txpkg "siscof/pkg/platform/tx"
)

type fakeAuthorizer struct {
	allow bool
}

func (f fakeAuthorizer) CanAct(ctx context.Context, actor id.UserID, unitID id.UnitID) (bool, error) {
	return f.allow, nil
}

type ScopeServiceSuite struct {
	suite.Suite
	store       *InMemoryStore
	assignments *roles.InMemoryStore
	audits      *audit.InMemoryStore
	svc         *Service
	ctx         context.Context
	actor       id.UserID
	subject     id.UserID
	matrizID    id.UnitID
}

func (s *ScopeServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.assignments = roles.NewInMemoryStore()
	s.audits = audit.NewInMemoryStore()
	s.svc = NewService(s.store, s.assignments, fakeAuthorizer{allow: true}, audit.NewPublisher(s.audits), txpkg.NopRunner{})
	s.ctx = context.Background()
	s.actor = id.NewUserID()
	s.subject = id.NewUserID()
	s.matrizID = id.NewUnitID()

	_, err := s.assignments.CreateIfAbsent(s.ctx, &roles.Assignment{
		UserID:    s.subject,
		UnitID:    s.matrizID,
		Role:      roles.RolePresidenteEstadual,
		GrantedAt: time.Now(),
	})
	s.Require().NoError(err)
}

func TestScopeServiceSuite(t *testing.T) {
	suite.Run(t, new(ScopeServiceSuite))
}

func (s *ScopeServiceSuite) TestSetScope() {
	s.Run("replaces the whole set and audits", func() {
		s.Require().NoError(s.svc.SetScope(s.ctx, s.subject, []string{"ba", " SE "}, s.actor))

		codes, err := s.svc.GetScope(s.ctx, s.subject)
		s.Require().NoError(err)
		s.ElementsMatch([]string{"BA", "SE"}, codes)
		s.Equal(1, s.audits.Len())
	})

	s.Run("second set supersedes the first entirely", func() {
		s.Require().NoError(s.svc.SetScope(s.ctx, s.subject, []string{"BA", "SE"}, s.actor))
		s.Require().NoError(s.svc.SetScope(s.ctx, s.subject, []string{"SP"}, s.actor))

		codes, err := s.svc.GetScope(s.ctx, s.subject)
		s.Require().NoError(err)
		s.Equal([]string{"SP"}, codes)
	})

	s.Run("empty list clears the scope", func() {
		s.Require().NoError(s.svc.SetScope(s.ctx, s.subject, []string{"BA"}, s.actor))
		s.Require().NoError(s.svc.SetScope(s.ctx, s.subject, []string{}, s.actor))

		codes, err := s.svc.GetScope(s.ctx, s.subject)
		s.Require().NoError(err)
		s.Empty(codes)
	})

	s.Run("duplicates collapse", func() {
		s.Require().NoError(s.svc.SetScope(s.ctx, s.subject, []string{"BA", "ba", "BA"}, s.actor))
		codes, err := s.svc.GetScope(s.ctx, s.subject)
		s.Require().NoError(err)
		s.Equal([]string{"BA"}, codes)
	})

	s.Run("blank code rejected", func() {
		err := s.svc.SetScope(s.ctx, s.subject, []string{"BA", "  "}, s.actor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("subject without regional role rejected", func() {
		err := s.svc.SetScope(s.ctx, id.NewUserID(), []string{"BA"}, s.actor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("requires a signed-in actor", func() {
		err := s.svc.SetScope(s.ctx, s.subject, []string{"BA"}, id.UserID{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ScopeServiceSuite) TestSetScopeDenied() {
	s.svc = NewService(s.store, s.assignments, fakeAuthorizer{allow: false}, audit.NewPublisher(s.audits), txpkg.NopRunner{})

	err := s.svc.SetScope(s.ctx, s.subject, []string{"BA"}, s.actor)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.Equal(0, s.audits.Len())
}

func (s *ScopeServiceSuite) TestGetScopeUnset() {
	codes, err := s.svc.GetScope(s.ctx, id.NewUserID())
	s.Require().NoError(err)
	s.Empty(codes)
}

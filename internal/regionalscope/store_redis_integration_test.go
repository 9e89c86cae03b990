//go:build integration

package regionalscope

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	id "siscof/pkg/domain"
	"siscof/pkg/testutil/containers"
)

type RedisScopeStoreSuite struct {
	suite.Suite
	store *RedisStore
	ctx   context.Context
}

func (s *RedisScopeStoreSuite) SetupTest() {
	redis := containers.GetManager().GetRedis(s.T())
	s.Require().NoError(redis.FlushAll(context.Background()))
	s.store = NewRedis(redis.Client)
	s.ctx = context.Background()
}

func TestRedisScopeStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisScopeStoreSuite))
}

func (s *RedisScopeStoreSuite) TestReplaceAndGet() {
	userID := id.NewUserID()

	s.Run("unset scope is empty", func() {
		codes, err := s.store.Get(s.ctx, userID)
		s.Require().NoError(err)
		s.Empty(codes)
	})

	s.Run("replace stores the set", func() {
		s.Require().NoError(s.store.Replace(s.ctx, userID, []string{"BA", "SE"}))
		codes, err := s.store.Get(s.ctx, userID)
		s.Require().NoError(err)
		s.ElementsMatch([]string{"BA", "SE"}, codes)
	})

	s.Run("replace supersedes, never merges", func() {
		s.Require().NoError(s.store.Replace(s.ctx, userID, []string{"BA", "SE"}))
		s.Require().NoError(s.store.Replace(s.ctx, userID, []string{"SP"}))
		codes, err := s.store.Get(s.ctx, userID)
		s.Require().NoError(err)
		s.Equal([]string{"SP"}, codes)
	})

	s.Run("empty replace clears the key", func() {
		s.Require().NoError(s.store.Replace(s.ctx, userID, []string{"BA"}))
		s.Require().NoError(s.store.Replace(s.ctx, userID, nil))
		codes, err := s.store.Get(s.ctx, userID)
		s.Require().NoError(err)
		s.Empty(codes)
	})

	s.Run("scopes are per user", func() {
		other := id.NewUserID()
		s.Require().NoError(s.store.Replace(s.ctx, userID, []string{"BA"}))
		s.Require().NoError(s.store.Replace(s.ctx, other, []string{"SP"}))

		codes, err := s.store.Get(s.ctx, userID)
		s.Require().NoError(err)
		s.Equal([]string{"BA"}, codes)
	})
}

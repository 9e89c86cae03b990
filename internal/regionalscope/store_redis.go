package regionalscope

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	id "siscof/pkg/domain"
	"siscof/pkg/platform/sentinel"
)

const scopeKeyPrefix = "siscof:scope:"

// RedisStore keeps each user's scope as a Redis set. Replace pipelines
// DEL and SADD in a MULTI/EXEC block so readers never observe a half
// replaced scope.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func scopeKey(userID id.UserID) string {
	return scopeKeyPrefix + userID.String()
}

func (s *RedisStore) Get(ctx context.Context, userID id.UserID) ([]string, error) {
	codes, err := s.client.SMembers(ctx, scopeKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: read scope: %v", sentinel.ErrUnavailable, err)
	}
	return codes, nil
}

func (s *RedisStore) Replace(ctx context.Context, userID id.UserID, regionCodes []string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, scopeKey(userID))
	if len(regionCodes) > 0 {
		members := make([]any, len(regionCodes))
		for i, code := range regionCodes {
			members[i] = code
		}
		pipe.SAdd(ctx, scopeKey(userID), members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: replace scope: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}

//go:build integration

package issuers_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"claimbridge/internal/issuers"
	"claimbridge/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *issuers.RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.cache = issuers.NewRedisCache(s.redis.Client)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) TestRoundTripUsesPrefix() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, "topics:0xabc", []byte(`[1,7]`), time.Minute))

	v, hit, err := s.cache.Get(ctx, "topics:0xabc")
	s.Require().NoError(err)
	s.True(hit)
	s.Equal([]byte(`[1,7]`), v)

	exists, err := s.redis.Client.Exists(ctx, "issuers:topics:0xabc").Result()
	s.Require().NoError(err)
	s.Equal(int64(1), exists)

	ttl, err := s.redis.Client.TTL(ctx, "issuers:topics:0xabc").Result()
	s.Require().NoError(err)
	s.Greater(ttl, 50*time.Second)
}

func (s *RedisCacheSuite) TestMiss() {
	_, hit, err := s.cache.Get(context.Background(), "list")
	s.Require().NoError(err)
	s.False(hit)
}

func (s *RedisCacheSuite) TestExpiry() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, "list", []byte(`[]`), 50*time.Millisecond))
	s.Eventually(func() bool {
		_, hit, err := s.cache.Get(ctx, "list")
		return err == nil && !hit
	}, 2*time.Second, 20*time.Millisecond)
}

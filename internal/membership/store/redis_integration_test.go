//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"commune/internal/membership/models"
	"commune/internal/membership/store"
	"commune/internal/platform/config"
	platformredis "commune/internal/platform/redis"
	id "commune/pkg/domain"
	"commune/pkg/platform/sentinel"
	"commune/pkg/testutil/containers"
)

type CachedStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	redis    *containers.RedisContainer
	client   *platformredis.Client
	cached   *store.Cached
}

func TestCachedStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedStoreSuite))
}

func (s *CachedStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.redis = containers.NewRedisContainer(s.T())

	client, err := platformredis.New(config.RedisConfig{
		URL:          s.redis.URL,
		PoolSize:     5,
		MinIdleConns: 1,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	s.Require().NoError(err)
	s.client = client
	s.cached = store.NewCached(store.NewPostgres(s.postgres.DB), client)
}

func (s *CachedStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "memberships"))
	s.Require().NoError(s.redis.FlushAll(ctx))
}

func (s *CachedStoreSuite) TestCreateDoesNotPopulateCache() {
	ctx := context.Background()
	member := id.MemberID(uuid.New())
	membership := models.NewMembership(member, time.Now().UTC())

	s.Require().NoError(s.cached.Create(ctx, membership))

	// Only a read populates the cache. If the create had cached the record,
	// removing the backing row would leave a ghost membership readable here.
	s.Require().NoError(s.postgres.TruncateTables(ctx, "memberships"))
	_, err := s.cached.Find(ctx, member)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *CachedStoreSuite) TestReadThrough() {
	ctx := context.Background()
	member := id.MemberID(uuid.New())
	membership := models.NewMembership(member, time.Now().UTC())

	// Seed the store directly so the first Find misses the cache.
	inner := store.NewPostgres(s.postgres.DB)
	s.Require().NoError(inner.Create(ctx, membership))

	got, err := s.cached.Find(ctx, member)
	s.Require().NoError(err)
	s.Equal(member, got.Member)

	// Second read is served from the cache.
	s.Require().NoError(s.postgres.TruncateTables(ctx, "memberships"))
	got, err = s.cached.Find(ctx, member)
	s.Require().NoError(err)
	s.Equal(member, got.Member)
}

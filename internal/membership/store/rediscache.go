package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"commune/internal/membership/models"
	platformredis "commune/internal/platform/redis"
	id "commune/pkg/domain"
	"commune/pkg/platform/sentinel"
)

// ApprovalCacheTTL bounds staleness of cached memberships. Memberships are
// immutable once created, so the TTL only limits memory, not correctness.
const ApprovalCacheTTL = 10 * time.Minute

// Cached wraps a membership store with a Redis read-through cache. Every
// mutating ledger operation checks approval first, which makes Find the
// hottest read path in the system.
type Cached struct {
	inner interface {
		Create(ctx context.Context, membership *models.Membership) error
		Find(ctx context.Context, member id.MemberID) (*models.Membership, error)
	}
	redis *platformredis.Client
}

func NewCached(inner *Postgres, client *platformredis.Client) *Cached {
	return &Cached{inner: inner, redis: client}
}

func cacheKey(member id.MemberID) string {
	return "commune:membership:" + member.String()
}

// Create only writes the authoritative store. The cache is populated by Find
// from committed state: a create runs inside the caller's transaction, and
// caching it here would leave an approved membership visible if that
// transaction never commits.
func (s *Cached) Create(ctx context.Context, membership *models.Membership) error {
	return s.inner.Create(ctx, membership)
}

func (s *Cached) Find(ctx context.Context, member id.MemberID) (*models.Membership, error) {
	payload, err := s.redis.Get(ctx, cacheKey(member)).Bytes()
	if err == nil {
		var m models.Membership
		if unmarshalErr := json.Unmarshal(payload, &m); unmarshalErr == nil {
			return &m, nil
		}
	} else if !errors.Is(err, goredis.Nil) {
		// Redis trouble: serve from the authoritative store.
		return s.inner.Find(ctx, member)
	}

	m, err := s.inner.Find(ctx, member)
	if err != nil {
		// Absence is not cached: a join must become visible immediately.
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, err
		}
		return nil, err
	}
	if payload, marshalErr := json.Marshal(m); marshalErr == nil {
		_ = s.redis.Set(ctx, cacheKey(member), payload, ApprovalCacheTTL).Err()
	}
	return m, nil
}

//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"commune/internal/market/models"
	"commune/internal/market/store"
	"commune/pkg/platform/sentinel"
	"commune/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "market"))
}

func (s *PostgresStoreSuite) TestCreate() {
	ctx := context.Background()

	s.Require().NoError(s.store.Create(ctx, models.NewMarket(time.Now())))

	s.Run("second create collides", func() {
		err := s.store.Create(ctx, models.NewMarket(time.Now()))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("round trip preserves rates", func() {
		got, err := s.store.Get(ctx)
		s.Require().NoError(err)
		s.Equal(uint64(10_000_000), got.FeeRate)
		s.Equal(uint64(3), got.TaxRate)
	})
}

func (s *PostgresStoreSuite) TestClaims() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, models.NewMarket(time.Now())))

	s.Run("sequential claims advance the counter", func() {
		for i := uint64(0); i < 3; i++ {
			s.Require().NoError(s.store.ClaimItemID(ctx, i))
		}
		got, err := s.store.Get(ctx)
		s.Require().NoError(err)
		s.Equal(uint64(3), got.ItemCount)
	})

	s.Run("stale claim conflicts", func() {
		s.ErrorIs(s.store.ClaimItemID(ctx, 0), sentinel.ErrConflict)
	})

	s.Run("claim without a market is not found", func() {
		s.Require().NoError(s.postgres.TruncateTables(ctx, "market"))
		s.ErrorIs(s.store.ClaimItemID(ctx, 0), sentinel.ErrNotFound)
	})
}

// Racing claims for the same id: exactly one wins, the rest conflict.
func (s *PostgresStoreSuite) TestConcurrentClaims() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, models.NewMarket(time.Now())))

	const racers = 10
	var wins, conflicts atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.ClaimProposalID(ctx, 0)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int64(1), wins.Load())
	s.Equal(int64(racers-1), conflicts.Load())

	got, err := s.store.Get(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), got.ProposalCount)
}

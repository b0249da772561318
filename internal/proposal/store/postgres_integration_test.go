//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"commune/internal/proposal/models"
	"commune/internal/proposal/store"
	id "commune/pkg/domain"
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
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "proposals", "votes"))
}

func (s *PostgresStoreSuite) submit(ctx context.Context, proposalID uint64) *models.Proposal {
	owner := id.MemberID(uuid.New())
	now := time.Now().UTC()
	proposal, err := models.NewProposal(id.ProposalID(proposalID), owner, "roof repair",
		"patch the east wing roof", 500, 1, now, now.Add(time.Hour))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(ctx, proposal))
	return proposal
}

func (s *PostgresStoreSuite) TestTallyVote() {
	ctx := context.Background()
	proposal := s.submit(ctx, 0)

	s.Require().NoError(s.store.TallyVote(ctx, proposal.ID, true))
	s.Require().NoError(s.store.TallyVote(ctx, proposal.ID, true))
	s.Require().NoError(s.store.TallyVote(ctx, proposal.ID, false))

	got, err := s.store.Find(ctx, proposal.ID)
	s.Require().NoError(err)
	s.Equal(uint64(2), got.VoteYes)
	s.Equal(uint64(1), got.VoteNo)

	s.Run("missing proposal is not found", func() {
		s.ErrorIs(s.store.TallyVote(ctx, id.ProposalID(99), true), sentinel.ErrNotFound)
	})
}

// Racing voters on the same proposal: every increment lands because the
// tally moves relative to the stored row, not a read from before the race.
func (s *PostgresStoreSuite) TestConcurrentTallies() {
	ctx := context.Background()
	proposal := s.submit(ctx, 0)

	const racers = 10
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		choice := i%2 == 0
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.NoError(s.store.TallyVote(ctx, proposal.ID, choice))
		}()
	}
	wg.Wait()

	got, err := s.store.Find(ctx, proposal.ID)
	s.Require().NoError(err)
	s.Equal(uint64(racers), got.VoteYes+got.VoteNo)
	s.Equal(uint64(racers/2), got.VoteYes)
}

func (s *PostgresStoreSuite) TestMarkApproved() {
	ctx := context.Background()
	proposal := s.submit(ctx, 0)

	s.Require().NoError(s.store.MarkApproved(ctx, proposal.ID))

	s.Run("the settlement is recorded", func() {
		got, err := s.store.Find(ctx, proposal.ID)
		s.Require().NoError(err)
		s.True(got.Approved)
	})

	s.Run("second settlement collides", func() {
		s.ErrorIs(s.store.MarkApproved(ctx, proposal.ID), sentinel.ErrAlreadyUsed)
	})

	s.Run("missing proposal is not found", func() {
		s.ErrorIs(s.store.MarkApproved(ctx, id.ProposalID(99)), sentinel.ErrNotFound)
	})
}

// Racing approvals: exactly one settles, the rest collide instead of paying
// the owner again.
func (s *PostgresStoreSuite) TestConcurrentApprovals() {
	ctx := context.Background()
	proposal := s.submit(ctx, 0)

	const racers = 10
	var wins, collisions atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.MarkApproved(ctx, proposal.ID)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				collisions.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int64(1), wins.Load())
	s.Equal(int64(racers-1), collisions.Load())
}

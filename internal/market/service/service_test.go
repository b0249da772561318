package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"commune/internal/audit"
	"commune/internal/market/store"
	dErrors "commune/pkg/domain-errors"
	"commune/pkg/platform/tx"
)

// =============================================================================
// Market Service Test Suite
// =============================================================================

type MarketServiceSuite struct {
	suite.Suite
	recorder *audit.InMemoryRecorder
	service  *Service
}

func TestMarketServiceSuite(t *testing.T) {
	suite.Run(t, new(MarketServiceSuite))
}

func (s *MarketServiceSuite) SetupTest() {
	s.recorder = audit.NewInMemoryRecorder()
	s.service = New(store.NewInMemory(), tx.NewInMemory(),
		WithAuditPublisher(s.recorder),
	)
}

func (s *MarketServiceSuite) TestInitialize() {
	ctx := context.Background()

	s.Run("reads before initialization are not found", func() {
		_, err := s.service.Get(ctx)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("creates the singleton with default rates", func() {
		market, err := s.service.Initialize(ctx)
		s.Require().NoError(err)
		s.Equal(uint64(10_000_000), market.FeeRate)
		s.Equal(uint64(3), market.TaxRate)
		s.Zero(market.ItemCount)
		s.Zero(market.ProposalCount)

		s.Require().Len(s.recorder.Events(), 1)
		s.Equal(audit.ActionMarketInitialized, s.recorder.Events()[0].Action)
	})

	s.Run("second initialization is rejected", func() {
		_, err := s.service.Initialize(ctx)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateEntity))
	})
}

func (s *MarketServiceSuite) TestClaims() {
	ctx := context.Background()

	s.Run("claims before initialization are not found", func() {
		err := s.service.ClaimItemID(ctx, 0)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	_, err := s.service.Initialize(ctx)
	s.Require().NoError(err)

	s.Run("a stale claim maps to a duplicate", func() {
		s.Require().NoError(s.service.ClaimItemID(ctx, 0))

		err := s.service.ClaimItemID(ctx, 0)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateEntity))

		err = s.service.ClaimProposalID(ctx, 7)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateEntity))
	})
}

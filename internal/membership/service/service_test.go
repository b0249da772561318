package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"commune/internal/audit"
	"commune/internal/bank"
	marketmodels "commune/internal/market/models"
	marketstore "commune/internal/market/store"
	membershipstore "commune/internal/membership/store"
	id "commune/pkg/domain"
	dErrors "commune/pkg/domain-errors"
	"commune/pkg/platform/tx"
	"commune/pkg/requestcontext"
)

// =============================================================================
// Membership Service Test Suite
// =============================================================================
// Justification for unit tests: joining couples a balance debit with a record
// creation, and the all-or-nothing pairing of the two is easiest to pin down
// against the in-memory stores.

type MembershipServiceSuite struct {
	suite.Suite
	members  *membershipstore.InMemory
	markets  *marketstore.InMemory
	ledger   *bank.InMemory
	recorder *audit.InMemoryRecorder
	service  *Service
}

func TestMembershipServiceSuite(t *testing.T) {
	suite.Run(t, new(MembershipServiceSuite))
}

func (s *MembershipServiceSuite) SetupTest() {
	s.members = membershipstore.NewInMemory()
	s.markets = marketstore.NewInMemory()
	s.ledger = bank.NewInMemory()
	s.recorder = audit.NewInMemoryRecorder()
	s.service = New(s.members, s.markets, s.ledger, tx.NewInMemory(),
		WithAuditPublisher(s.recorder),
	)
}

func (s *MembershipServiceSuite) newMember() id.MemberID {
	return id.MemberID(uuid.New())
}

func (s *MembershipServiceSuite) initMarket(ctx context.Context) {
	market := marketmodels.NewMarket(requestcontext.Now(ctx))
	s.Require().NoError(s.markets.Create(ctx, market))
}

// =============================================================================
// Join Tests
// =============================================================================

func (s *MembershipServiceSuite) TestJoin() {
	ctx := context.Background()

	s.Run("fails before the market is initialized", func() {
		member := s.newMember()
		s.ledger.Deposit(ctx, member, id.DefaultFeeRate)

		_, err := s.service.Join(ctx, member)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.initMarket(ctx)

	s.Run("nil member is rejected", func() {
		_, err := s.service.Join(ctx, id.MemberID(uuid.Nil))
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("debits the joining fee to the treasury", func() {
		member := s.newMember()
		s.ledger.Deposit(ctx, member, id.DefaultFeeRate+5)
		treasuryBefore, _ := s.ledger.Balance(ctx, bank.Treasury)

		membership, err := s.service.Join(ctx, member)
		s.Require().NoError(err)
		s.True(membership.Approved)
		s.Equal(member, membership.Member)

		memberBalance, err := s.ledger.Balance(ctx, member)
		s.NoError(err)
		s.Equal(uint64(5), memberBalance)

		treasuryAfter, err := s.ledger.Balance(ctx, bank.Treasury)
		s.NoError(err)
		s.Equal(treasuryBefore+id.DefaultFeeRate, treasuryAfter)

		events := s.recorder.ByMember(member)
		s.Require().Len(events, 1)
		s.Equal(audit.ActionMemberJoined, events[0].Action)
	})

	s.Run("insufficient balance leaves no membership behind", func() {
		member := s.newMember()
		s.ledger.Deposit(ctx, member, id.DefaultFeeRate-1)

		_, err := s.service.Join(ctx, member)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		approved, err := s.service.IsApproved(ctx, member)
		s.NoError(err)
		s.False(approved)

		balance, err := s.ledger.Balance(ctx, member)
		s.NoError(err)
		s.Equal(id.DefaultFeeRate-1, balance)
	})

	s.Run("second join is rejected without a second debit", func() {
		member := s.newMember()
		s.ledger.Deposit(ctx, member, 3*id.DefaultFeeRate)

		_, err := s.service.Join(ctx, member)
		s.Require().NoError(err)

		_, err = s.service.Join(ctx, member)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateEntity))

		balance, err := s.ledger.Balance(ctx, member)
		s.NoError(err)
		s.Equal(2*id.DefaultFeeRate, balance)
	})
}

// =============================================================================
// IsApproved Tests
// =============================================================================

func (s *MembershipServiceSuite) TestIsApproved() {
	ctx := context.Background()
	s.initMarket(ctx)

	s.Run("unknown member is not approved", func() {
		approved, err := s.service.IsApproved(ctx, s.newMember())
		s.NoError(err)
		s.False(approved)
	})

	s.Run("joined member is approved", func() {
		member := s.newMember()
		s.ledger.Deposit(ctx, member, id.DefaultFeeRate)
		_, err := s.service.Join(ctx, member)
		s.Require().NoError(err)

		approved, err := s.service.IsApproved(ctx, member)
		s.NoError(err)
		s.True(approved)
	})
}

// Package service orchestrates proposal submission, voting, and the approval
// payout.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"commune/internal/audit"
	"commune/internal/bank"
	marketmodels "commune/internal/market/models"
	proposalmetrics "commune/internal/proposal/metrics"
	"commune/internal/proposal/models"
	id "commune/pkg/domain"
	dErrors "commune/pkg/domain-errors"
	"commune/pkg/platform/sentinel"
	"commune/pkg/platform/tx"
	"commune/pkg/requestcontext"
)

// Store persists proposals and their votes.
type Store interface {
	Create(ctx context.Context, proposal *models.Proposal) error
	Find(ctx context.Context, proposalID id.ProposalID) (*models.Proposal, error)
	TallyVote(ctx context.Context, proposalID id.ProposalID, choice bool) error
	MarkApproved(ctx context.Context, proposalID id.ProposalID) error
	CreateVote(ctx context.Context, vote *models.Vote) error
}

// MarketService supplies market state and consumes proposal ids.
type MarketService interface {
	Get(ctx context.Context) (*marketmodels.Market, error)
	ClaimProposalID(ctx context.Context, claimed uint64) error
}

// Approvals answers whether a member may act on the ledger.
type Approvals interface {
	IsApproved(ctx context.Context, member id.MemberID) (bool, error)
}

// ProposeInput carries the caller-supplied submission fields. Amount is the
// requested payout in currency subunits.
type ProposeInput struct {
	ClaimedID   uint64
	Title       string
	Description string
	Amount      uint64
	Quorum      uint64
	ExpiresAt   time.Time
}

// Service owns the Propose, Vote and Approve operations.
type Service struct {
	proposals Store
	market    MarketService
	approvals Approvals
	bank      bank.Bank
	tx        tx.StoreTx
	logger    *slog.Logger
	auditor   audit.Publisher
	metrics   *proposalmetrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithMetrics(m *proposalmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(proposals Store, market MarketService, approvals Approvals, b bank.Bank, storeTx tx.StoreTx, opts ...Option) *Service {
	s := &Service{
		proposals: proposals,
		market:    market,
		approvals: approvals,
		bank:      b,
		tx:        storeTx,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Propose submits a proposal under the id the owner claims and advances the
// proposal counter, all-or-nothing.
func (s *Service) Propose(ctx context.Context, owner id.MemberID, in ProposeInput) (*models.Proposal, error) {
	var proposal *models.Proposal
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		approved, err := s.approvals.IsApproved(txCtx, owner)
		if err != nil {
			return err
		}
		if !approved {
			return dErrors.New(dErrors.CodeUnauthorized, "owner is not an approved member")
		}

		market, err := s.market.Get(txCtx)
		if err != nil {
			return err
		}
		if in.ClaimedID != market.ProposalCount {
			return dErrors.Newf(dErrors.CodeDuplicateEntity, "proposal id %d is already taken", in.ClaimedID)
		}

		candidate, err := models.NewProposal(id.ProposalID(in.ClaimedID), owner, in.Title,
			in.Description, in.Amount, in.Quorum, requestcontext.Now(txCtx), in.ExpiresAt)
		if err != nil {
			return err
		}

		if err := s.proposals.Create(txCtx, candidate); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.Newf(dErrors.CodeDuplicateEntity, "proposal id %d is already taken", in.ClaimedID)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create proposal")
		}
		if err := s.market.ClaimProposalID(txCtx, in.ClaimedID); err != nil {
			return err
		}
		proposal = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Event{
		Member:  owner,
		Action:  audit.ActionProposalAdded,
		Subject: proposal.ID.String(),
		Amount:  proposal.Amount,
	})
	if s.metrics != nil {
		s.metrics.IncrementProposalsAdded()
	}
	return proposal, nil
}

// Vote casts voter's choice on a proposal exactly once. Expiry is checked
// lazily against the request clock; a closed proposal takes no more votes.
func (s *Service) Vote(ctx context.Context, voter id.MemberID, proposalID id.ProposalID, choice bool) (*models.Proposal, error) {
	var proposal *models.Proposal
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.proposals.Find(txCtx, proposalID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Newf(dErrors.CodeNotFound, "proposal %s does not exist", proposalID)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proposal")
		}

		now := requestcontext.Now(txCtx)
		if found.Expired(now) {
			return dErrors.Newf(dErrors.CodeExpired, "proposal %s is no longer accepting votes", proposalID)
		}

		approved, err := s.approvals.IsApproved(txCtx, voter)
		if err != nil {
			return err
		}
		if !approved {
			return dErrors.New(dErrors.CodeUnauthorized, "voter is not an approved member")
		}

		vote := &models.Vote{Proposal: proposalID, Voter: voter, Choice: choice, CastAt: now}
		if err := s.proposals.CreateVote(txCtx, vote); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.Newf(dErrors.CodeAlreadySettled, "member has already voted on proposal %s", proposalID)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record vote")
		}

		// The tally increment is relative at the store, so concurrent voters
		// on the same proposal both land.
		if err := s.proposals.TallyVote(txCtx, proposalID, choice); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to tally vote")
		}
		updated, err := s.proposals.Find(txCtx, proposalID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proposal")
		}
		proposal = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Event{
		Member:  voter,
		Action:  audit.ActionVoteCast,
		Subject: proposalID.String(),
	})
	if s.metrics != nil {
		s.metrics.IncrementVotesCast()
	}
	return proposal, nil
}

// Approve releases the proposal's payout treasury to owner once voting has
// closed with more yes than no votes. It settles at most once.
func (s *Service) Approve(ctx context.Context, caller id.MemberID, proposalID id.ProposalID, recipient id.MemberID) (*models.Proposal, error) {
	var proposal *models.Proposal
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		approved, err := s.approvals.IsApproved(txCtx, caller)
		if err != nil {
			return err
		}
		if !approved {
			return dErrors.New(dErrors.CodeUnauthorized, "caller is not an approved member")
		}

		found, err := s.proposals.Find(txCtx, proposalID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Newf(dErrors.CodeNotFound, "proposal %s does not exist", proposalID)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proposal")
		}
		if recipient != found.Owner {
			return dErrors.New(dErrors.CodeInvalidInput, "recipient is not the proposal's owner")
		}
		if !found.Expired(requestcontext.Now(txCtx)) {
			return dErrors.Newf(dErrors.CodeInvalidInput, "proposal %s is still open for voting", proposalID)
		}
		if found.Approved {
			return dErrors.Newf(dErrors.CodeAlreadySettled, "proposal %s is already approved", proposalID)
		}
		if !found.Passed() {
			return dErrors.Newf(dErrors.CodeInvalidInput, "proposal %s was rejected by the vote", proposalID)
		}

		if err := s.bank.Transfer(txCtx, bank.Treasury, found.Owner, found.Amount); err != nil {
			if errors.Is(err, sentinel.ErrInsufficientFunds) {
				return dErrors.New(dErrors.CodeInvalidInput, "treasury cannot cover the payout")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to pay out proposal")
		}

		// The store transition carries its own unapproved predicate, so a
		// racing approval loses here and its payout rolls back.
		if err := s.proposals.MarkApproved(txCtx, proposalID); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.Newf(dErrors.CodeAlreadySettled, "proposal %s is already approved", proposalID)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark proposal approved")
		}
		found.Approved = true
		proposal = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Event{
		Member:  caller,
		Action:  audit.ActionProposalApproved,
		Subject: proposalID.String(),
		Amount:  proposal.Amount,
	})
	if s.metrics != nil {
		s.metrics.IncrementProposalsApproved()
	}
	return proposal, nil
}

// Get returns a single proposal.
func (s *Service) Get(ctx context.Context, proposalID id.ProposalID) (*models.Proposal, error) {
	proposal, err := s.proposals.Find(ctx, proposalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "proposal %s does not exist", proposalID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proposal")
	}
	return proposal, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "error", err, "action", event.Action)
	}
}

// Package service orchestrates commune enrollment and the approval lookups
// every other module gates on.
package service

import (
	"context"
	"errors"
	"log/slog"

	"commune/internal/audit"
	"commune/internal/bank"
	marketmodels "commune/internal/market/models"
	membershipmetrics "commune/internal/membership/metrics"
	"commune/internal/membership/models"
	id "commune/pkg/domain"
	dErrors "commune/pkg/domain-errors"
	"commune/pkg/platform/sentinel"
	"commune/pkg/platform/tx"
	"commune/pkg/requestcontext"
)

// Store persists membership records.
type Store interface {
	Create(ctx context.Context, membership *models.Membership) error
	Find(ctx context.Context, member id.MemberID) (*models.Membership, error)
}

// MarketReader supplies the joining fee from the Market singleton.
type MarketReader interface {
	Get(ctx context.Context) (*marketmodels.Market, error)
}

// Service owns the Join and IsApproved operations.
type Service struct {
	members Store
	markets MarketReader
	bank    bank.Bank
	tx      tx.StoreTx
	logger  *slog.Logger
	auditor audit.Publisher
	metrics *membershipmetrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithMetrics(m *membershipmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(members Store, markets MarketReader, b bank.Bank, storeTx tx.StoreTx, opts ...Option) *Service {
	s := &Service{
		members: members,
		markets: markets,
		bank:    b,
		tx:      storeTx,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Join enrolls member: it debits the joining fee to the treasury and creates
// the approved membership record, together or not at all. A second join for
// the same identity fails with DuplicateEntity.
func (s *Service) Join(ctx context.Context, member id.MemberID) (*models.Membership, error) {
	if member.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "member identity is required")
	}

	var membership *models.Membership
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		market, err := s.markets.Get(txCtx)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "market is not initialized")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load market")
		}

		if _, err := s.members.Find(txCtx, member); err == nil {
			return dErrors.Newf(dErrors.CodeDuplicateEntity, "membership already exists for %s", member)
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check membership")
		}

		// Last fallible step before the record creation: an insufficient
		// balance aborts with nothing written.
		if err := s.bank.Transfer(txCtx, member, bank.Treasury, market.FeeRate); err != nil {
			if errors.Is(err, sentinel.ErrInsufficientFunds) {
				return dErrors.New(dErrors.CodeInvalidInput, "insufficient funds for the joining fee")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to collect joining fee")
		}

		m := models.NewMembership(member, requestcontext.Now(txCtx))
		if err := s.members.Create(txCtx, m); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.Newf(dErrors.CodeDuplicateEntity, "membership already exists for %s", member)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create membership")
		}
		membership = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Event{
		Member:  member,
		Action:  audit.ActionMemberJoined,
		Subject: member.String(),
	})
	if s.metrics != nil {
		s.metrics.IncrementMembersJoined()
	}
	return membership, nil
}

// IsApproved reports whether member holds an approved membership. Absence of
// a record is simply "not approved", never an error.
func (s *Service) IsApproved(ctx context.Context, member id.MemberID) (bool, error) {
	membership, err := s.members.Find(ctx, member)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check membership")
	}
	return membership.Approved, nil
}

// Get returns the membership record for member.
func (s *Service) Get(ctx context.Context, member id.MemberID) (*models.Membership, error) {
	membership, err := s.members.Find(ctx, member)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "no membership for %s", member)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load membership")
	}
	return membership, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "error", err, "action", event.Action)
	}
}

// Package service orchestrates the Market singleton lifecycle.
package service

import (
	"context"
	"errors"
	"log/slog"

	"commune/internal/audit"
	"commune/internal/market/metrics"
	"commune/internal/market/models"
	dErrors "commune/pkg/domain-errors"
	"commune/pkg/platform/sentinel"
	"commune/pkg/platform/tx"
	"commune/pkg/requestcontext"
)

// Store persists the Market singleton and its counters.
type Store interface {
	Create(ctx context.Context, market *models.Market) error
	Get(ctx context.Context) (*models.Market, error)
	ClaimItemID(ctx context.Context, claimed uint64) error
	ClaimProposalID(ctx context.Context, claimed uint64) error
}

// Service owns market initialization, reads, and counter claims.
type Service struct {
	markets Store
	tx      tx.StoreTx
	logger  *slog.Logger
	auditor audit.Publisher
	metrics *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(markets Store, storeTx tx.StoreTx, opts ...Option) *Service {
	s := &Service{
		markets: markets,
		tx:      storeTx,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize creates the Market singleton with the default fee and tax rates.
// A second initialization fails with DuplicateEntity and changes nothing.
func (s *Service) Initialize(ctx context.Context) (*models.Market, error) {
	var market *models.Market
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		m := models.NewMarket(requestcontext.Now(txCtx))
		if err := s.markets.Create(txCtx, m); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeDuplicateEntity, "market is already initialized")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create market")
		}
		market = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Event{
		Member:  requestcontext.MemberID(ctx),
		Action:  audit.ActionMarketInitialized,
		Subject: "market",
	})
	return market, nil
}

// Get returns the current Market state.
func (s *Service) Get(ctx context.Context) (*models.Market, error) {
	market, err := s.markets.Get(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "market is not initialized")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load market")
	}
	return market, nil
}

// ClaimItemID consumes the next item id. It succeeds only while claimed is
// still the current counter value; a stale claim fails with DuplicateEntity
// and must abort the caller's whole transaction.
func (s *Service) ClaimItemID(ctx context.Context, claimed uint64) error {
	if err := s.markets.ClaimItemID(ctx, claimed); err != nil {
		return s.claimError(err, "item", claimed)
	}
	return nil
}

// ClaimProposalID consumes the next proposal id, with the same contract as
// ClaimItemID.
func (s *Service) ClaimProposalID(ctx context.Context, claimed uint64) error {
	if err := s.markets.ClaimProposalID(ctx, claimed); err != nil {
		return s.claimError(err, "proposal", claimed)
	}
	return nil
}

func (s *Service) claimError(err error, kind string, claimed uint64) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "market is not initialized")
	case errors.Is(err, sentinel.ErrConflict):
		if s.metrics != nil {
			s.metrics.IncrementStaleIDClaims()
		}
		return dErrors.Newf(dErrors.CodeDuplicateEntity, "%s id %d is already taken", kind, claimed)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to claim "+kind+" id")
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "error", err, "action", event.Action)
	}
}

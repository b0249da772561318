// Package service orchestrates listing and purchasing of catalog items.
package service

import (
	"context"
	"errors"
	"log/slog"

	"commune/internal/audit"
	"commune/internal/bank"
	catalogmetrics "commune/internal/catalog/metrics"
	"commune/internal/catalog/models"
	marketmodels "commune/internal/market/models"
	id "commune/pkg/domain"
	dErrors "commune/pkg/domain-errors"
	"commune/pkg/platform/sentinel"
	"commune/pkg/platform/tx"
	"commune/pkg/requestcontext"
)

// Store persists catalog items.
type Store interface {
	Create(ctx context.Context, item *models.Item) error
	Find(ctx context.Context, itemID id.ItemID) (*models.Item, error)
	MarkSold(ctx context.Context, itemID id.ItemID, buyer id.MemberID) error
}

// MarketService supplies market state and consumes item ids.
type MarketService interface {
	Get(ctx context.Context) (*marketmodels.Market, error)
	ClaimItemID(ctx context.Context, claimed uint64) error
}

// Approvals answers whether a member may act on the ledger.
type Approvals interface {
	IsApproved(ctx context.Context, member id.MemberID) (bool, error)
}

// ListItemInput carries the caller-supplied listing fields. Price is in whole
// currency units; the stored settlement price is derived from it.
type ListItemInput struct {
	ClaimedID   uint64
	Title       string
	Description string
	Price       uint64
}

// Service owns the ListItem and Purchase operations.
type Service struct {
	items     Store
	market    MarketService
	approvals Approvals
	bank      bank.Bank
	tx        tx.StoreTx
	logger    *slog.Logger
	auditor   audit.Publisher
	metrics   *catalogmetrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithMetrics(m *catalogmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(items Store, market MarketService, approvals Approvals, b bank.Bank, storeTx tx.StoreTx, opts ...Option) *Service {
	s := &Service{
		items:     items,
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

// ListItem creates a catalog item under the id the seller claims. The sales
// tax is remitted seller to treasury and the item counter advances, all in
// the same transaction: a stale claimed id, an invalid field, or an
// uncovered tax each abort with nothing written.
func (s *Service) ListItem(ctx context.Context, seller id.MemberID, in ListItemInput) (*models.Item, error) {
	var item *models.Item
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		approved, err := s.approvals.IsApproved(txCtx, seller)
		if err != nil {
			return err
		}
		if !approved {
			return dErrors.New(dErrors.CodeUnauthorized, "seller is not an approved member")
		}

		market, err := s.market.Get(txCtx)
		if err != nil {
			return err
		}
		if in.ClaimedID != market.ItemCount {
			return dErrors.Newf(dErrors.CodeDuplicateEntity, "item id %d is already taken", in.ClaimedID)
		}

		candidate, err := models.NewItem(id.ItemID(in.ClaimedID), seller, in.Title, in.Description, in.Price, market.TaxRate, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}

		// Tax settles up front: the seller must cover it before the listing
		// exists. Last fallible external step.
		if err := s.bank.Transfer(txCtx, seller, bank.Treasury, candidate.Tax); err != nil {
			if errors.Is(err, sentinel.ErrInsufficientFunds) {
				return dErrors.New(dErrors.CodeInvalidInput, "insufficient funds for the sales tax")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to collect sales tax")
		}

		if err := s.items.Create(txCtx, candidate); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.Newf(dErrors.CodeDuplicateEntity, "item id %d is already taken", in.ClaimedID)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create item")
		}
		if err := s.market.ClaimItemID(txCtx, in.ClaimedID); err != nil {
			return err
		}
		item = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Event{
		Member:  seller,
		Action:  audit.ActionItemListed,
		Subject: item.ID.String(),
		Amount:  item.Price,
	})
	if s.metrics != nil {
		s.metrics.IncrementItemsListed()
	}
	return item, nil
}

// Purchase settles an item sale: the buyer pays the full tax-inclusive price
// to the recipient, who must be the item's seller, and the item is marked
// sold. A failed payment leaves the item unsold.
func (s *Service) Purchase(ctx context.Context, buyer id.MemberID, itemID id.ItemID, recipient id.MemberID) (*models.Item, error) {
	var item *models.Item
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		approved, err := s.approvals.IsApproved(txCtx, buyer)
		if err != nil {
			return err
		}
		if !approved {
			return dErrors.New(dErrors.CodeUnauthorized, "buyer is not an approved member")
		}

		found, err := s.items.Find(txCtx, itemID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Newf(dErrors.CodeNotFound, "item %s does not exist", itemID)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load item")
		}
		if found.Sold {
			return dErrors.Newf(dErrors.CodeAlreadySettled, "item %s is already sold", itemID)
		}
		if recipient != found.Seller {
			return dErrors.New(dErrors.CodeInvalidInput, "recipient is not the item's seller")
		}

		if err := s.bank.Transfer(txCtx, buyer, recipient, found.Price); err != nil {
			if errors.Is(err, sentinel.ErrInsufficientFunds) {
				return dErrors.New(dErrors.CodeInvalidInput, "insufficient funds for the purchase")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to settle the purchase")
		}

		// The store transition carries its own unsold predicate, so a racing
		// purchase loses here and its payment rolls back with the transaction.
		if err := s.items.MarkSold(txCtx, itemID, buyer); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.Newf(dErrors.CodeAlreadySettled, "item %s is already sold", itemID)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark item sold")
		}
		found.Sold = true
		found.Buyer = buyer
		item = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Event{
		Member:  buyer,
		Action:  audit.ActionItemSold,
		Subject: item.ID.String(),
		Amount:  item.Price,
	})
	if s.metrics != nil {
		s.metrics.IncrementItemsSold()
	}
	return item, nil
}

// Get returns a single item.
func (s *Service) Get(ctx context.Context, itemID id.ItemID) (*models.Item, error) {
	item, err := s.items.Find(ctx, itemID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "item %s does not exist", itemID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load item")
	}
	return item, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "error", err, "action", event.Action)
	}
}

package store

import (
	"context"
	"database/sql"
	"fmt"

	"commune/internal/market/models"
	"commune/pkg/ledgerkey"
	"commune/pkg/platform/sentinel"
	"commune/pkg/platform/tx"
)

// Postgres persists the singleton in the market table, keyed by the derived
// singleton key. The compare-and-increment claims become conditional UPDATEs:
// zero rows affected means another creator won the counter value.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) q(ctx context.Context) querier {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

func (s *Postgres) Create(ctx context.Context, market *models.Market) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO market (singleton_key, fee_rate, tax_rate, item_count, proposal_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (singleton_key) DO NOTHING
	`, string(ledgerkey.Market()),
		int64(market.FeeRate), int64(market.TaxRate),
		int64(market.ItemCount), int64(market.ProposalCount),
		market.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create market: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create market: %w", err)
	}
	if n == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context) (*models.Market, error) {
	var m models.Market
	var feeRate, taxRate, itemCount, proposalCount int64
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT fee_rate, tax_rate, item_count, proposal_count, created_at
		FROM market WHERE singleton_key = $1
	`, string(ledgerkey.Market())).Scan(&feeRate, &taxRate, &itemCount, &proposalCount, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get market: %w", err)
	}
	m.FeeRate = uint64(feeRate)
	m.TaxRate = uint64(taxRate)
	m.ItemCount = uint64(itemCount)
	m.ProposalCount = uint64(proposalCount)
	return &m, nil
}

func (s *Postgres) ClaimItemID(ctx context.Context, claimed uint64) error {
	return s.claim(ctx, "item_count", claimed)
}

func (s *Postgres) ClaimProposalID(ctx context.Context, claimed uint64) error {
	return s.claim(ctx, "proposal_count", claimed)
}

func (s *Postgres) claim(ctx context.Context, column string, claimed uint64) error {
	// column is one of two compile-time constants, never caller input.
	query := fmt.Sprintf(`
		UPDATE market SET %s = %s + 1
		WHERE singleton_key = $1 AND %s = $2
	`, column, column, column)

	res, err := s.q(ctx).ExecContext(ctx, query, string(ledgerkey.Market()), int64(claimed))
	if err != nil {
		return fmt.Errorf("claim %s: %w", column, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim %s: %w", column, err)
	}
	if n == 0 {
		// Either the singleton is missing or the counter moved on.
		if _, getErr := s.Get(ctx); getErr != nil {
			return getErr
		}
		return sentinel.ErrConflict
	}
	return nil
}

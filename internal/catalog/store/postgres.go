package store

import (
	"context"
	"database/sql"
	"fmt"

	"commune/internal/catalog/models"
	id "commune/pkg/domain"
	"commune/pkg/platform/sentinel"
	"commune/pkg/platform/tx"
)

// Postgres persists items in the items table; the primary key on id is the
// relational form of the derived-key collision.
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

func (s *Postgres) Create(ctx context.Context, item *models.Item) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO items (id, seller_id, title, description, price, tax, sold, listed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, int64(item.ID), item.Seller.String(), item.Title, item.Description,
		int64(item.Price), int64(item.Tax), item.Sold, item.ListedAt)
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	if n == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *Postgres) Find(ctx context.Context, itemID id.ItemID) (*models.Item, error) {
	var (
		item      models.Item
		rawID     int64
		price     int64
		taxAmount int64
		sellerStr string
		buyerStr  sql.NullString
	)
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, seller_id, title, description, price, tax, sold, buyer_id, listed_at
		FROM items WHERE id = $1
	`, int64(itemID)).Scan(&rawID, &sellerStr, &item.Title, &item.Description,
		&price, &taxAmount, &item.Sold, &buyerStr, &item.ListedAt)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find item: %w", err)
	}
	item.ID = id.ItemID(rawID)
	item.Price = uint64(price)
	item.Tax = uint64(taxAmount)
	seller, err := id.ParseMemberID(sellerStr)
	if err != nil {
		return nil, fmt.Errorf("find item: %w", err)
	}
	item.Seller = seller
	if buyerStr.Valid && buyerStr.String != "" {
		buyer, err := id.ParseMemberID(buyerStr.String)
		if err != nil {
			return nil, fmt.Errorf("find item: %w", err)
		}
		item.Buyer = buyer
	}
	return &item, nil
}

// MarkSold transitions an item to sold with the unsold state as part of the
// predicate: a racing purchase that re-checks after the winner's commit
// matches zero rows and fails with sentinel.ErrAlreadyUsed, which rolls its
// payment back with the rest of the transaction.
func (s *Postgres) MarkSold(ctx context.Context, itemID id.ItemID, buyer id.MemberID) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE items SET sold = TRUE, buyer_id = $2
		WHERE id = $1 AND sold = FALSE
	`, int64(itemID), buyer.String())
	if err != nil {
		return fmt.Errorf("mark item sold: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark item sold: %w", err)
	}
	if n == 0 {
		// Either the item is missing or it already sold.
		if _, findErr := s.Find(ctx, itemID); findErr != nil {
			return findErr
		}
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

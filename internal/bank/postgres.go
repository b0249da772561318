package bank

import (
	"context"
	"database/sql"
	"fmt"

	id "commune/pkg/domain"
	"commune/pkg/platform/sentinel"
	"commune/pkg/platform/tx"
)

// Postgres keeps balances in the accounts table. Transfer relies on the
// CHECK (balance >= 0) constraint plus a conditional debit, so a racing
// overdraw loses cleanly inside the caller's transaction.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (b *Postgres) q(ctx context.Context) execer {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return b.db
}

func (b *Postgres) Transfer(ctx context.Context, from, to id.MemberID, amount uint64) error {
	q := b.q(ctx)

	res, err := q.ExecContext(ctx, `
		UPDATE accounts SET balance = balance - $2
		WHERE account_id = $1 AND balance >= $2
	`, from.String(), int64(amount))
	if err != nil {
		return fmt.Errorf("debit %s: %w", from, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit %s: %w", from, err)
	}
	if n == 0 {
		return sentinel.ErrInsufficientFunds
	}

	if _, err := q.ExecContext(ctx, `
		INSERT INTO accounts (account_id, balance) VALUES ($1, $2)
		ON CONFLICT (account_id) DO UPDATE SET balance = accounts.balance + EXCLUDED.balance
	`, to.String(), int64(amount)); err != nil {
		return fmt.Errorf("credit %s: %w", to, err)
	}
	return nil
}

func (b *Postgres) Balance(ctx context.Context, account id.MemberID) (uint64, error) {
	var balance int64
	err := b.q(ctx).QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE account_id = $1`, account.String(),
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("balance %s: %w", account, err)
	}
	return uint64(balance), nil
}

func (b *Postgres) Deposit(ctx context.Context, account id.MemberID, amount uint64) error {
	if _, err := b.q(ctx).ExecContext(ctx, `
		INSERT INTO accounts (account_id, balance) VALUES ($1, $2)
		ON CONFLICT (account_id) DO UPDATE SET balance = accounts.balance + EXCLUDED.balance
	`, account.String(), int64(amount)); err != nil {
		return fmt.Errorf("deposit %s: %w", account, err)
	}
	return nil
}

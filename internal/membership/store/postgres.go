package store

import (
	"context"
	"database/sql"
	"fmt"

	"commune/internal/membership/models"
	id "commune/pkg/domain"
	"commune/pkg/platform/sentinel"
	"commune/pkg/platform/tx"
)

// Postgres persists memberships in the memberships table; the primary key on
// member_id is the relational form of the derived-key collision.
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

func (s *Postgres) Create(ctx context.Context, membership *models.Membership) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO memberships (member_id, approved, joined_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (member_id) DO NOTHING
	`, membership.Member.String(), membership.Approved, membership.JoinedAt)
	if err != nil {
		return fmt.Errorf("create membership: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create membership: %w", err)
	}
	if n == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *Postgres) Find(ctx context.Context, member id.MemberID) (*models.Membership, error) {
	var m models.Membership
	var memberStr string
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT member_id, approved, joined_at FROM memberships WHERE member_id = $1
	`, member.String()).Scan(&memberStr, &m.Approved, &m.JoinedAt)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find membership: %w", err)
	}
	parsed, err := id.ParseMemberID(memberStr)
	if err != nil {
		return nil, fmt.Errorf("find membership: %w", err)
	}
	m.Member = parsed
	return &m, nil
}

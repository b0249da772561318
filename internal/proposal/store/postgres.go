package store

import (
	"context"
	"database/sql"
	"fmt"

	"commune/internal/proposal/models"
	id "commune/pkg/domain"
	"commune/pkg/platform/sentinel"
	"commune/pkg/platform/tx"
)

// Postgres persists proposals and votes. The composite primary key on
// (proposal_id, voter_id) in the votes table is the relational form of the
// vote-key collision.
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

func (s *Postgres) Create(ctx context.Context, proposal *models.Proposal) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO proposals (id, owner_id, title, description, amount, quorum,
			vote_yes, vote_no, approved, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`, int64(proposal.ID), proposal.Owner.String(), proposal.Title, proposal.Description,
		int64(proposal.Amount), int64(proposal.Quorum), int64(proposal.VoteYes),
		int64(proposal.VoteNo), proposal.Approved, proposal.CreatedAt, proposal.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create proposal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create proposal: %w", err)
	}
	if n == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *Postgres) Find(ctx context.Context, proposalID id.ProposalID) (*models.Proposal, error) {
	var (
		p        models.Proposal
		rawID    int64
		amount   int64
		quorum   int64
		voteYes  int64
		voteNo   int64
		ownerStr string
	)
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, owner_id, title, description, amount, quorum,
			vote_yes, vote_no, approved, created_at, expires_at
		FROM proposals WHERE id = $1
	`, int64(proposalID)).Scan(&rawID, &ownerStr, &p.Title, &p.Description, &amount,
		&quorum, &voteYes, &voteNo, &p.Approved, &p.CreatedAt, &p.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find proposal: %w", err)
	}
	p.ID = id.ProposalID(rawID)
	p.Amount = uint64(amount)
	p.Quorum = uint64(quorum)
	p.VoteYes = uint64(voteYes)
	p.VoteNo = uint64(voteNo)
	owner, err := id.ParseMemberID(ownerStr)
	if err != nil {
		return nil, fmt.Errorf("find proposal: %w", err)
	}
	p.Owner = owner
	return &p, nil
}

// TallyVote bumps the yes or no counter in place. The increment is relative,
// so concurrent voters never clobber each other's tallies with stale reads.
func (s *Postgres) TallyVote(ctx context.Context, proposalID id.ProposalID, choice bool) error {
	column := "vote_no"
	if choice {
		column = "vote_yes"
	}
	query := fmt.Sprintf(`UPDATE proposals SET %s = %s + 1 WHERE id = $1`, column, column)
	res, err := s.q(ctx).ExecContext(ctx, query, int64(proposalID))
	if err != nil {
		return fmt.Errorf("tally vote: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("tally vote: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// MarkApproved flips the approved flag with the unapproved state as part of
// the predicate: a racing approval matches zero rows and fails with
// sentinel.ErrAlreadyUsed, rolling its payout back with the transaction.
func (s *Postgres) MarkApproved(ctx context.Context, proposalID id.ProposalID) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE proposals SET approved = TRUE WHERE id = $1 AND approved = FALSE
	`, int64(proposalID))
	if err != nil {
		return fmt.Errorf("mark proposal approved: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark proposal approved: %w", err)
	}
	if n == 0 {
		// Either the proposal is missing or it already settled.
		if _, findErr := s.Find(ctx, proposalID); findErr != nil {
			return findErr
		}
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *Postgres) CreateVote(ctx context.Context, vote *models.Vote) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO votes (proposal_id, voter_id, choice, cast_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (proposal_id, voter_id) DO NOTHING
	`, int64(vote.Proposal), vote.Voter.String(), vote.Choice, vote.CastAt)
	if err != nil {
		return fmt.Errorf("create vote: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create vote: %w", err)
	}
	if n == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *Postgres) FindVote(ctx context.Context, proposalID id.ProposalID, voter id.MemberID) (*models.Vote, error) {
	var (
		v        models.Vote
		rawID    int64
		voterStr string
	)
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT proposal_id, voter_id, choice, cast_at
		FROM votes WHERE proposal_id = $1 AND voter_id = $2
	`, int64(proposalID), voter.String()).Scan(&rawID, &voterStr, &v.Choice, &v.CastAt)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find vote: %w", err)
	}
	v.Proposal = id.ProposalID(rawID)
	parsed, err := id.ParseMemberID(voterStr)
	if err != nil {
		return nil, fmt.Errorf("find vote: %w", err)
	}
	v.Voter = parsed
	return &v, nil
}

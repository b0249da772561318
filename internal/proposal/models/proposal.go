// Package models defines governance proposals and their votes.
package models

import (
	"time"
	"unicode/utf8"

	"commune/pkg/domain"
	dErrors "commune/pkg/domain-errors"
)

const (
	MaxTitleLength       = 80
	MaxDescriptionLength = 1024
)

// Proposal is a funding request put to the membership. Amount is the payout
// in currency subunits the treasury releases on approval.
type Proposal struct {
	ID          domain.ProposalID `json:"id"`
	Owner       domain.MemberID   `json:"owner"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Amount      uint64            `json:"amount"`
	Quorum      uint64            `json:"quorum"`
	VoteYes     uint64            `json:"vote_yes"`
	VoteNo      uint64            `json:"vote_no"`
	Approved    bool              `json:"approved"`
	CreatedAt   time.Time         `json:"created_at"`
	ExpiresAt   time.Time         `json:"expires_at"`
}

// NewProposal validates the submission and returns the initial proposal state.
func NewProposal(id domain.ProposalID, owner domain.MemberID, title, description string, amount, quorum uint64, now, expiresAt time.Time) (*Proposal, error) {
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "title must be at most %d characters", MaxTitleLength)
	}
	if description == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "description is required")
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "description must be at most %d characters", MaxDescriptionLength)
	}
	if !expiresAt.After(now) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "expiry must be in the future")
	}

	return &Proposal{
		ID:          id,
		Owner:       owner,
		Title:       title,
		Description: description,
		Amount:      amount,
		Quorum:      quorum,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
	}, nil
}

// Expired reports whether voting has closed as of now.
func (p *Proposal) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// Passed reports whether the membership accepted the proposal. Ties fail.
func (p *Proposal) Passed() bool {
	return p.VoteYes > p.VoteNo
}

// Vote is one member's choice on one proposal. The (Proposal, Voter) pair is
// the record identity, which makes voting exactly-once.
type Vote struct {
	Proposal domain.ProposalID `json:"proposal"`
	Voter    domain.MemberID   `json:"voter"`
	Choice   bool              `json:"choice"`
	CastAt   time.Time         `json:"cast_at"`
}

// Package store persists proposals and votes keyed by their derived storage
// keys. A vote's key covers the (proposal, voter) pair, so casting twice
// collides instead of double-counting.
package store

import (
	"context"
	"sync"

	"commune/internal/proposal/models"
	id "commune/pkg/domain"
	"commune/pkg/ledgerkey"
	"commune/pkg/platform/sentinel"
)

type InMemory struct {
	mu        sync.RWMutex
	proposals map[ledgerkey.Key]*models.Proposal
	votes     map[ledgerkey.Key]*models.Vote
}

func NewInMemory() *InMemory {
	return &InMemory{
		proposals: make(map[ledgerkey.Key]*models.Proposal),
		votes:     make(map[ledgerkey.Key]*models.Vote),
	}
}

func (s *InMemory) Create(_ context.Context, proposal *models.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ledgerkey.Proposal(proposal.ID)
	if _, exists := s.proposals[key]; exists {
		return sentinel.ErrAlreadyUsed
	}
	clone := *proposal
	s.proposals[key] = &clone
	return nil
}

func (s *InMemory) Find(_ context.Context, proposalID id.ProposalID) (*models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proposal, ok := s.proposals[ledgerkey.Proposal(proposalID)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *proposal
	return &clone, nil
}

// TallyVote bumps the yes or no counter on the stored record.
func (s *InMemory) TallyVote(_ context.Context, proposalID id.ProposalID, choice bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	proposal, exists := s.proposals[ledgerkey.Proposal(proposalID)]
	if !exists {
		return sentinel.ErrNotFound
	}
	if choice {
		proposal.VoteYes++
	} else {
		proposal.VoteNo++
	}
	return nil
}

// MarkApproved flips the approved flag exactly once. A second caller finds
// the proposal already settled and fails with sentinel.ErrAlreadyUsed.
func (s *InMemory) MarkApproved(_ context.Context, proposalID id.ProposalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	proposal, exists := s.proposals[ledgerkey.Proposal(proposalID)]
	if !exists {
		return sentinel.ErrNotFound
	}
	if proposal.Approved {
		return sentinel.ErrAlreadyUsed
	}
	proposal.Approved = true
	return nil
}

func (s *InMemory) CreateVote(_ context.Context, vote *models.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ledgerkey.Vote(vote.Proposal, vote.Voter)
	if _, exists := s.votes[key]; exists {
		return sentinel.ErrAlreadyUsed
	}
	clone := *vote
	s.votes[key] = &clone
	return nil
}

func (s *InMemory) FindVote(_ context.Context, proposalID id.ProposalID, voter id.MemberID) (*models.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vote, ok := s.votes[ledgerkey.Vote(proposalID, voter)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *vote
	return &clone, nil
}

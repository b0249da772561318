// Package store persists the Market singleton. Counter claims are
// read-then-compare: the caller supplies the id it believes is next, and the
// claim succeeds only while that is still the current counter value, which
// serializes racing creators without a separate allocation step.
package store

import (
	"context"
	"sync"

	"commune/internal/market/models"
	"commune/pkg/ledgerkey"
	"commune/pkg/platform/sentinel"
)

// InMemory keeps the singleton in a keyed map so creation collides on the
// derived key exactly like any other record kind.
type InMemory struct {
	mu      sync.RWMutex
	records map[ledgerkey.Key]*models.Market
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[ledgerkey.Key]*models.Market)}
}

func (s *InMemory) Create(_ context.Context, market *models.Market) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ledgerkey.Market()
	if _, exists := s.records[key]; exists {
		return sentinel.ErrAlreadyUsed
	}
	clone := *market
	s.records[key] = &clone
	return nil
}

func (s *InMemory) Get(_ context.Context) (*models.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	market, ok := s.records[ledgerkey.Market()]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *market
	return &clone, nil
}

// ClaimItemID increments ItemCount if it still equals claimed, otherwise
// fails with sentinel.ErrConflict and changes nothing.
func (s *InMemory) ClaimItemID(_ context.Context, claimed uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	market, ok := s.records[ledgerkey.Market()]
	if !ok {
		return sentinel.ErrNotFound
	}
	if market.ItemCount != claimed {
		return sentinel.ErrConflict
	}
	market.ItemCount++
	return nil
}

// ClaimProposalID increments ProposalCount if it still equals claimed.
func (s *InMemory) ClaimProposalID(_ context.Context, claimed uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	market, ok := s.records[ledgerkey.Market()]
	if !ok {
		return sentinel.ErrNotFound
	}
	if market.ProposalCount != claimed {
		return sentinel.ErrConflict
	}
	market.ProposalCount++
	return nil
}

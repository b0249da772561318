// Package store persists membership records keyed by the identity-derived
// storage key. Duplicate joins collide on the key rather than consulting a
// separate exists flag.
package store

import (
	"context"
	"sync"

	"commune/internal/membership/models"
	id "commune/pkg/domain"
	"commune/pkg/ledgerkey"
	"commune/pkg/platform/sentinel"
)

type InMemory struct {
	mu      sync.RWMutex
	records map[ledgerkey.Key]*models.Membership
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[ledgerkey.Key]*models.Membership)}
}

func (s *InMemory) Create(_ context.Context, membership *models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ledgerkey.Member(membership.Member)
	if _, exists := s.records[key]; exists {
		return sentinel.ErrAlreadyUsed
	}
	clone := *membership
	s.records[key] = &clone
	return nil
}

func (s *InMemory) Find(_ context.Context, member id.MemberID) (*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	membership, ok := s.records[ledgerkey.Member(member)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *membership
	return &clone, nil
}

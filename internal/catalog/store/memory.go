// Package store persists catalog items keyed by the id-derived storage key.
package store

import (
	"context"
	"sync"

	"commune/internal/catalog/models"
	id "commune/pkg/domain"
	"commune/pkg/ledgerkey"
	"commune/pkg/platform/sentinel"
)

type InMemory struct {
	mu      sync.RWMutex
	records map[ledgerkey.Key]*models.Item
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[ledgerkey.Key]*models.Item)}
}

func (s *InMemory) Create(_ context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ledgerkey.Item(item.ID)
	if _, exists := s.records[key]; exists {
		return sentinel.ErrAlreadyUsed
	}
	clone := *item
	s.records[key] = &clone
	return nil
}

func (s *InMemory) Find(_ context.Context, itemID id.ItemID) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.records[ledgerkey.Item(itemID)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *item
	return &clone, nil
}

// MarkSold transitions an item to sold exactly once. A second caller finds
// the item already sold and fails with sentinel.ErrAlreadyUsed.
func (s *InMemory) MarkSold(_ context.Context, itemID id.ItemID, buyer id.MemberID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, exists := s.records[ledgerkey.Item(itemID)]
	if !exists {
		return sentinel.ErrNotFound
	}
	if item.Sold {
		return sentinel.ErrAlreadyUsed
	}
	item.Sold = true
	item.Buyer = buyer
	return nil
}

package bank

import (
	"context"
	"sync"

	id "commune/pkg/domain"
	"commune/pkg/platform/sentinel"
)

// InMemory keeps balances in a map. Absent accounts hold zero.
type InMemory struct {
	mu       sync.Mutex
	balances map[id.MemberID]uint64
}

func NewInMemory() *InMemory {
	return &InMemory{balances: make(map[id.MemberID]uint64)}
}

func (b *InMemory) Transfer(_ context.Context, from, to id.MemberID, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.balances[from] < amount {
		return sentinel.ErrInsufficientFunds
	}
	b.balances[from] -= amount
	b.balances[to] += amount
	return nil
}

func (b *InMemory) Balance(_ context.Context, account id.MemberID) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[account], nil
}

func (b *InMemory) Deposit(_ context.Context, account id.MemberID, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[account] += amount
	return nil
}

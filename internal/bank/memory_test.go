package bank

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "commune/pkg/domain"
	"commune/pkg/platform/sentinel"
)

func TestTransferMovesFunds(t *testing.T) {
	ctx := context.Background()
	b := NewInMemory()
	alice := id.MemberID(uuid.New())
	bob := id.MemberID(uuid.New())

	require.NoError(t, b.Deposit(ctx, alice, 100))
	require.NoError(t, b.Transfer(ctx, alice, bob, 30))

	aliceBalance, _ := b.Balance(ctx, alice)
	bobBalance, _ := b.Balance(ctx, bob)
	assert.Equal(t, uint64(70), aliceBalance)
	assert.Equal(t, uint64(30), bobBalance)
}

func TestOverdrawFailsWithoutPartialState(t *testing.T) {
	ctx := context.Background()
	b := NewInMemory()
	alice := id.MemberID(uuid.New())
	bob := id.MemberID(uuid.New())

	require.NoError(t, b.Deposit(ctx, alice, 10))

	err := b.Transfer(ctx, alice, bob, 11)
	require.ErrorIs(t, err, sentinel.ErrInsufficientFunds)

	aliceBalance, _ := b.Balance(ctx, alice)
	bobBalance, _ := b.Balance(ctx, bob)
	assert.Equal(t, uint64(10), aliceBalance)
	assert.Equal(t, uint64(0), bobBalance)
}

func TestUnknownAccountHoldsZero(t *testing.T) {
	b := NewInMemory()
	balance, err := b.Balance(context.Background(), id.MemberID(uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balance)
}

// Package bank is the currency-transfer primitive the ledger settles through.
// The commune core treats it as an external collaborator: a debit-and-credit
// joined atomically to the calling operation's transaction.
package bank

import (
	"context"

	"github.com/google/uuid"

	id "commune/pkg/domain"
)

// Treasury is the commune's own account. Joining fees and sales tax accrue
// here; approved proposals are paid out of it.
var Treasury = id.MemberID(uuid.MustParse("00000000-0000-0000-0000-000000000001"))

// Bank moves funds between accounts. Transfer debits from and credits to in
// one step; an overdraw fails with sentinel.ErrInsufficientFunds and must
// leave both balances untouched.
type Bank interface {
	Transfer(ctx context.Context, from, to id.MemberID, amount uint64) error
	Balance(ctx context.Context, account id.MemberID) (uint64, error)
	// Deposit funds an account out of thin air. Account funding is outside
	// the ledger's scope; this exists for dev deployments and tests.
	Deposit(ctx context.Context, account id.MemberID, amount uint64) error
}

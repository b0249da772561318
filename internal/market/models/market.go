package models

import (
	"time"

	"commune/pkg/domain"
)

// Market is the singleton global configuration and counter record.
//
// Invariants:
//   - Exactly one Market exists per deployment, at the fixed derived key.
//   - ItemCount and ProposalCount only increase, and only by one, and only
//     together with the creation of the record claiming the old value.
type Market struct {
	// FeeRate is the joining fee in currency subunits.
	FeeRate uint64 `json:"fee_rate"`
	// TaxRate is the sales tax percentage folded into listed prices.
	TaxRate       uint64    `json:"tax_rate"`
	ItemCount     uint64    `json:"item_count"`
	ProposalCount uint64    `json:"proposal_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewMarket returns the initial Market state.
func NewMarket(now time.Time) *Market {
	return &Market{
		FeeRate:       domain.DefaultFeeRate,
		TaxRate:       domain.DefaultTaxRate,
		ItemCount:     0,
		ProposalCount: 0,
		CreatedAt:     now,
	}
}

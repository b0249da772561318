package domain

import "math"

// BaseUnit is the number of currency subunits per whole unit. All settlement
// amounts are stored in subunits.
const BaseUnit uint64 = 1_000_000_000

// MaxBasePrice is the largest whole-unit price the settlement arithmetic can
// carry without wrapping. TaxAmount multiplies the base price by the rate and
// BaseUnit before dividing, so the bound reserves headroom for tax rates up
// to 100 percent.
const MaxBasePrice uint64 = math.MaxUint64 / (100 * BaseUnit)

// DefaultTaxRate is the sales tax percentage applied to listed items.
const DefaultTaxRate uint64 = 3

// DefaultFeeRate is the joining fee in subunits (0.01 whole units).
const DefaultFeeRate uint64 = BaseUnit / 100

// TaxAmount computes the sales tax in subunits for a base price at the given
// percentage rate. Integer arithmetic, truncating division last.
func TaxAmount(basePrice, taxRate uint64) uint64 {
	return basePrice * taxRate * BaseUnit / 100
}

// SettlementPrice folds the tax into the listed price: the stored,
// tax-inclusive amount the buyer pays. Base price 10 at 3% yields
// 10_300_000_000 subunits.
func SettlementPrice(basePrice, taxRate uint64) uint64 {
	return basePrice*BaseUnit + TaxAmount(basePrice, taxRate)
}

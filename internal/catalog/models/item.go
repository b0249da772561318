// Package models defines the catalog item record.
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

// Item is a listed good. Price is the stored, tax-inclusive settlement amount
// in currency subunits; Tax is the portion already remitted to the treasury
// at listing time.
type Item struct {
	ID          domain.ItemID   `json:"id"`
	Seller      domain.MemberID `json:"seller"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       uint64          `json:"price"`
	Tax         uint64          `json:"tax"`
	Sold        bool            `json:"sold"`
	// Buyer is nil until the item sells.
	Buyer    domain.MemberID `json:"buyer"`
	ListedAt time.Time       `json:"listed_at"`
}

// NewItem validates the listing input and returns the item with the
// settlement price folded in. basePrice is in whole currency units.
func NewItem(id domain.ItemID, seller domain.MemberID, title, description string, basePrice, taxRate uint64, now time.Time) (*Item, error) {
	if basePrice == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "price must be greater than zero")
	}
	if basePrice > domain.MaxBasePrice {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "price must be at most %d", domain.MaxBasePrice)
	}
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

	return &Item{
		ID:          id,
		Seller:      seller,
		Title:       title,
		Description: description,
		Price:       domain.SettlementPrice(basePrice, taxRate),
		Tax:         domain.TaxAmount(basePrice, taxRate),
		Sold:        false,
		ListedAt:    now,
	}, nil
}

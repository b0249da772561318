package models

import (
	"time"

	id "commune/pkg/domain"
)

// Membership asserts an identity is an approved commune participant.
//
// Invariants:
//   - At most one Membership per identity (enforced by the derived key).
//   - Approved is fixed true once created; there is no revocation path.
type Membership struct {
	Member   id.MemberID `json:"member_id"`
	Approved bool        `json:"approved"`
	JoinedAt time.Time   `json:"joined_at"`
}

// NewMembership returns an approved membership for member.
func NewMembership(member id.MemberID, now time.Time) *Membership {
	return &Membership{
		Member:   member,
		Approved: true,
		JoinedAt: now,
	}
}

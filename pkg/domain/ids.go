// Package domain holds the typed identifiers and money primitives shared by
// every commune module. Typed IDs prevent cross-assignment between member
// identities and numeric record ids at compile time.
package domain

import (
	"strconv"

	"github.com/google/uuid"

	dErrors "commune/pkg/domain-errors"
)

// MemberID identifies a commune participant. It is the identity attached by
// the authorization layer; the core trusts it as already verified.
type MemberID uuid.UUID

// ParseMemberID validates and returns a MemberID.
// IDs must be valid, non-nil UUIDs.
func ParseMemberID(s string) (MemberID, error) {
	if s == "" {
		return MemberID{}, dErrors.New(dErrors.CodeInvalidInput, "member id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return MemberID{}, dErrors.New(dErrors.CodeInvalidInput, "member id must be a valid UUID")
	}
	if u == uuid.Nil {
		return MemberID{}, dErrors.New(dErrors.CodeInvalidInput, "member id must not be the nil UUID")
	}
	return MemberID(u), nil
}

func (id MemberID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the identity is unset. An unsold item has a nil buyer.
func (id MemberID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Bytes returns the canonical seed bytes for storage-key derivation.
func (id MemberID) Bytes() []byte {
	b := uuid.UUID(id)
	return b[:]
}

// MarshalText renders the id as its UUID string; the nil identity renders
// empty so unset fields stay readable in JSON payloads.
func (id MemberID) MarshalText() ([]byte, error) {
	if id.IsNil() {
		return []byte{}, nil
	}
	return []byte(id.String()), nil
}

func (id *MemberID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*id = MemberID{}
		return nil
	}
	u, err := uuid.Parse(string(b))
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "member id must be a valid UUID")
	}
	*id = MemberID(u)
	return nil
}

// ItemID is the sequential identifier of a catalog item. It always equals the
// Market item counter observed at creation time.
type ItemID uint64

func (id ItemID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseItemID parses a decimal item id.
func ParseItemID(s string) (ItemID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "item id must be a non-negative integer")
	}
	return ItemID(v), nil
}

// ProposalID is the sequential identifier of a governance proposal.
type ProposalID uint64

func (id ProposalID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseProposalID parses a decimal proposal id.
func ParseProposalID(s string) (ProposalID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "proposal id must be a non-negative integer")
	}
	return ProposalID(v), nil
}

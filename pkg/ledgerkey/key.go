// Package ledgerkey derives deterministic storage keys from a fixed namespace
// tag plus identifying seed bytes. A record's key is a pure function of its
// identity, so the key doubles as the duplicate-detection mechanism: creating
// a record at an already-occupied key fails rather than overwriting.
//
// In-memory stores index their maps by these keys. Postgres stores get the
// same exactly-once guarantee from primary-key constraints; the derivation
// stays authoritative for what "the same record" means.
package ledgerkey

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"commune/pkg/domain"
)

// Key is a derived storage location, stable across processes and restarts.
type Key string

// Namespace tags. One per record kind; changing a tag orphans every record
// stored under it.
const (
	NamespaceMarket   = "market"
	NamespaceMember   = "member_account"
	NamespaceItem     = "item_account"
	NamespaceProposal = "proposal_account"
	NamespaceVote     = "vote_account"
)

// Derive maps (namespace, seeds...) to a unique key. Each seed is
// length-prefixed before hashing so concatenation ambiguity cannot collide
// two distinct seed lists.
func Derive(namespace string, seeds ...[]byte) Key {
	h := sha256.New()
	h.Write([]byte(namespace))
	var lenBuf [4]byte
	for _, seed := range seeds {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(seed)))
		h.Write(lenBuf[:])
		h.Write(seed)
	}
	return Key(hex.EncodeToString(h.Sum(nil)))
}

func uint64Seed(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}

// Market returns the fixed key of the Market singleton.
func Market() Key {
	return Derive(NamespaceMarket)
}

// Member returns the key of a membership record.
func Member(member domain.MemberID) Key {
	return Derive(NamespaceMember, member.Bytes())
}

// Item returns the key of a catalog item.
func Item(id domain.ItemID) Key {
	return Derive(NamespaceItem, uint64Seed(uint64(id)))
}

// Proposal returns the key of a governance proposal.
func Proposal(id domain.ProposalID) Key {
	return Derive(NamespaceProposal, uint64Seed(uint64(id)))
}

// Vote returns the key of the vote cast by voter on a proposal. One key per
// (proposal, voter) pair enforces exactly-once voting.
func Vote(id domain.ProposalID, voter domain.MemberID) Key {
	return Derive(NamespaceVote, uint64Seed(uint64(id)), voter.Bytes())
}

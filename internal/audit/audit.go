// Package audit records every committed state change of the ledger. Events
// are emitted from services after their transaction's preconditions pass, and
// fan out to a log sink and, when configured, a Kafka topic.
package audit

import (
	"time"

	id "commune/pkg/domain"
)

// Action names one kind of ledger state change.
type Action string

const (
	ActionMarketInitialized Action = "market_initialized"
	ActionMemberJoined      Action = "member_joined"
	ActionItemListed        Action = "item_listed"
	ActionItemSold          Action = "item_sold"
	ActionProposalAdded     Action = "proposal_added"
	ActionVoteCast          Action = "vote_cast"
	ActionProposalApproved  Action = "proposal_approved"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time   `json:"timestamp"`
	Member    id.MemberID `json:"member_id"`
	Action    Action      `json:"action"`
	// Subject identifies the record acted on: an item id, proposal id, or
	// member identity, as a string.
	Subject   string `json:"subject"`
	Amount    uint64 `json:"amount,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

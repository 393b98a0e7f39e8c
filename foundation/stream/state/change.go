package state

import (
	"github.com/ardanlabs/streamledger/foundation/stream/account"
	"github.com/ardanlabs/streamledger/foundation/stream/ledger"
)

// Set of change kinds reported to notifiers.
const (
	ChangeCreated   = "created"
	ChangeWithdrawn = "withdrawn"
	ChangeCancelled = "cancelled"
	ChangeSettled   = "settled"
)

// Change represents a committed operation against a stream. The stream is
// the record as it stands after the operation.
type Change struct {
	Kind     string        `json:"kind"`
	StreamID uint64        `json:"stream_id"`
	Caller   account.ID    `json:"caller"`
	Amount   uint64        `json:"amount,omitempty"`
	Split    *ledger.Split `json:"split,omitempty"`
	Time     uint64        `json:"time"`
	Stream   ledger.Stream `json:"stream"`
}

package ledger

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/streamledger/foundation/stream/account"
)

// Status represents where a stream is in its lifecycle.
type Status string

// Set of lifecycle states. Only StatusActive accepts withdrawals. A stream
// in StatusSettling has been cancelled but still owes at least one payout.
const (
	StatusActive    Status = "active"
	StatusSettling  Status = "settling"
	StatusCancelled Status = "cancelled"
	StatusDrained   Status = "drained"
)

// Stream represents one agreed continuous transfer from a sender to a
// recipient. Everything except Withdrawn and the cancellation fields is
// fixed when the stream is created.
type Stream struct {
	ID            uint64     `json:"id"`
	Sender        account.ID `json:"sender"`
	Recipient     account.ID `json:"recipient"`
	Asset         string     `json:"asset"`
	Deposit       uint64     `json:"deposit"`
	StartTime     uint64     `json:"start_time"`
	StopTime      uint64     `json:"stop_time"`
	RatePerSecond uint64     `json:"rate_per_second"`
	Withdrawn     uint64     `json:"withdrawn"`
	Status        Status     `json:"status"`

	// Cancellation split frozen at the moment of cancellation. The pending
	// values are what has not been paid out yet and Refunded is the sender
	// leg once delivered.
	CancelledAt      uint64 `json:"cancelled_at,omitempty"`
	PendingRecipient uint64 `json:"pending_recipient,omitempty"`
	PendingSender    uint64 `json:"pending_sender,omitempty"`
	Refunded         uint64 `json:"refunded,omitempty"`
}

// Active reports whether the stream still accepts withdrawals.
func (s Stream) Active() bool {
	return s.Status == StatusActive
}

// Duration returns the number of seconds the stream runs for.
func (s Stream) Duration() uint64 {
	return s.StopTime - s.StartTime
}

// AccruedAt returns the total amount earned by the recipient since the
// start of the stream, regardless of what has been withdrawn.
func (s Stream) AccruedAt(now uint64) uint64 {
	switch {
	case now <= s.StartTime:
		return 0
	case now >= s.StopTime:
		return s.Deposit
	}

	return (now - s.StartTime) * s.RatePerSecond
}

// WithdrawableAt returns what the recipient can still withdraw at the
// specified time.
func (s Stream) WithdrawableAt(now uint64) uint64 {
	accrued := s.AccruedAt(now)
	if accrued < s.Withdrawn {
		return 0
	}
	return accrued - s.Withdrawn
}

// IsParty reports whether the account is the sender or the recipient.
func (s Stream) IsParty(acct account.ID) bool {
	return s.Sender.Equal(acct) || s.Recipient.Equal(acct)
}

// held returns the amount of the deposit still sitting in custody.
func (s Stream) held() uint64 {
	switch s.Status {
	case StatusSettling:
		return s.PendingRecipient + s.PendingSender
	case StatusCancelled:
		return 0
	}
	return s.Deposit - s.Withdrawn
}

// validate checks a stored record holds together before it's trusted.
func (s Stream) validate() error {
	switch {
	case s.ID == 0:
		return errors.New("missing id")

	case !s.Sender.IsID() || !s.Recipient.IsID():
		return fmt.Errorf("invalid parties %q, %q", s.Sender, s.Recipient)

	case s.Asset == "":
		return errors.New("missing asset")

	case s.StopTime <= s.StartTime:
		return fmt.Errorf("stop time %d is not after start time %d", s.StopTime, s.StartTime)

	case s.RatePerSecond == 0 || s.RatePerSecond != s.Deposit/s.Duration():
		return fmt.Errorf("rate %d does not match deposit %d over %d seconds", s.RatePerSecond, s.Deposit, s.Duration())

	case s.Withdrawn > s.Deposit:
		return fmt.Errorf("withdrawn %d exceeds deposit %d", s.Withdrawn, s.Deposit)
	}

	pending := s.PendingRecipient != 0 || s.PendingSender != 0

	switch s.Status {
	case StatusActive:
		if s.Withdrawn == s.Deposit {
			return errors.New("active stream is fully withdrawn")
		}
		if pending || s.Refunded != 0 || s.CancelledAt != 0 {
			return errors.New("active stream carries cancellation values")
		}

	case StatusDrained:
		if s.Withdrawn != s.Deposit {
			return fmt.Errorf("drained stream has only withdrawn %d of %d", s.Withdrawn, s.Deposit)
		}

	case StatusSettling, StatusCancelled:
		if s.Status == StatusSettling && !pending {
			return errors.New("settling stream has nothing pending")
		}
		if s.Status == StatusCancelled && pending {
			return errors.New("cancelled stream has pending payouts")
		}

		remaining := s.Deposit - s.Withdrawn
		for _, amount := range []uint64{s.PendingRecipient, s.PendingSender, s.Refunded} {
			if amount > remaining {
				return fmt.Errorf("payouts exceed the remaining deposit %d", s.Deposit-s.Withdrawn)
			}
			remaining -= amount
		}

	default:
		return fmt.Errorf("unknown status %q", s.Status)
	}

	return nil
}

// Delivered returns the total value paid out of custody to each party so far.
func (s Stream) Delivered() Split {
	return Split{
		Recipient: s.Deposit - s.held() - s.Refunded,
		Sender:    s.Refunded,
	}
}

// =============================================================================

// Split represents the amounts paid to each party of a cancelled stream.
type Split struct {
	Recipient uint64 `json:"recipient"`
	Sender    uint64 `json:"sender"`
}

// Total returns the sum of both legs.
func (sp Split) Total() uint64 {
	return sp.Recipient + sp.Sender
}

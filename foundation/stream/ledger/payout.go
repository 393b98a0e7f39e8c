package ledger

import (
	"context"
	"fmt"

	"github.com/ardanlabs/streamledger/foundation/stream/account"
)

// Withdraw pays the specified amount of accrued value to the recipient. The
// record is only updated once the transfer succeeds.
func (l *Ledger) Withdraw(ctx context.Context, id uint64, caller account.ID, amount uint64, now uint64) error {
	rec, err := l.record(id)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	stream := rec.stream

	switch {
	case !stream.Active():
		return fmt.Errorf("%w: stream %d is %s", ErrInactive, id, stream.Status)

	case !caller.Equal(stream.Recipient):
		return fmt.Errorf("%w: %s is not the recipient of stream %d", ErrUnauthorized, caller, id)

	case amount == 0:
		return fmt.Errorf("%w: amount must be positive", ErrInvalidParameters)
	}

	if available := stream.WithdrawableAt(now); amount > available {
		return fmt.Errorf("%w: requested %d, available %d", ErrInsufficientAccrued, amount, available)
	}

	if err := l.payOut(ctx, stream.Recipient, stream.Asset, amount); err != nil {
		return err
	}

	stream.Withdrawn += amount
	if stream.Withdrawn == stream.Deposit {
		stream.Status = StatusDrained
	}

	rec.stream = stream
	l.persist(stream)

	l.evHandler("ledger: Withdraw: id[%d] recipient[%s] amount[%d] withdrawn[%d] status[%s]", id, stream.Recipient, amount, stream.Withdrawn, stream.Status)

	return nil
}

// Cancel terminates the stream and splits what is left of the deposit
// between the recipient (what accrued and was not withdrawn) and the sender
// (everything else). The split is frozen at the specified time.
//
// When no payout could be delivered the cancel is undone and the stream
// stays active. When only one leg was delivered the stream moves to
// StatusSettling and Settle must be used to deliver the remaining leg.
func (l *Ledger) Cancel(ctx context.Context, id uint64, caller account.ID, now uint64) (Split, error) {
	rec, err := l.record(id)
	if err != nil {
		return Split{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	stream := rec.stream

	switch {
	case !stream.Active():
		return Split{}, fmt.Errorf("%w: stream %d is %s", ErrInactive, id, stream.Status)

	case !stream.IsParty(caller):
		return Split{}, fmt.Errorf("%w: %s is not a party to stream %d", ErrUnauthorized, caller, id)
	}

	recipientDue := stream.WithdrawableAt(now)
	senderDue := stream.Deposit - stream.Withdrawn - recipientDue

	stream.Status = StatusSettling
	stream.CancelledAt = now
	stream.PendingRecipient = recipientDue
	stream.PendingSender = senderDue

	paid, err := l.settle(ctx, &stream)
	if err != nil && paid.Total() == 0 {
		return Split{}, err
	}

	rec.stream = stream
	l.persist(stream)

	l.evHandler("ledger: Cancel: id[%d] by[%s] recipientDue[%d] senderDue[%d] status[%s]", id, caller, recipientDue, senderDue, stream.Status)

	if err != nil {
		return paid, err
	}

	return Split{Recipient: recipientDue, Sender: senderDue}, nil
}

// Settle retries the payouts still pending on a cancelled stream. The split
// computed at cancellation is used as is.
func (l *Ledger) Settle(ctx context.Context, id uint64, caller account.ID) (Split, error) {
	rec, err := l.record(id)
	if err != nil {
		return Split{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	stream := rec.stream

	switch {
	case stream.Active():
		return Split{}, fmt.Errorf("%w: stream %d is not cancelled", ErrInvalidParameters, id)

	case stream.Status != StatusSettling:
		return Split{}, fmt.Errorf("%w: stream %d is %s, nothing pending", ErrInactive, id, stream.Status)

	case !stream.IsParty(caller):
		return Split{}, fmt.Errorf("%w: %s is not a party to stream %d", ErrUnauthorized, caller, id)
	}

	paid, err := l.settle(ctx, &stream)
	if paid.Total() > 0 {
		rec.stream = stream
		l.persist(stream)

		l.evHandler("ledger: Settle: id[%d] by[%s] recipient[%d] sender[%d] status[%s]", id, caller, paid.Recipient, paid.Sender, stream.Status)
	}

	return paid, err
}

// =============================================================================

// settle delivers the pending legs of the stream, recipient first, skipping
// legs of zero. Delivered legs are cleared from the stream and the stream is
// marked cancelled once nothing is pending.
func (l *Ledger) settle(ctx context.Context, stream *Stream) (Split, error) {
	var paid Split

	if stream.PendingRecipient > 0 {
		if err := l.payOut(ctx, stream.Recipient, stream.Asset, stream.PendingRecipient); err != nil {
			return paid, fmt.Errorf("recipient payout: %w", err)
		}
		paid.Recipient = stream.PendingRecipient
		stream.PendingRecipient = 0
	}

	if stream.PendingSender > 0 {
		if err := l.payOut(ctx, stream.Sender, stream.Asset, stream.PendingSender); err != nil {
			return paid, fmt.Errorf("sender payout: %w", err)
		}
		paid.Sender = stream.PendingSender
		stream.Refunded += stream.PendingSender
		stream.PendingSender = 0
	}

	stream.Status = StatusCancelled

	return paid, nil
}

// payOut reserves the amount against the aggregate custody for the asset
// and asks the transfer service to deliver it. The reservation is returned
// if the transfer fails.
func (l *Ledger) payOut(ctx context.Context, to account.ID, asset string, amount uint64) error {
	if err := l.reserve(asset, amount); err != nil {
		return err
	}

	if err := l.transfer.TransferOut(ctx, to, asset, amount); err != nil {
		l.credit(asset, amount)
		return fmt.Errorf("%w: payout to %s: %w", ErrTransferFailed, to, err)
	}

	return nil
}

// reserve removes the amount from the aggregate custody of the asset.
func (l *Ledger) reserve(asset string, amount uint64) error {
	l.custodyMu.Lock()
	defer l.custodyMu.Unlock()

	held := l.custody[asset]
	if held < amount {
		return fmt.Errorf("%w: custody for %s holds %d, payout needs %d", ErrTransferFailed, asset, held, amount)
	}

	l.custody[asset] = held - amount
	return nil
}

// credit adds the amount to the aggregate custody of the asset.
func (l *Ledger) credit(asset string, amount uint64) {
	l.custodyMu.Lock()
	defer l.custodyMu.Unlock()

	l.custody[asset] += amount
}

package state

import (
	"context"
	"fmt"

	"github.com/ardanlabs/streamledger/foundation/stream/ledger"
	"github.com/ardanlabs/streamledger/foundation/stream/request"
)

// Result represents the outcome of an action against a stream. Split is
// only set for cancel and settle and holds what was delivered.
type Result struct {
	Stream ledger.Stream
	Split  *ledger.Split
}

// SubmitCreate verifies the signed request and creates the stream with the
// signer as the sender.
func (s *State) SubmitCreate(ctx context.Context, sr request.Signed[request.Create], now uint64) (ledger.Stream, error) {
	signer, err := request.Verify(s.verifier, sr)
	if err != nil {
		return ledger.Stream{}, err
	}
	signer = normalize(signer)

	p := sr.Payload

	if _, exists := s.vault.Asset(p.Asset); !exists {
		return ledger.Stream{}, fmt.Errorf("%w: unknown asset %q", ledger.ErrInvalidParameters, p.Asset)
	}

	id, err := s.ledger.CreateStream(ctx, signer, normalize(p.Recipient), p.Asset, p.Deposit, p.StartTime, p.StopTime, now)
	if err != nil {
		return ledger.Stream{}, err
	}

	stream, err := s.ledger.Stream(id)
	if err != nil {
		return ledger.Stream{}, err
	}

	s.notify(ctx, Change{
		Kind:     ChangeCreated,
		StreamID: id,
		Caller:   signer,
		Amount:   p.Deposit,
		Time:     now,
		Stream:   stream,
	})

	return stream, nil
}

// SubmitAction verifies the signed request and applies the withdraw, cancel
// or settle it asks for. A cancel or settle that delivered only part of the
// split returns the result along with the error.
func (s *State) SubmitAction(ctx context.Context, sr request.Signed[request.Action], now uint64) (Result, error) {
	signer, err := request.Verify(s.verifier, sr)
	if err != nil {
		return Result{}, err
	}
	signer = normalize(signer)

	p := sr.Payload

	change := Change{
		StreamID: p.StreamID,
		Caller:   signer,
		Time:     now,
	}

	var opErr error

	switch p.Kind {
	case request.KindWithdraw:
		if err := s.ledger.Withdraw(ctx, p.StreamID, signer, p.Amount, now); err != nil {
			return Result{}, err
		}
		change.Kind = ChangeWithdrawn
		change.Amount = p.Amount

	case request.KindCancel:
		split, err := s.ledger.Cancel(ctx, p.StreamID, signer, now)
		if err != nil && split.Total() == 0 {
			return Result{}, err
		}
		change.Kind = ChangeCancelled
		change.Split = &split
		opErr = err

	case request.KindSettle:
		split, err := s.ledger.Settle(ctx, p.StreamID, signer)
		if err != nil && split.Total() == 0 {
			return Result{}, err
		}
		change.Kind = ChangeSettled
		change.Split = &split
		opErr = err

	default:
		return Result{}, fmt.Errorf("%w: unknown action %q", ledger.ErrInvalidParameters, p.Kind)
	}

	stream, err := s.ledger.Stream(p.StreamID)
	if err != nil {
		return Result{}, err
	}
	change.Stream = stream

	s.notify(ctx, change)

	return Result{Stream: stream, Split: change.Split}, opErr
}

// Package ledger is the core API for payment streams. It owns every stream
// record, computes accrued balances and executes the create, withdraw and
// cancel operations against an external value transfer service.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ardanlabs/streamledger/foundation/stream/account"
)

// EventHandler defines a function that is called when events
// occur in the processing of streams.
type EventHandler func(v string, args ...any)

// Transfer interface represents the behavior required to be implemented by
// any package moving value in and out of ledger custody. A returned error
// must guarantee no value was moved.
type Transfer interface {
	TransferIn(ctx context.Context, from account.ID, asset string, amount uint64) error
	TransferOut(ctx context.Context, to account.ID, asset string, amount uint64) error
}

// Serializer interface represents the behavior required to be implemented by
// any package providing support for storing and reading stream records.
type Serializer interface {
	Write(stream Stream) error
	ForEach() Iterator
	Close() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the stored streams.
type Iterator interface {
	Next() (Stream, error)
	Done() bool
}

// =============================================================================

// Config represents the configuration required to construct the ledger.
type Config struct {
	Account    account.ID
	Transfer   Transfer
	Serializer Serializer
	EvHandler  EventHandler
}

// record binds a stream to the mutex that serializes its operations.
type record struct {
	mu     sync.Mutex
	stream Stream
}

// Ledger manages the set of streams.
type Ledger struct {
	account    account.ID
	transfer   Transfer
	serializer Serializer
	evHandler  EventHandler

	lastID atomic.Uint64

	mu      sync.RWMutex
	streams map[uint64]*record

	custodyMu sync.Mutex
	custody   map[string]uint64
}

// New constructs a ledger and restores any streams held by the serializer.
func New(cfg Config) (*Ledger, error) {
	if !cfg.Account.IsID() || cfg.Account.IsZero() {
		return nil, fmt.Errorf("invalid ledger account %q", cfg.Account)
	}

	if cfg.Transfer == nil {
		return nil, errors.New("transfer service is required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	l := Ledger{
		account:    cfg.Account,
		transfer:   cfg.Transfer,
		serializer: cfg.Serializer,
		evHandler:  ev,
		streams:    make(map[uint64]*record),
		custody:    make(map[string]uint64),
	}

	if l.serializer == nil {
		return &l, nil
	}

	iter := l.serializer.ForEach()
	for stream, err := iter.Next(); !iter.Done(); stream, err = iter.Next() {
		if err != nil {
			return nil, fmt.Errorf("reading stream: %w", err)
		}

		if err := stream.validate(); err != nil {
			return nil, fmt.Errorf("restoring stream %d: %w", stream.ID, err)
		}

		if _, exists := l.streams[stream.ID]; exists {
			return nil, fmt.Errorf("duplicate stream id %d in storage", stream.ID)
		}

		l.streams[stream.ID] = &record{stream: stream}
		l.custody[stream.Asset] += stream.held()

		if stream.ID > l.lastID.Load() {
			l.lastID.Store(stream.ID)
		}
	}

	ev("ledger: New: restored streams[%d] lastID[%d]", len(l.streams), l.lastID.Load())

	return &l, nil
}

// Close releases the serializer.
func (l *Ledger) Close() error {
	if l.serializer == nil {
		return nil
	}
	return l.serializer.Close()
}

// Account returns the account the ledger holds custody under.
func (l *Ledger) Account() account.ID {
	return l.account
}

// CreateStream locks the deposit in custody and records a new stream. The
// checks are performed in a fixed order and nothing changes on failure.
func (l *Ledger) CreateStream(ctx context.Context, sender account.ID, recipient account.ID, asset string, deposit uint64, startTime uint64, stopTime uint64, now uint64) (uint64, error) {
	switch {
	case !recipient.IsID() || recipient.IsZero():
		return 0, fmt.Errorf("%w: invalid recipient %q", ErrInvalidParameters, recipient)

	case recipient.Equal(sender):
		return 0, fmt.Errorf("%w: recipient is the sender", ErrInvalidParameters)

	case recipient.Equal(l.account):
		return 0, fmt.Errorf("%w: recipient is the ledger", ErrInvalidParameters)

	case deposit == 0:
		return 0, fmt.Errorf("%w: deposit must be positive", ErrInvalidParameters)

	case startTime < now:
		return 0, fmt.Errorf("%w: start time %d is before now %d", ErrInvalidParameters, startTime, now)

	case stopTime <= startTime:
		return 0, fmt.Errorf("%w: stop time %d is not after start time %d", ErrInvalidParameters, stopTime, startTime)
	}

	rate := deposit / (stopTime - startTime)
	if rate == 0 {
		return 0, fmt.Errorf("%w: deposit %d is smaller than duration %d", ErrInvalidParameters, deposit, stopTime-startTime)
	}

	switch {
	case !sender.IsID() || sender.IsZero() || sender.Equal(l.account):
		return 0, fmt.Errorf("%w: invalid sender %q", ErrInvalidParameters, sender)

	case asset == "":
		return 0, fmt.Errorf("%w: asset is required", ErrInvalidParameters)
	}

	if err := l.transfer.TransferIn(ctx, sender, asset, deposit); err != nil {
		return 0, fmt.Errorf("%w: deposit from %s: %w", ErrTransferFailed, sender, err)
	}

	stream := Stream{
		ID:            l.lastID.Add(1),
		Sender:        sender,
		Recipient:     recipient,
		Asset:         asset,
		Deposit:       deposit,
		StartTime:     startTime,
		StopTime:      stopTime,
		RatePerSecond: rate,
		Status:        StatusActive,
	}

	// An id is only handed out once its record is stored.
	if l.serializer != nil {
		if err := l.serializer.Write(stream); err != nil {
			l.lastID.CompareAndSwap(stream.ID, stream.ID-1)
			return 0, l.refund(ctx, stream, err)
		}
	}

	l.mu.Lock()
	{
		l.streams[stream.ID] = &record{stream: stream}
	}
	l.mu.Unlock()

	l.credit(asset, deposit)

	l.evHandler("ledger: CreateStream: id[%d] sender[%s] recipient[%s] asset[%s] deposit[%d] rate[%d]", stream.ID, sender, recipient, asset, deposit, rate)

	return stream.ID, nil
}

// AccruedBalance returns the total amount earned by the recipient of the
// specified stream at the specified time.
func (l *Ledger) AccruedBalance(id uint64, now uint64) (uint64, error) {
	rec, err := l.record(id)
	if err != nil {
		return 0, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if !rec.stream.Active() {
		return 0, fmt.Errorf("%w: stream %d is %s", ErrInactive, id, rec.stream.Status)
	}

	return rec.stream.AccruedAt(now), nil
}

// =============================================================================

// record locates the record for the specified stream id.
func (l *Ledger) record(id uint64) (*record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, exists := l.streams[id]
	if !exists {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	return rec, nil
}

// refund returns the deposit of a stream that could not be stored. When the
// refund fails too, the deposit stays in the custody account without a
// record and is reported.
func (l *Ledger) refund(ctx context.Context, stream Stream, storeErr error) error {
	l.evHandler("ledger: CreateStream: id[%d] sender[%s]: WARNING: storing stream: %s", stream.ID, stream.Sender, storeErr)

	if err := l.transfer.TransferOut(ctx, stream.Sender, stream.Asset, stream.Deposit); err != nil {
		l.evHandler("ledger: CreateStream: sender[%s] asset[%s] deposit[%d]: ERROR: refund: %s", stream.Sender, stream.Asset, stream.Deposit, err)
		return fmt.Errorf("%w: storing stream: %w: refund: %w", ErrStorage, storeErr, err)
	}

	return fmt.Errorf("%w: storing stream: %w", ErrStorage, storeErr)
}

// persist writes the stream to the serializer. The caller must hold the
// record lock so writes for a stream happen in order. A failure here can't
// undo a transfer that already happened, so it's reported and not returned.
func (l *Ledger) persist(stream Stream) {
	if l.serializer == nil {
		return
	}

	if err := l.serializer.Write(stream); err != nil {
		l.evHandler("ledger: persist: id[%d]: WARNING: %s", stream.ID, err)
	}
}

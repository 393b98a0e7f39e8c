// Package state is the core API for the stream ledger node. It binds the
// custody vault, the ledger and request verification together and notifies
// interested parties of every change.
package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/ardanlabs/streamledger/foundation/stream/account"
	"github.com/ardanlabs/streamledger/foundation/stream/custody"
	"github.com/ardanlabs/streamledger/foundation/stream/genesis"
	"github.com/ardanlabs/streamledger/foundation/stream/ledger"
	"github.com/ardanlabs/streamledger/foundation/stream/request"
)

// EventHandler defines a function that is called when events
// occur in the processing of streams.
type EventHandler func(v string, args ...any)

// Notifier interface represents the behavior required to be implemented by
// any package that wants to receive the changes applied to streams.
type Notifier interface {
	Notify(ctx context.Context, change Change) error
}

// NotifierFunc allows an ordinary function to be used as a Notifier.
type NotifierFunc func(ctx context.Context, change Change) error

// Notify calls f(ctx, change).
func (f NotifierFunc) Notify(ctx context.Context, change Change) error {
	return f(ctx, change)
}

// =============================================================================

// Config represents the configuration required to start the node.
type Config struct {
	Genesis    genesis.Genesis
	Serializer ledger.Serializer
	EvHandler  EventHandler
}

// State manages the streams and the balances of the node.
type State struct {
	genesis   genesis.Genesis
	evHandler EventHandler

	vault    *custody.Vault
	ledger   *ledger.Ledger
	verifier *request.Verifier

	mu        sync.RWMutex
	notifiers []Notifier
}

// New constructs the node state, restoring the streams held by the
// serializer and the balances they imply.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	vault, err := custody.New(cfg.Genesis)
	if err != nil {
		return nil, fmt.Errorf("constructing vault: %w", err)
	}

	ldgr, err := ledger.New(ledger.Config{
		Account:    vault.Ledger(),
		Transfer:   vault,
		Serializer: cfg.Serializer,
		EvHandler:  ledger.EventHandler(ev),
	})
	if err != nil {
		return nil, fmt.Errorf("constructing ledger: %w", err)
	}

	// The vault starts from the genesis balances. Apply the value every
	// restored stream moved so both agree on what custody holds.
	for _, stream := range ldgr.Streams("") {
		if err := vault.Replay(stream.Sender, vault.Ledger(), stream.Asset, stream.Deposit); err != nil {
			return nil, fmt.Errorf("replaying deposit for stream %d: %w", stream.ID, err)
		}

		delivered := stream.Delivered()
		if err := vault.Replay(vault.Ledger(), stream.Recipient, stream.Asset, delivered.Recipient); err != nil {
			return nil, fmt.Errorf("replaying recipient payouts for stream %d: %w", stream.ID, err)
		}
		if err := vault.Replay(vault.Ledger(), stream.Sender, stream.Asset, delivered.Sender); err != nil {
			return nil, fmt.Errorf("replaying sender refund for stream %d: %w", stream.ID, err)
		}
	}

	s := State{
		genesis:   cfg.Genesis,
		evHandler: ev,
		vault:     vault,
		ledger:    ldgr,
		verifier:  request.NewVerifier(cfg.Genesis.ChainID),
	}

	return &s, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: Shutdown: started")
	defer s.evHandler("state: Shutdown: completed")

	return s.ledger.Close()
}

// AddNotifier registers a notifier for every future change.
func (s *State) AddNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifiers = append(s.notifiers, n)
}

// =============================================================================

// notify hands the change to every notifier. Notifier failures are reported
// as events since the change is already committed.
func (s *State) notify(ctx context.Context, change Change) {
	s.mu.RLock()
	notifiers := make([]Notifier, len(s.notifiers))
	copy(notifiers, s.notifiers)
	s.mu.RUnlock()

	for _, n := range notifiers {
		if err := n.Notify(ctx, change); err != nil {
			s.evHandler("state: notify: kind[%s] id[%d]: WARNING: %s", change.Kind, change.StreamID, err)
		}
	}
}

// normalize returns the checksum form of a valid account so every stream
// stores its parties the same way.
func normalize(id account.ID) account.ID {
	normal, err := account.ToID(string(id))
	if err != nil {
		return id
	}
	return normal
}

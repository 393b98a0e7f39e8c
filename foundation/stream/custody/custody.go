// Package custody implements the value transfer service used by the stream
// ledger. It maintains balances per account and asset, seeded from the
// genesis file, and moves value in and out of the ledger account.
package custody

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/ardanlabs/streamledger/foundation/stream/account"
	"github.com/ardanlabs/streamledger/foundation/stream/genesis"
)

// Set of errors returned by the vault.
var (
	ErrUnknownAsset        = errors.New("custody: unknown asset")
	ErrInsufficientBalance = errors.New("custody: insufficient balance")
	ErrOverflow            = errors.New("custody: balance overflow")
)

// Vault manages the balances for every account.
type Vault struct {
	ledger account.ID
	assets map[string]genesis.Asset

	mu       sync.RWMutex
	balances map[account.ID]map[string]uint64
}

// New constructs a vault from the genesis information.
func New(gen genesis.Genesis) (*Vault, error) {
	ledgerID, err := account.ToID(gen.Ledger)
	if err != nil {
		return nil, fmt.Errorf("ledger account: %w", err)
	}

	v := Vault{
		ledger:   ledgerID,
		assets:   make(map[string]genesis.Asset, len(gen.Assets)),
		balances: make(map[account.ID]map[string]uint64),
	}

	for symbol, asset := range gen.Assets {
		v.assets[symbol] = asset
	}

	for acctStr, balances := range gen.Balances {
		acct, err := account.ToID(acctStr)
		if err != nil {
			return nil, fmt.Errorf("genesis account %q: %w", acctStr, err)
		}

		for asset, amount := range balances {
			if _, exists := v.assets[asset]; !exists {
				return nil, fmt.Errorf("%w: %q", ErrUnknownAsset, asset)
			}
			v.account(acct)[asset] = amount
		}
	}

	return &v, nil
}

// Ledger returns the account holding custody for the streams.
func (v *Vault) Ledger() account.ID {
	return v.ledger
}

// Asset returns the information for the specified asset.
func (v *Vault) Asset(symbol string) (genesis.Asset, bool) {
	asset, exists := v.assets[symbol]
	return asset, exists
}

// TransferIn moves value from the account into ledger custody.
func (v *Vault) TransferIn(ctx context.Context, from account.ID, asset string, amount uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return v.move(from, v.ledger, asset, amount)
}

// TransferOut moves value from ledger custody to the account.
func (v *Vault) TransferOut(ctx context.Context, to account.ID, asset string, amount uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return v.move(v.ledger, to, asset, amount)
}

// Replay applies a movement of value that already happened in a previous
// run of the service. It's used to rebuild balances from persisted streams.
func (v *Vault) Replay(from account.ID, to account.ID, asset string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	return v.move(from, to, asset, amount)
}

// Balance returns the balance of the asset held by the account.
func (v *Vault) Balance(acct account.ID, asset string) uint64 {
	id, err := account.ToID(string(acct))
	if err != nil {
		return 0
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.balances[id][asset]
}

// Balances returns a copy of every balance held by the account.
func (v *Vault) Balances(acct account.ID) map[string]uint64 {
	balances := make(map[string]uint64)

	id, err := account.ToID(string(acct))
	if err != nil {
		return balances
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	for asset, amount := range v.balances[id] {
		balances[asset] = amount
	}
	return balances
}

// =============================================================================

// move performs the business logic for moving value between two accounts.
// Nothing changes if any check fails.
func (v *Vault) move(from account.ID, to account.ID, asset string, amount uint64) error {
	if _, exists := v.assets[asset]; !exists {
		return fmt.Errorf("%w: %q", ErrUnknownAsset, asset)
	}

	fromID, err := account.ToID(string(from))
	if err != nil {
		return fmt.Errorf("from account: %w", err)
	}

	toID, err := account.ToID(string(to))
	if err != nil {
		return fmt.Errorf("to account: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	fromBal := v.balances[fromID][asset]
	if fromBal < amount {
		return fmt.Errorf("%w: %s holds %d %s, needs %d", ErrInsufficientBalance, fromID, fromBal, asset, amount)
	}

	toBal := v.balances[toID][asset]
	if fromID != toID && toBal > math.MaxUint64-amount {
		return fmt.Errorf("%w: %s", ErrOverflow, toID)
	}

	v.account(fromID)[asset] = fromBal - amount
	v.account(toID)[asset] += amount

	return nil
}

// account returns the balances for the account, creating them if needed.
// The caller must hold the write lock or be constructing the vault.
func (v *Vault) account(acct account.ID) map[string]uint64 {
	balances, exists := v.balances[acct]
	if !exists {
		balances = make(map[string]uint64)
		v.balances[acct] = balances
	}
	return balances
}

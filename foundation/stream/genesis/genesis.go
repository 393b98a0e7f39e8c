// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Asset describes a fungible value type that can be streamed.
type Asset struct {
	Name     string `json:"name"`
	Decimals int32  `json:"decimals"` // Number of decimal places used when displaying amounts.
}

// Genesis represents the genesis file.
type Genesis struct {
	Date     time.Time                    `json:"date"`
	ChainID  uint16                       `json:"chain_id"` // Signed requests must carry this id.
	Ledger   string                       `json:"ledger"`   // Account that holds custody for the streams.
	Assets   map[string]Asset             `json:"assets"`
	Balances map[string]map[string]uint64 `json:"balances"` // Starting balances by account and asset.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Validate checks every balance refers to a known asset.
func (g Genesis) Validate() error {
	if g.Ledger == "" {
		return fmt.Errorf("genesis: ledger account is required")
	}

	for acct, balances := range g.Balances {
		for asset := range balances {
			if _, exists := g.Assets[asset]; !exists {
				return fmt.Errorf("genesis: account %s holds unknown asset %q", acct, asset)
			}
		}
	}

	return nil
}

// Package nameservice reads the zblock/accounts folder and creates a name
// service lookup for the stream ledger accounts.
package nameservice

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/streamledger/foundation/stream/account"
	"github.com/ethereum/go-ethereum/crypto"
)

// NameService maintains a map of accounts for name lookup.
type NameService struct {
	accounts map[account.ID]string
}

// New constructs a name service with accounts from the key files found
// under the root folder.
func New(root string) (*NameService, error) {
	ns := NameService{
		accounts: make(map[account.ID]string),
	}

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if d.IsDir() || filepath.Ext(fileName) != ".ecdsa" {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return fmt.Errorf("loading %s: %w", fileName, err)
		}

		id := account.PublicKeyToID(privateKey.PublicKey)
		ns.accounts[id] = strings.TrimSuffix(filepath.Base(fileName), ".ecdsa")

		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified account. The account is
// returned as is when no name is known.
func (ns *NameService) Lookup(id account.ID) string {
	normal, err := account.ToID(string(id))
	if err != nil {
		return string(id)
	}

	name, exists := ns.accounts[normal]
	if !exists {
		return string(id)
	}
	return name
}

// Copy returns a copy of the map of names and accounts.
func (ns *NameService) Copy() map[account.ID]string {
	cpy := make(map[account.ID]string, len(ns.accounts))
	for id, name := range ns.accounts {
		cpy[id] = name
	}
	return cpy
}

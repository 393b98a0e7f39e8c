// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/ardanlabs/streamledger/foundation/stream/account"
	"github.com/ardanlabs/streamledger/foundation/stream/state"
)

// ErrHelp is returned when no known command was provided.
var ErrHelp = errors.New("provide a command")

// Balances prints the vault balances of the account.
func Balances(w io.Writer, acct string, st *state.State) error {
	id, err := account.ToID(acct)
	if err != nil {
		return fmt.Errorf("account %q: %w", acct, err)
	}

	balances := st.RetrieveBalances(id)

	assets := make([]string, 0, len(balances))
	for asset := range balances {
		assets = append(assets, asset)
	}
	slices.Sort(assets)

	fmt.Fprintf(w, "Account: %s\n\n", id)
	for _, asset := range assets {
		fmt.Fprintf(w, "Asset: %-6s Balance: %d\n", asset, balances[asset])
	}

	return nil
}

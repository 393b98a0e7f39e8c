package commands

import (
	"fmt"
	"io"
	"slices"

	"github.com/ardanlabs/streamledger/foundation/stream/account"
	"github.com/ardanlabs/streamledger/foundation/stream/state"
)

// Streams prints the persisted streams, optionally only the ones the
// account is a party to.
func Streams(w io.Writer, acct string, st *state.State) error {
	var id account.ID
	if acct != "" {
		var err error
		if id, err = account.ToID(acct); err != nil {
			return fmt.Errorf("account %q: %w", acct, err)
		}
	}

	for _, s := range st.RetrieveStreams(id) {
		fmt.Fprintf(w, "ID: %d  Status: %s  From: %s  To: %s  Asset: %s  Deposit: %d  Withdrawn: %d  Rate: %d/s  Window: %d-%d\n",
			s.ID, s.Status, s.Sender, s.Recipient, s.Asset, s.Deposit, s.Withdrawn, s.RatePerSecond, s.StartTime, s.StopTime)
	}

	return nil
}

// Custody prints the aggregate custody per asset next to what the open
// streams still hold and what the ledger account holds in the vault. The
// three must agree.
func Custody(w io.Writer, st *state.State) error {
	custody := st.RetrieveCustody()
	vault := st.RetrieveBalances(st.RetrieveLedgerAccount())

	held := make(map[string]uint64)
	for _, s := range st.RetrieveStreams("") {
		d := s.Delivered()
		held[s.Asset] += s.Deposit - d.Recipient - d.Sender
	}

	assets := make([]string, 0, len(custody))
	for asset := range custody {
		assets = append(assets, asset)
	}
	for asset := range vault {
		if _, exists := custody[asset]; !exists {
			assets = append(assets, asset)
		}
	}
	slices.Sort(assets)

	var mismatch bool
	for _, asset := range assets {
		status := "ok"
		if custody[asset] != held[asset] || custody[asset] != vault[asset] {
			status = "MISMATCH"
			mismatch = true
		}
		fmt.Fprintf(w, "Asset: %-6s Custody: %d  Streams: %d  Vault: %d  %s\n", asset, custody[asset], held[asset], vault[asset], status)
	}

	if mismatch {
		return fmt.Errorf("custody does not match the streams")
	}

	return nil
}

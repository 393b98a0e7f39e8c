package custody_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ardanlabs/streamledger/foundation/stream/account"
	"github.com/ardanlabs/streamledger/foundation/stream/custody"
	"github.com/ardanlabs/streamledger/foundation/stream/genesis"
	"github.com/ardanlabs/streamledger/foundation/stream/ledger"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	ledgerID    = "0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8"
	senderID    = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
	recipientID = "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32"
)

func newVault(t *testing.T) *custody.Vault {
	gen := genesis.Genesis{
		Ledger: ledgerID,
		Assets: map[string]genesis.Asset{"ARD": {Name: "Ardan Dollar", Decimals: 2}},
		Balances: map[string]map[string]uint64{
			senderID: {"ARD": 5000},
		},
	}

	v, err := custody.New(gen)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the vault: %v", failed, err)
	}
	return v
}

func TestTransfers(t *testing.T) {
	t.Log("Given the need to move value in and out of custody.")
	{
		ctx := context.Background()
		v := newVault(t)

		if err := v.TransferIn(ctx, senderID, "ARD", 3600); err != nil {
			t.Fatalf("\t%s\tShould be able to transfer in: %v", failed, err)
		}
		if v.Balance(senderID, "ARD") != 1400 || v.Balance(ledgerID, "ARD") != 3600 {
			t.Fatalf("\t%s\tShould move the value to the ledger account.", failed)
		}
		t.Logf("\t%s\tShould move the value to the ledger account.", success)

		if err := v.TransferIn(ctx, senderID, "ARD", 3600); !errors.Is(err, custody.ErrInsufficientBalance) {
			t.Fatalf("\t%s\tShould reject an overdraft: %v", failed, err)
		}
		if v.Balance(senderID, "ARD") != 1400 {
			t.Fatalf("\t%s\tShould not move value on failure.", failed)
		}
		t.Logf("\t%s\tShould reject an overdraft without moving value.", success)

		if err := v.TransferOut(ctx, recipientID, "XYZ", 1); !errors.Is(err, custody.ErrUnknownAsset) {
			t.Fatalf("\t%s\tShould reject unknown assets: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject unknown assets.", success)

		if err := v.TransferOut(ctx, "0xf01813e4b85e178a83e29b8e7bf26bd830a25f32", "ARD", 600); err != nil {
			t.Fatalf("\t%s\tShould be able to transfer out: %v", failed, err)
		}
		if v.Balances(recipientID)["ARD"] != 600 || v.Balance(ledgerID, "ARD") != 3000 {
			t.Fatalf("\t%s\tShould credit the recipient regardless of address casing.", failed)
		}
		t.Logf("\t%s\tShould credit the recipient regardless of address casing.", success)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		if err := v.TransferOut(cancelled, recipientID, "ARD", 1); !errors.Is(err, context.Canceled) {
			t.Fatalf("\t%s\tShould honor a cancelled context: %v", failed, err)
		}
		t.Logf("\t%s\tShould honor a cancelled context.", success)
	}
}

func TestLedgerWithVault(t *testing.T) {
	t.Log("Given the need to run a stream against the vault.")
	{
		ctx := context.Background()
		v := newVault(t)

		l, err := ledger.New(ledger.Config{Account: v.Ledger(), Transfer: v})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the ledger: %v", failed, err)
		}

		const start = 1_700_000_000

		if _, err := l.CreateStream(ctx, senderID, recipientID, "ARD", 6000, start, start+3000, start); !errors.Is(err, ledger.ErrTransferFailed) {
			t.Fatalf("\t%s\tShould fail to lock more than the sender holds: %v", failed, err)
		}
		t.Logf("\t%s\tShould fail to lock more than the sender holds.", success)

		id, err := l.CreateStream(ctx, senderID, recipientID, "ARD", 3600, start, start+3600, start)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to create the stream: %v", failed, err)
		}

		if err := l.Withdraw(ctx, id, account.ID(recipientID), 1000, start+1000); err != nil {
			t.Fatalf("\t%s\tShould be able to withdraw: %v", failed, err)
		}

		if _, err := l.Cancel(ctx, id, account.ID(senderID), start+1800); err != nil {
			t.Fatalf("\t%s\tShould be able to cancel: %v", failed, err)
		}

		if got := v.Balance(recipientID, "ARD"); got != 1800 {
			t.Fatalf("\t%s\tShould have paid the recipient 1800, got %d.", failed, got)
		}
		if got := v.Balance(senderID, "ARD"); got != 3200 {
			t.Fatalf("\t%s\tShould have refunded the sender to 3200, got %d.", failed, got)
		}
		if got := v.Balance(ledgerID, "ARD"); got != 0 {
			t.Fatalf("\t%s\tShould leave nothing in the ledger account, got %d.", failed, got)
		}
		t.Logf("\t%s\tShould settle every balance.", success)
	}
}

package commands_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/ardanlabs/streamledger/app/tooling/admin/commands"
	"github.com/ardanlabs/streamledger/foundation/stream/account"
	"github.com/ardanlabs/streamledger/foundation/stream/genesis"
	"github.com/ardanlabs/streamledger/foundation/stream/ledger"
	"github.com/ardanlabs/streamledger/foundation/stream/request"
	"github.com/ardanlabs/streamledger/foundation/stream/state"
	"github.com/ardanlabs/streamledger/foundation/stream/storage/disk"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	senderID = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
)

func TestCommands(t *testing.T) {
	t.Log("Given the need to inspect persisted streams offline.")
	{
		gen := genesis.Genesis{
			ChainID:  1,
			Ledger:   "0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8",
			Assets:   map[string]genesis.Asset{"ARD": {Name: "Ardan Dollar", Decimals: 2}},
			Balances: map[string]map[string]uint64{senderID: {"ARD": 5000}},
		}

		strg, err := disk.New(t.TempDir())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the storage: %v", failed, err)
		}

		st, err := state.New(state.Config{Genesis: gen, Serializer: strg})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
		}

		pk, err := crypto.HexToECDSA(pkHexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the key: %v", failed, err)
		}

		other, err := crypto.GenerateKey()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a key: %v", failed, err)
		}
		recipient := account.PublicKeyToID(other.PublicKey)

		const now = 1_700_000_000
		sr, err := request.Sign(request.Create{
			Header:    request.Header{ChainID: 1, Nonce: 1},
			Recipient: recipient,
			Asset:     "ARD",
			Deposit:   3600,
			StartTime: now,
			StopTime:  now + 3600,
		}, pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the create: %v", failed, err)
		}

		if _, err := st.SubmitCreate(context.Background(), sr, now); err != nil {
			t.Fatalf("\t%s\tShould be able to create the stream: %v", failed, err)
		}

		var buf bytes.Buffer
		if err := commands.Streams(&buf, senderID, st); err != nil {
			t.Fatalf("\t%s\tShould be able to list streams: %v", failed, err)
		}
		if !strings.Contains(buf.String(), "Status: "+string(ledger.StatusActive)) {
			t.Fatalf("\t%s\tShould list the active stream, got %q.", failed, buf.String())
		}
		t.Logf("\t%s\tShould list the active stream.", success)

		buf.Reset()
		if err := commands.Balances(&buf, senderID, st); err != nil {
			t.Fatalf("\t%s\tShould be able to list balances: %v", failed, err)
		}
		if !strings.Contains(buf.String(), "Balance: 1400") {
			t.Fatalf("\t%s\tShould show the sender balance, got %q.", failed, buf.String())
		}
		t.Logf("\t%s\tShould show the sender balance.", success)

		buf.Reset()
		if err := commands.Custody(&buf, st); err != nil {
			t.Fatalf("\t%s\tShould find custody consistent: %v\n%s", failed, err, buf.String())
		}
		t.Logf("\t%s\tShould find custody consistent.", success)

		if err := commands.Balances(&buf, "bad", st); err == nil {
			t.Fatalf("\t%s\tShould reject a bad account.", failed)
		}
		t.Logf("\t%s\tShould reject a bad account.", success)
	}
}

package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/ardanlabs/streamledger/foundation/stream/account"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// counter is a transfer service used for testing that accepts every
// transfer and counts the payouts.
type counter struct {
	out uint64
}

func (c *counter) TransferIn(ctx context.Context, from account.ID, asset string, amount uint64) error {
	return nil
}

func (c *counter) TransferOut(ctx context.Context, to account.ID, asset string, amount uint64) error {
	c.out += amount
	return nil
}

func TestPayoutBoundedByCustody(t *testing.T) {
	t.Log("Given the need to never pay out more than custody holds for an asset.")
	{
		const (
			ledgerID    account.ID = "0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8"
			senderID    account.ID = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
			recipientID account.ID = "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32"
		)
		const start uint64 = 1_700_000_000

		ctx := context.Background()
		tr := counter{}

		l, err := New(Config{Account: ledgerID, Transfer: &tr})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the ledger: %v", failed, err)
		}

		id, err := l.CreateStream(ctx, senderID, recipientID, "ARD", 3600, start, start+3600, start)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to create the stream: %v", failed, err)
		}

		l.custodyMu.Lock()
		l.custody["ARD"] = 100
		l.custodyMu.Unlock()

		if err := l.Withdraw(ctx, id, recipientID, 500, start+1000); !errors.Is(err, ErrTransferFailed) {
			t.Fatalf("\t%s\tShould reject a withdraw beyond custody: %v", failed, err)
		}

		stream, _ := l.Stream(id)
		if stream.Withdrawn != 0 || l.Custody()["ARD"] != 100 || tr.out != 0 {
			t.Fatalf("\t%s\tShould leave the stream and custody untouched, got %+v custody %d paid %d.", failed, stream, l.Custody()["ARD"], tr.out)
		}
		t.Logf("\t%s\tShould reject a withdraw beyond custody without moving value.", success)

		if _, err := l.Cancel(ctx, id, senderID, start+1000); !errors.Is(err, ErrTransferFailed) {
			t.Fatalf("\t%s\tShould reject a cancel beyond custody: %v", failed, err)
		}

		stream, _ = l.Stream(id)
		if !stream.Active() || l.Custody()["ARD"] != 100 || tr.out != 0 {
			t.Fatalf("\t%s\tShould keep the stream active, got %+v custody %d paid %d.", failed, stream, l.Custody()["ARD"], tr.out)
		}
		t.Logf("\t%s\tShould reject a cancel beyond custody without moving value.", success)

		if err := l.Withdraw(ctx, id, recipientID, 100, start+1000); err != nil {
			t.Fatalf("\t%s\tShould pay out what custody still holds: %v", failed, err)
		}
		if l.Custody()["ARD"] != 0 || tr.out != 100 {
			t.Fatalf("\t%s\tShould drain custody exactly, got custody %d paid %d.", failed, l.Custody()["ARD"], tr.out)
		}
		t.Logf("\t%s\tShould pay out what custody still holds.", success)
	}
}

package nameservice_test

import (
	"testing"

	"github.com/ardanlabs/streamledger/foundation/nameservice"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestLookup(t *testing.T) {
	t.Log("Given the need to name accounts from key files.")
	{
		ns, err := nameservice.New("../../zblock/accounts")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the key files: %v", failed, err)
		}

		if got := ns.Lookup("0xdd6b972ffcc631a62cae1bb9d80b7ff429c8eba4"); got != "kennedy" {
			t.Fatalf("\t%s\tShould find the name regardless of casing, got %q.", failed, got)
		}
		t.Logf("\t%s\tShould find the name regardless of casing.", success)

		const unknown = "0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76"
		if got := ns.Lookup(unknown); got != unknown {
			t.Fatalf("\t%s\tShould return unknown accounts as is, got %q.", failed, got)
		}
		t.Logf("\t%s\tShould return unknown accounts as is.", success)
	}
}

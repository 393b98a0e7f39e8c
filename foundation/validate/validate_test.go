package validate_test

import (
	"testing"

	"github.com/ardanlabs/streamledger/foundation/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type payload struct {
	Asset    string `json:"asset" validate:"required"`
	Kind     string `json:"kind" validate:"oneof=withdraw cancel settle"`
	Start    uint64 `json:"start_time" validate:"required"`
	Stop     uint64 `json:"stop_time" validate:"required,gtfield=Start"`
	Internal string `json:"-"`
}

func TestCheck(t *testing.T) {
	t.Log("Given the need to validate request payloads.")
	{
		good := payload{Asset: "ARD", Kind: "cancel", Start: 10, Stop: 20}
		if err := validate.Check(good); err != nil {
			t.Fatalf("\t%s\tShould accept a valid payload: %v", failed, err)
		}
		t.Logf("\t%s\tShould accept a valid payload.", success)

		bad := payload{Kind: "refund", Start: 20, Stop: 10}
		err := validate.Check(bad)
		if !validate.IsFieldErrors(err) {
			t.Fatalf("\t%s\tShould get field errors: %v", failed, err)
		}

		fields := validate.GetFieldErrors(err).Fields()
		for _, name := range []string{"asset", "kind", "stop_time"} {
			if _, exists := fields[name]; !exists {
				t.Fatalf("\t%s\tShould report the %q field by its json name: %v", failed, name, fields)
			}
		}
		t.Logf("\t%s\tShould report failing fields by their json name.", success)
	}
}

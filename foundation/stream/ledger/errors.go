package ledger

import "errors"

// Set of error kinds returned by the ledger. Callers should use errors.Is
// since the ledger always wraps these with context.
var (
	ErrInvalidParameters   = errors.New("ledger: invalid parameters")
	ErrTransferFailed      = errors.New("ledger: transfer failed")
	ErrNotFound            = errors.New("ledger: stream not found")
	ErrInactive            = errors.New("ledger: stream inactive")
	ErrUnauthorized        = errors.New("ledger: unauthorized")
	ErrInsufficientAccrued = errors.New("ledger: insufficient accrued balance")
	ErrStorage             = errors.New("ledger: storage failed")
)

// Names of the error kinds as reported to clients.
const (
	KindInvalidParameters   = "invalid_parameters"
	KindTransferFailed      = "transfer_failed"
	KindNotFound            = "not_found"
	KindInactive            = "inactive"
	KindUnauthorized        = "unauthorized"
	KindInsufficientAccrued = "insufficient_accrued"
	KindStorage             = "storage_failed"
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrInvalidParameters, KindInvalidParameters},
	{ErrTransferFailed, KindTransferFailed},
	{ErrNotFound, KindNotFound},
	{ErrInactive, KindInactive},
	{ErrUnauthorized, KindUnauthorized},
	{ErrInsufficientAccrued, KindInsufficientAccrued},
	{ErrStorage, KindStorage},
}

// Kind returns the name of the ledger error kind found in the error chain.
// An empty string is returned for errors that did not come from the ledger.
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return ""
}

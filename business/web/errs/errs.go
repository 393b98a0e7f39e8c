// Package errs provides types and support related to web v1 functionality.
package errs

import (
	"errors"
	"net/http"

	"github.com/ardanlabs/streamledger/foundation/stream/ledger"
	"github.com/ardanlabs/streamledger/foundation/stream/request"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error  string            `json:"error"`
	Kind   string            `json:"kind,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context.
type Trusted struct {
	Err    error
	Status int
	Kind   string
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{Err: err, Status: status, Kind: ledger.Kind(err)}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (te *Trusted) Error() string {
	return te.Err.Error()
}

// Unwrap returns the wrapped error.
func (te *Trusted) Unwrap() error {
	return te.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var te *Trusted
	return errors.As(err, &te)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var te *Trusted
	if !errors.As(err, &te) {
		return nil
	}
	return te
}

// =============================================================================

// Set of kinds for request verification failures that the ledger doesn't
// know about.
const (
	KindReplay       = "replay"
	KindUnauthorized = ledger.KindUnauthorized
)

// FromLedger converts the errors returned by the stream packages into a
// trusted error with the matching status. Errors it doesn't know are
// returned as is and will be treated as internal errors.
func FromLedger(err error) error {
	switch {
	case errors.Is(err, request.ErrReplay):
		return &Trusted{Err: err, Status: http.StatusConflict, Kind: KindReplay}

	case errors.Is(err, request.ErrSignature), errors.Is(err, request.ErrChainID):
		return &Trusted{Err: err, Status: http.StatusForbidden, Kind: KindUnauthorized}

	case errors.Is(err, ledger.ErrInvalidParameters):
		return NewTrusted(err, http.StatusBadRequest)

	case errors.Is(err, ledger.ErrUnauthorized):
		return NewTrusted(err, http.StatusForbidden)

	case errors.Is(err, ledger.ErrNotFound):
		return NewTrusted(err, http.StatusNotFound)

	case errors.Is(err, ledger.ErrInactive), errors.Is(err, ledger.ErrInsufficientAccrued):
		return NewTrusted(err, http.StatusConflict)

	case errors.Is(err, ledger.ErrTransferFailed):
		return NewTrusted(err, http.StatusPaymentRequired)

	case errors.Is(err, ledger.ErrStorage):
		return NewTrusted(err, http.StatusServiceUnavailable)
	}

	return err
}

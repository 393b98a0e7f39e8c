// Package request defines the signed payloads accounts submit to operate on
// streams and the verification applied before the ledger sees them.
package request

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ardanlabs/streamledger/foundation/stream/account"
	"github.com/ardanlabs/streamledger/foundation/stream/signature"
)

// Set of errors returned while verifying a signed request.
var (
	ErrChainID   = errors.New("request: wrong chain id")
	ErrReplay    = errors.New("request: nonce already used")
	ErrSignature = errors.New("request: invalid signature")
)

// Set of action kinds that can be requested against an existing stream.
const (
	KindWithdraw = "withdraw"
	KindCancel   = "cancel"
	KindSettle   = "settle"
)

// Header is embedded in every payload. The chain id binds the request to a
// ledger instance and the nonce must increase for every request an account
// submits.
type Header struct {
	ChainID uint16 `json:"chain_id" validate:"required"`
	Nonce   uint64 `json:"nonce" validate:"required"`
}

// RequestHeader returns the header of the payload.
func (h Header) RequestHeader() Header {
	return h
}

// Payload is any value that carries a request header.
type Payload interface {
	RequestHeader() Header
}

// Create is the payload a sender signs to open a new stream.
type Create struct {
	Header
	Recipient account.ID `json:"recipient" validate:"required"`
	Asset     string     `json:"asset" validate:"required"`
	Deposit   uint64     `json:"deposit" validate:"required"`
	StartTime uint64     `json:"start_time" validate:"required"`
	StopTime  uint64     `json:"stop_time" validate:"required,gtfield=StartTime"`
}

// Action is the payload a party signs to withdraw from, cancel or settle an
// existing stream.
type Action struct {
	Header
	Kind     string `json:"kind" validate:"required,oneof=withdraw cancel settle"`
	StreamID uint64 `json:"stream_id" validate:"required"`
	Amount   uint64 `json:"amount"`
}

// Signed is a payload with the signature of the account submitting it.
type Signed[T Payload] struct {
	Payload T        `json:"payload"`
	V       *big.Int `json:"v" validate:"required"`
	R       *big.Int `json:"r" validate:"required"`
	S       *big.Int `json:"s" validate:"required"`
}

// Sign signs the payload with the private key.
func Sign[T Payload](payload T, privateKey *ecdsa.PrivateKey) (Signed[T], error) {
	v, r, s, err := signature.Sign(payload, privateKey)
	if err != nil {
		return Signed[T]{}, err
	}

	return Signed[T]{Payload: payload, V: v, R: r, S: s}, nil
}

// SignatureString returns the signature as a hex string.
func (sr Signed[T]) SignatureString() string {
	return signature.String(sr.V, sr.R, sr.S)
}

// =============================================================================

// Nonces tracks the last nonce used by every account.
//
// TODO: persist the nonces next to the streams so a restart doesn't accept
// requests that were already applied.
type Nonces struct {
	mu   sync.Mutex
	last map[account.ID]uint64
}

// NewNonces constructs an empty nonce tracker.
func NewNonces() *Nonces {
	return &Nonces{
		last: make(map[account.ID]uint64),
	}
}

// Use records the nonce for the account if it is larger than the last one
// recorded.
func (n *Nonces) Use(acct account.ID, nonce uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if last, exists := n.last[acct]; exists && nonce <= last {
		return fmt.Errorf("%w: account %s nonce %d, last %d", ErrReplay, acct, nonce, last)
	}

	n.last[acct] = nonce
	return nil
}

// Last returns the last nonce recorded for the account.
func (n *Nonces) Last(acct account.ID) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.last[acct]
}

// =============================================================================

// Verifier checks signed requests for a single ledger instance.
type Verifier struct {
	chainID uint16
	nonces  *Nonces
}

// NewVerifier constructs a verifier for the chain id.
func NewVerifier(chainID uint16) *Verifier {
	return &Verifier{
		chainID: chainID,
		nonces:  NewNonces(),
	}
}

// Nonces returns the nonce tracker used by the verifier.
func (vf *Verifier) Nonces() *Nonces {
	return vf.nonces
}

// Verify checks the chain id and the signature of the request and consumes
// the nonce. It returns the account that signed the request.
//
// The nonce is consumed even when the operation is later rejected by the
// ledger. The nonce is the only state a rejected request changes, and it
// keeps a signed request from being submitted again once it could succeed.
func Verify[T Payload](vf *Verifier, sr Signed[T]) (account.ID, error) {
	hdr := sr.Payload.RequestHeader()

	if hdr.ChainID != vf.chainID {
		return "", fmt.Errorf("%w: got %d, exp %d", ErrChainID, hdr.ChainID, vf.chainID)
	}

	signer, err := signature.Signer(sr.Payload, sr.V, sr.R, sr.S)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSignature, err)
	}

	if err := vf.nonces.Use(signer, hdr.Nonce); err != nil {
		return "", err
	}

	return signer, nil
}

// Package signature provides helper functions for signing stream requests
// and recovering the account that signed them.
package signature

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ardanlabs/streamledger/foundation/stream/account"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// recoveryID is an arbitrary number added to the recovery id of every
// signature so signatures produced for the stream ledger are distinguishable
// from ethereum (27) and ardan blockchain (29) signatures.
const recoveryID = 31

// stampPrefix is hashed in front of every payload before signing.
const stampPrefix = "\x19Stream Ledger Signed Message:\n32"

// =============================================================================

// Hash returns a unique hex string for the value.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return hexutil.Encode(make([]byte, 32))
	}

	return hexutil.Encode(crypto.Keccak256(data))
}

// Sign uses the specified private key to sign the value and returns the
// signature in its [V|R|S] parts.
func Sign(value any, privateKey *ecdsa.PrivateKey) (v, r, s *big.Int, err error) {
	data, err := stamp(value)
	if err != nil {
		return nil, nil, nil, err
	}

	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return nil, nil, nil, err
	}

	// Make sure the signature recovers the signer before handing it out.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return nil, nil, nil, err
	}

	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, sig[:crypto.RecoveryIDOffset]) {
		return nil, nil, nil, errors.New("invalid signature")
	}

	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes([]byte{sig[64] + recoveryID})

	return v, r, s, nil
}

// Verify checks the signature values conform to our standards.
func Verify(v, r, s *big.Int) error {
	if v == nil || r == nil || s == nil {
		return errors.New("signature is missing")
	}

	if !v.IsUint64() || v.Uint64() < recoveryID {
		return errors.New("invalid recovery id")
	}

	rec := v.Uint64() - recoveryID
	if rec != 0 && rec != 1 {
		return errors.New("invalid recovery id")
	}

	if !crypto.ValidateSignatureValues(byte(rec), r, s, false) {
		return errors.New("invalid signature values")
	}

	return nil
}

// Signer verifies the signature and extracts the account that signed the
// value. The exact value that was signed must be provided, otherwise a
// different account is recovered.
func Signer(value any, v, r, s *big.Int) (account.ID, error) {
	if err := Verify(v, r, s); err != nil {
		return "", err
	}

	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	publicKey, err := crypto.SigToPub(data, toBytes(v, r, s))
	if err != nil {
		return "", fmt.Errorf("recovering public key: %w", err)
	}

	return account.PublicKeyToID(*publicKey), nil
}

// String returns the signature as a hex string, keeping the recovery id offset.
func String(v, r, s *big.Int) string {
	sig := toBytes(v, r, s)
	sig[64] = byte(v.Uint64())

	return hexutil.Encode(sig)
}

// FromString converts a hex string produced by String back into its
// [V|R|S] parts.
func FromString(sigStr string) (v, r, s *big.Int, err error) {
	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return nil, nil, nil, err
	}

	if len(sig) != crypto.SignatureLength {
		return nil, nil, nil, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}

	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes([]byte{sig[64]})

	return v, r, s, nil
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents the value with the
// stream ledger stamp embedded into the final hash.
func stamp(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	return crypto.Keccak256([]byte(stampPrefix), crypto.Keccak256(data)), nil
}

// toBytes converts the [V|R|S] values into the 65 byte form expected by
// go-ethereum, removing the recovery id offset.
func toBytes(v, r, s *big.Int) []byte {
	sig := make([]byte, crypto.SignatureLength)

	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:64])
	sig[64] = byte(v.Uint64() - recoveryID)

	return sig
}

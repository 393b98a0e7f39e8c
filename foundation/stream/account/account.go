// Package account provides the principal identifier used by the stream
// ledger. Principals are hex encoded ethereum style addresses.
package account

import (
	"crypto/ecdsa"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Zero represents the zero address. It is never a valid principal.
const Zero ID = "0x0000000000000000000000000000000000000000"

// ID represents a principal that can sign requests and hold value.
type ID string

// ToID converts a hex-encoded string to an account id and validates the
// hex-encoded string is formatted correctly. The result is in checksum form
// so the same address always maps to the same id.
func ToID(hex string) (ID, error) {
	a := ID(hex)
	if !a.IsID() {
		return "", errors.New("invalid account format")
	}

	return ID(common.HexToAddress(hex).Hex()), nil
}

// PublicKeyToID converts the public key to an account id.
func PublicKeyToID(pk ecdsa.PublicKey) ID {
	return ID(crypto.PubkeyToAddress(pk).String())
}

// IsID verifies whether the underlying data represents a valid
// hex-encoded account.
func (a ID) IsID() bool {
	const addressLength = 20

	if has0xPrefix(a) {
		a = a[2:]
	}

	return len(a) == 2*addressLength && isHex(a)
}

// IsZero reports whether the id is the zero address, in any casing.
func (a ID) IsZero() bool {
	return strings.EqualFold(string(a), string(Zero))
}

// Equal compares two ids ignoring the checksum casing.
func (a ID) Equal(b ID) bool {
	return strings.EqualFold(string(a), string(b))
}

// =============================================================================

// has0xPrefix validates the account starts with a 0x.
func has0xPrefix(a ID) bool {
	return len(a) >= 2 && a[0] == '0' && (a[1] == 'x' || a[1] == 'X')
}

// isHex validates whether each byte is valid hexadecimal string.
func isHex(a ID) bool {
	if len(a)%2 != 0 {
		return false
	}

	for _, c := range []byte(a) {
		if !isHexCharacter(c) {
			return false
		}
	}

	return true
}

// isHexCharacter returns bool of c being a valid hexadecimal.
func isHexCharacter(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

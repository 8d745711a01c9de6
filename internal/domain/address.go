package domain

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// AddressLength is the size of a Solana public key in bytes.
const AddressLength = 32

// ErrInvalidAddress is returned when a string is not a base58 encoded 32-byte key.
var ErrInvalidAddress = errors.New("invalid address")

// Address is a Solana public key. Wallets, beneficiaries and SPL mints
// (asset kinds) all share this representation.
type Address [AddressLength]byte

// ParseAddress decodes a base58 public key.
func ParseAddress(s string) (Address, error) {
	var a Address
	decoded, err := base58.Decode(s)
	if err != nil {
		return a, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}
	if len(decoded) != AddressLength {
		return a, fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidAddress, s, len(decoded))
	}
	copy(a[:], decoded)
	return a, nil
}

// ParseWalletAddress decodes a public key and requires it to lie on the
// ed25519 curve. Program derived addresses are off-curve and cannot sign,
// so they are rejected for roles that act as transaction signers.
func ParseWalletAddress(s string) (Address, error) {
	a, err := ParseAddress(s)
	if err != nil {
		return a, err
	}
	if !a.IsOnCurve() {
		return Address{}, fmt.Errorf("%w: %q is not an ed25519 point", ErrInvalidAddress, s)
	}
	return a, nil
}

// MustParseAddress is ParseAddress for constants; it panics on error.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the base58 encoding.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// IsZero reports whether a is the all-zero key.
func (a Address) IsZero() bool {
	return a == Address{}
}

// IsOnCurve reports whether a is a valid compressed ed25519 point.
func (a Address) IsOnCurve() bool {
	_, err := new(edwards25519.Point).SetBytes(a[:])
	return err == nil
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

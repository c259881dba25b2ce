// Package identity defines the opaque 32-byte addresses used throughout the
// pool: mint addresses, token accounts, escrow accounts, and derived
// authorities are all the same underlying shape.
package identity

import (
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"
)

// Size is the fixed length of an Address in bytes.
const Size = 32

// Address is an opaque 32-byte identity: a mint, a token account, a
// derived authority, or any other principal the program reasons about.
type Address [Size]byte

// Zero is the all-zero address used as a sentinel for "not yet set"
// (e.g. pool.winning_side before Settle).
var Zero Address

// IsZero reports whether a is the all-zero address.
func (a Address) IsZero() bool {
	return a == Zero
}

// Bytes returns a's bytes as a freshly allocated slice.
func (a Address) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, a[:])
	return b
}

// FromBytes builds an Address from a byte slice, which must be exactly
// Size bytes long.
func FromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != Size {
		return a, fmt.Errorf("identity: want %d bytes, got %d", Size, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// String renders the address as base58, the display convention carried
// over from the example corpus's Solana-facing address handling.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// Parse decodes a base58-encoded address.
func Parse(s string) (Address, error) {
	decoded, err := base58.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("identity: invalid base58 address %q: %w", s, err)
	}
	return FromBytes(decoded)
}

// MarshalJSON renders the address as its base58 string form.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON parses the address from its base58 string form.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

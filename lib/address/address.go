// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package address

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/metaloot/metaloot/lib/codec"
)

// Size is the length of an address in bytes.
const Size = 32

// Address identifies an account on the ledger.
type Address [Size]byte

// Zero is the all-zero address. It is also the system program id.
var Zero Address

// FromPublicKey returns the address controlled by an Ed25519 public key.
func FromPublicKey(publicKey ed25519.PublicKey) (Address, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return Zero, fmt.Errorf("address: public key has %d bytes, want %d", len(publicKey), ed25519.PublicKeySize)
	}
	var address Address
	copy(address[:], publicKey)
	return address, nil
}

// FromBytes copies a 32-byte slice into an Address.
func FromBytes(raw []byte) (Address, error) {
	if len(raw) != Size {
		return Zero, fmt.Errorf("address: %d bytes, want %d", len(raw), Size)
	}
	var address Address
	copy(address[:], raw)
	return address, nil
}

// Parse decodes the base58 text form of an address.
func Parse(text string) (Address, error) {
	if text == "" {
		return Zero, fmt.Errorf("address: empty string")
	}
	raw, err := base58.Decode(text)
	if err != nil {
		return Zero, fmt.Errorf("address: parsing %q: %w", text, err)
	}
	if len(raw) != Size {
		return Zero, fmt.Errorf("address: %q decodes to %d bytes, want %d", text, len(raw), Size)
	}
	var address Address
	copy(address[:], raw)
	return address, nil
}

// MustParse is like Parse but panics on error. Use only for
// compile-time constants such as well-known program ids.
func MustParse(text string) Address {
	address, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return address
}

// String returns the base58 text form.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// Short returns an abbreviated form for log lines and tables
// ("C4zH…FnDV").
func (a Address) Short() string {
	text := a.String()
	if len(text) <= 10 {
		return text
	}
	return text[:4] + "…" + text[len(text)-4:]
}

// Bytes returns a copy of the raw address bytes.
func (a Address) Bytes() []byte {
	return bytes.Clone(a[:])
}

// IsZero reports whether a is the all-zero address.
func (a Address) IsZero() bool {
	return a == Zero
}

// Compare orders addresses bytewise, for deterministic iteration.
func (a Address) Compare(other Address) int {
	return bytes.Compare(a[:], other[:])
}

// MarshalText implements encoding.TextMarshaler (YAML, JSON, logs).
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalCBOR encodes the address as a 32-byte CBOR byte string. This
// takes precedence over MarshalText so the stored layout stays binary.
func (a Address) MarshalCBOR() ([]byte, error) {
	return codec.Marshal(a[:])
}

// UnmarshalCBOR decodes a CBOR byte string of exactly 32 bytes.
func (a *Address) UnmarshalCBOR(data []byte) error {
	var raw []byte
	if err := codec.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("address: %w", err)
	}
	parsed, err := FromBytes(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

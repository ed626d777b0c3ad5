// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package address

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/metaloot/metaloot/lib/codec"
)

// Signature is an Ed25519 signature. The first signature of a
// transaction doubles as its identifier.
type Signature [ed25519.SignatureSize]byte

// SignatureFromBytes copies a 64-byte slice into a Signature.
func SignatureFromBytes(raw []byte) (Signature, error) {
	var signature Signature
	if len(raw) != len(signature) {
		return signature, fmt.Errorf("signature: %d bytes, want %d", len(raw), len(signature))
	}
	copy(signature[:], raw)
	return signature, nil
}

// ParseSignature decodes the base58 text form of a signature.
func ParseSignature(text string) (Signature, error) {
	raw, err := base58.Decode(text)
	if err != nil {
		return Signature{}, fmt.Errorf("signature: parsing %q: %w", text, err)
	}
	return SignatureFromBytes(raw)
}

// String returns the base58 text form.
func (s Signature) String() string {
	return base58.Encode(s[:])
}

// IsZero reports whether every byte of s is zero.
func (s Signature) IsZero() bool {
	return s == Signature{}
}

// MarshalText implements encoding.TextMarshaler.
func (s Signature) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Signature) UnmarshalText(text []byte) error {
	parsed, err := ParseSignature(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalCBOR encodes the signature as a 64-byte CBOR byte string.
func (s Signature) MarshalCBOR() ([]byte, error) {
	return codec.Marshal(s[:])
}

// UnmarshalCBOR decodes a CBOR byte string of exactly 64 bytes.
func (s *Signature) UnmarshalCBOR(data []byte) error {
	var raw []byte
	if err := codec.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("signature: %w", err)
	}
	parsed, err := SignatureFromBytes(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

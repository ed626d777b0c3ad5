// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package keypair

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/metaloot/metaloot/lib/address"
)

// ErrMalformed is returned when a keypair file does not hold a valid
// Ed25519 private key.
var ErrMalformed = errors.New("keypair: malformed keypair file")

// Keypair is an Ed25519 signing key. It satisfies ledger.Signer.
type Keypair struct {
	address address.Address
	private *lockedBytes
}

// Generate creates a new random keypair.
func Generate() (*Keypair, error) {
	_, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("keypair: generating Ed25519 key: %w", err)
	}
	return FromPrivateKey(private)
}

// FromPrivateKey takes ownership of private: its bytes move into locked
// memory and the slice is zeroed.
func FromPrivateKey(private ed25519.PrivateKey) (*Keypair, error) {
	if len(private) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: private key has %d bytes, want %d", ErrMalformed, len(private), ed25519.PrivateKeySize)
	}
	derived := ed25519.NewKeyFromSeed(private.Seed())
	if !bytes.Equal(derived[ed25519.SeedSize:], private[ed25519.SeedSize:]) {
		clear(derived)
		return nil, fmt.Errorf("%w: public half does not match seed", ErrMalformed)
	}
	clear(derived)

	key, err := address.FromPublicKey(ed25519.PublicKey(private[ed25519.SeedSize:]))
	if err != nil {
		return nil, err
	}
	locked, err := lock(private)
	if err != nil {
		return nil, err
	}
	return &Keypair{address: key, private: locked}, nil
}

// Address returns the keypair's public address.
func (k *Keypair) Address() address.Address { return k.address }

// PublicKey returns the Ed25519 public key.
func (k *Keypair) PublicKey() ed25519.PublicKey {
	return ed25519.PublicKey(k.address.Bytes())
}

// Sign signs message.
func (k *Keypair) Sign(message []byte) address.Signature {
	var signature address.Signature
	k.private.use(func(locked []byte) {
		// ed25519.Sign caches the expanded key under a weak pointer to
		// its argument, and weak pointers into the mapping are fatal.
		private := make(ed25519.PrivateKey, ed25519.PrivateKeySize)
		copy(private, locked)
		defer clear(private)
		copy(signature[:], ed25519.Sign(private, message))
	})
	return signature
}

// MemoryLocked reports whether the private key is pinned in RAM and
// excluded from core dumps. A non-nil result wraps ErrNotLocked; the
// key is still usable and is zeroed on Close.
func (k *Keypair) MemoryLocked() error {
	return k.private.lockErr
}

// Close zeros and releases the private key. The keypair cannot sign
// afterwards.
func (k *Keypair) Close() error {
	return k.private.close()
}

// Encode returns the keypair file form: a JSON array of the 64 private
// key bytes.
func (k *Keypair) Encode() []byte {
	var buffer bytes.Buffer
	k.private.use(func(private []byte) {
		buffer.WriteByte('[')
		for index, value := range private {
			if index > 0 {
				buffer.WriteByte(',')
			}
			fmt.Fprintf(&buffer, "%d", value)
		}
		buffer.WriteString("]\n")
	})
	return buffer.Bytes()
}

// Decode parses the keypair file form.
func Decode(data []byte) (*Keypair, error) {
	var values []int
	if err := json.Unmarshal(jsonc.ToJSON(data), &values); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(values) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrMalformed, len(values), ed25519.PrivateKeySize)
	}
	private := make(ed25519.PrivateKey, ed25519.PrivateKeySize)
	for index, value := range values {
		if value < 0 || value > 255 {
			clear(private)
			return nil, fmt.Errorf("%w: byte %d out of range: %d", ErrMalformed, index, value)
		}
		private[index] = byte(value)
	}
	clear(values)
	return FromPrivateKey(private)
}

// Save writes the keypair to path with 0600 permissions. An existing
// file is not overwritten.
func Save(path string, k *Keypair) error {
	encoded := k.Encode()
	defer clear(encoded)
	return writeNew(path, encoded)
}

// Load reads a plaintext keypair file.
func Load(path string) (*Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keypair: reading %s: %w", path, err)
	}
	defer clear(data)
	keypair, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return keypair, nil
}

func writeNew(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("keypair: creating %s: %w", path, err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("keypair: writing %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("keypair: closing %s: %w", path, err)
	}
	return nil
}

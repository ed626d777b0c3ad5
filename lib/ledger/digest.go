// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/zeebo/blake3"

	"github.com/metaloot/metaloot/lib/codec"
)

// Digest is a 32-byte BLAKE3 digest over a set of accounts.
type Digest [32]byte

// String returns the hex form.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// MarshalCBOR encodes the digest as a 32-byte byte string.
func (d Digest) MarshalCBOR() ([]byte, error) {
	return codec.Marshal(d[:])
}

// UnmarshalCBOR decodes a 32-byte byte string.
func (d *Digest) UnmarshalCBOR(data []byte) error {
	var raw []byte
	if err := codec.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != len(d) {
		return fmt.Errorf("ledger: digest has %d bytes, want %d", len(raw), len(d))
	}
	copy(d[:], raw)
	return nil
}

// stateDomainKey separates account-state digests from any other BLAKE3
// use of the same bytes. Changing it invalidates every recorded digest.
var stateDomainKey = [32]byte{
	'm', 'e', 't', 'a', 'l', 'o', 'o', 't', '.', 'l', 'e', 'd', 'g', 'e', 'r', '.',
	's', 't', 'a', 't', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// StateDigest hashes accounts in address order, so the result does not
// depend on the order of the input slice.
func StateDigest(accounts []KeyedAccount) (Digest, error) {
	sorted := slices.Clone(accounts)
	slices.SortFunc(sorted, func(a, b KeyedAccount) int { return a.Address.Compare(b.Address) })

	hasher, err := blake3.NewKeyed(stateDomainKey[:])
	if err != nil {
		return Digest{}, fmt.Errorf("ledger: creating state hasher: %w", err)
	}
	for _, keyed := range sorted {
		encoded, err := codec.Marshal(keyed)
		if err != nil {
			return Digest{}, fmt.Errorf("ledger: encoding account %s: %w", keyed.Address, err)
		}
		hasher.Write(encoded)
	}

	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package derive

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"

	"github.com/metaloot/metaloot/lib/address"
)

const (
	// MaxSeedLength is the maximum length of a single seed in bytes.
	MaxSeedLength = 32

	// MaxSeeds is the maximum number of seeds, bump included.
	MaxSeeds = 16

	// marker is appended to every candidate preimage so derived
	// addresses can never collide with hashes used elsewhere.
	marker = "ProgramDerivedAddress"
)

var (
	ErrMaxSeedLength = errors.New("derive: seed exceeds maximum length")
	ErrTooManySeeds  = errors.New("derive: too many seeds")
	ErrOnCurve       = errors.New("derive: candidate address lies on the Ed25519 curve")
	ErrNoViableBump  = errors.New("derive: no viable bump seed")
)

// Create computes the program-derived address for seeds under
// programID. The seeds must already include any bump byte. Returns
// ErrOnCurve when the result is a valid curve point; callers treat that
// as "these seeds do not name a derived address".
func Create(seeds [][]byte, programID address.Address) (address.Address, error) {
	if len(seeds) > MaxSeeds {
		return address.Zero, fmt.Errorf("%w: %d seeds, limit %d", ErrTooManySeeds, len(seeds), MaxSeeds)
	}
	hasher := sha256.New()
	for index, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return address.Zero, fmt.Errorf("%w: seed %d has %d bytes, limit %d",
				ErrMaxSeedLength, index, len(seed), MaxSeedLength)
		}
		hasher.Write(seed)
	}
	hasher.Write(programID[:])
	hasher.Write([]byte(marker))

	var candidate address.Address
	copy(candidate[:], hasher.Sum(nil))

	if OnCurve(candidate) {
		return address.Zero, ErrOnCurve
	}
	return candidate, nil
}

// Find searches for the highest bump b in [0, 255] such that
// Create(seeds ‖ [b], programID) succeeds, and returns that address and
// b. The search is bounded at 256 attempts.
func Find(seeds [][]byte, programID address.Address) (address.Address, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return address.Zero, 0, fmt.Errorf("%w: %d seeds leaves no room for a bump", ErrTooManySeeds, len(seeds))
	}
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	bumpSeed := []byte{0}
	withBump[len(seeds)] = bumpSeed

	for bump := 255; bump >= 0; bump-- {
		bumpSeed[0] = byte(bump)
		derived, err := Create(withBump, programID)
		if err == nil {
			return derived, uint8(bump), nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return address.Zero, 0, err
		}
	}
	return address.Zero, 0, ErrNoViableBump
}

// Attempts returns how many candidates Find evaluated to arrive at
// bump. Used to charge compute for the search.
func Attempts(bump uint8) int {
	return 256 - int(bump)
}

// WithBump returns seeds with the bump appended as a final one-byte
// seed, without modifying the input slice.
func WithBump(seeds [][]byte, bump uint8) [][]byte {
	result := make([][]byte, len(seeds)+1)
	copy(result, seeds)
	result[len(seeds)] = []byte{bump}
	return result
}

// OnCurve reports whether candidate decodes as a point on the Ed25519
// curve, i.e. whether a private key for it could exist.
func OnCurve(candidate address.Address) bool {
	_, err := new(edwards25519.Point).SetBytes(candidate[:])
	return err == nil
}

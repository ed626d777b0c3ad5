// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package escrow

import (
	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/derive"
)

// AuthoritySeed is the fixed tag the escrow authority derives from.
const AuthoritySeed = "state"

// Authority is a derived escrow authority. It is computed, never
// stored.
type Authority struct {
	Address address.Address
	Bump    uint8
}

// Seeds returns the complete seed list, bump included, that signs for
// an authority with bump.
func Seeds(bump uint8) [][]byte {
	return [][]byte{[]byte(AuthoritySeed), {bump}}
}

// Seeds returns the signing seeds for a.
func (a Authority) Seeds() [][]byte { return Seeds(a.Bump) }

// DeriveAuthority finds the canonical escrow authority under programID.
func DeriveAuthority(programID address.Address) (Authority, error) {
	derived, bump, err := derive.Find([][]byte{[]byte(AuthoritySeed)}, programID)
	if err != nil {
		return Authority{}, err
	}
	return Authority{Address: derived, Bump: bump}, nil
}

// AuthorityWithBump derives the authority for an explicit bump. It
// fails when that bump lands on the curve.
func AuthorityWithBump(programID address.Address, bump uint8) (Authority, error) {
	derived, err := derive.Create(Seeds(bump), programID)
	if err != nil {
		return Authority{}, err
	}
	return Authority{Address: derived, Bump: bump}, nil
}

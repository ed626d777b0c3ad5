// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/derive"
)

// Seed tags.
var (
	RegistrySeed = []byte("registry")
	StudioSeed   = []byte("studio")
)

// registrySeeds returns the seeds of the registry singleton.
func registrySeeds() [][]byte {
	return [][]byte{RegistrySeed}
}

// studioSeeds returns the seeds of the entry for a natural key. Seeds
// are hashed back to back, so the symbol's length is a seed of its own
// and ("ACM", "Acme") cannot derive the same address as ("AC", "MAcme").
// The key must already have passed validateKey.
func studioSeeds(symbol, name string) [][]byte {
	return [][]byte{StudioSeed, {byte(len(symbol))}, []byte(symbol), []byte(name)}
}

// RegistryAddress returns the registry singleton's address and bump
// under programID.
func RegistryAddress(programID address.Address) (address.Address, uint8, error) {
	return derive.Find(registrySeeds(), programID)
}

// StudioAddress returns the entry address and bump for a studio's
// natural key under programID.
func StudioAddress(programID address.Address, symbol, name string) (address.Address, uint8, error) {
	if err := validateKey(name, symbol); err != nil {
		return address.Zero, 0, err
	}
	return derive.Find(studioSeeds(symbol, name), programID)
}

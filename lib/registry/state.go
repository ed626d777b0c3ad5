// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"fmt"

	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/codec"
	"github.com/metaloot/metaloot/lib/derive"
	"github.com/metaloot/metaloot/lib/ledger"
)

const (
	// MaxNameLength and MaxSymbolLength follow from the derived-address
	// seed limit: both are seeds of the entry address.
	MaxNameLength   = derive.MaxSeedLength
	MaxSymbolLength = derive.MaxSeedLength

	// MaxURILength bounds a studio's metadata uri.
	MaxURILength = 200
)

// RegistryState is the registry singleton.
type RegistryState struct {
	Initialized     bool              `cbor:"1,keyasint"`
	Admin           address.Address   `cbor:"2,keyasint"`
	StudioAddresses []address.Address `cbor:"3,keyasint"`
}

// StudioEntry is one registered studio.
type StudioEntry struct {
	Name    string          `cbor:"1,keyasint"`
	Symbol  string          `cbor:"2,keyasint"`
	URI     string          `cbor:"3,keyasint"`
	Creator address.Address `cbor:"4,keyasint"`
}

// DecodeRegistry parses registry account data. Empty data is an
// uninitialized registry, not an error.
func DecodeRegistry(data []byte) (*RegistryState, error) {
	var state RegistryState
	if len(data) == 0 {
		return &state, nil
	}
	if err := codec.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: registry: %w", ledger.ErrInvalidAccountData, err)
	}
	return &state, nil
}

// DecodeStudio parses studio entry data. Empty data is
// ErrNotInitialized.
func DecodeStudio(data []byte) (*StudioEntry, error) {
	if len(data) == 0 {
		return nil, ledger.ErrNotInitialized
	}
	var entry StudioEntry
	if err := codec.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: studio: %w", ledger.ErrInvalidAccountData, err)
	}
	return &entry, nil
}

// validateKey checks a studio's natural key.
func validateKey(name, symbol string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: studio name is empty", ledger.ErrInvalidArgument)
	case symbol == "":
		return fmt.Errorf("%w: studio symbol is empty", ledger.ErrInvalidArgument)
	case len(name) > MaxNameLength:
		return fmt.Errorf("%w: studio name is %d bytes, limit %d", ledger.ErrInvalidSeeds, len(name), MaxNameLength)
	case len(symbol) > MaxSymbolLength:
		return fmt.Errorf("%w: studio symbol is %d bytes, limit %d", ledger.ErrInvalidSeeds, len(symbol), MaxSymbolLength)
	}
	return nil
}

func validateURI(uri string) error {
	if len(uri) > MaxURILength {
		return fmt.Errorf("%w: uri is %d bytes, limit %d", ledger.ErrInvalidArgument, len(uri), MaxURILength)
	}
	return nil
}

func writeState(info *ledger.AccountInfo, state any) error {
	data, err := codec.Marshal(state)
	if err != nil {
		return fmt.Errorf("registry: encoding state for %s: %w", info.Key, err)
	}
	return info.SetData(data)
}

// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"fmt"

	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/codec"
	"github.com/metaloot/metaloot/lib/ledger"
)

// Kind discriminates the account types this program owns.
type Kind uint8

const (
	KindMint    Kind = 1
	KindAccount Kind = 2
)

// Mint describes a token: who may mint it and how much exists.
type Mint struct {
	Kind      Kind            `cbor:"1,keyasint"`
	Authority address.Address `cbor:"2,keyasint"`
	Supply    uint64          `cbor:"3,keyasint"`
	Decimals  uint8           `cbor:"4,keyasint"`
}

// Account holds a balance of one mint on behalf of an authority.
type Account struct {
	Kind      Kind            `cbor:"1,keyasint"`
	Mint      address.Address `cbor:"2,keyasint"`
	Authority address.Address `cbor:"3,keyasint"`
	Amount    uint64          `cbor:"4,keyasint"`
}

// DecodeMint parses mint state. Empty data is ErrNotInitialized.
func DecodeMint(data []byte) (*Mint, error) {
	if len(data) == 0 {
		return nil, ledger.ErrNotInitialized
	}
	var mint Mint
	if err := codec.Unmarshal(data, &mint); err != nil {
		return nil, fmt.Errorf("%w: mint: %w", ledger.ErrInvalidAccountData, err)
	}
	if mint.Kind != KindMint {
		return nil, fmt.Errorf("%w: kind %d is not a mint", ledger.ErrInvalidAccountData, mint.Kind)
	}
	return &mint, nil
}

// DecodeAccount parses token account state. Empty data is
// ErrNotInitialized.
func DecodeAccount(data []byte) (*Account, error) {
	if len(data) == 0 {
		return nil, ledger.ErrNotInitialized
	}
	var account Account
	if err := codec.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("%w: token account: %w", ledger.ErrInvalidAccountData, err)
	}
	if account.Kind != KindAccount {
		return nil, fmt.Errorf("%w: kind %d is not a token account", ledger.ErrInvalidAccountData, account.Kind)
	}
	return &account, nil
}

// LoadMint reads mint state from an account this program owns.
func LoadMint(info *ledger.AccountInfo) (*Mint, error) {
	if info.Owner() != ProgramID {
		return nil, fmt.Errorf("%w: mint %s is owned by %s", ledger.ErrIllegalOwner, info.Key, info.Owner())
	}
	return DecodeMint(info.Data())
}

// LoadAccount reads token account state from an account this program
// owns.
func LoadAccount(info *ledger.AccountInfo) (*Account, error) {
	if info.Owner() != ProgramID {
		return nil, fmt.Errorf("%w: token account %s is owned by %s", ledger.ErrIllegalOwner, info.Key, info.Owner())
	}
	return DecodeAccount(info.Data())
}

func store(info *ledger.AccountInfo, state any) error {
	data, err := codec.Marshal(state)
	if err != nil {
		return fmt.Errorf("token: encoding state for %s: %w", info.Key, err)
	}
	return info.SetData(data)
}

// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"bytes"

	"github.com/metaloot/metaloot/lib/address"
)

// MaxAccountDataSize bounds the data held by a single account.
const MaxAccountDataSize = 10 << 20

// Account is the durable record stored at an address. The owner is the
// only program allowed to change Data.
type Account struct {
	Owner      address.Address `cbor:"1,keyasint"`
	Data       []byte          `cbor:"2,keyasint,omitempty"`
	Executable bool            `cbor:"3,keyasint,omitempty"`
}

// Clone returns a deep copy.
func (a *Account) Clone() *Account {
	return &Account{Owner: a.Owner, Data: bytes.Clone(a.Data), Executable: a.Executable}
}

// KeyedAccount pairs an account with its address.
type KeyedAccount struct {
	Address address.Address `cbor:"1,keyasint"`
	Account Account         `cbor:"2,keyasint"`
}

// AccountMeta names one account an instruction touches and the
// privileges it is passed with.
type AccountMeta struct {
	Address    address.Address `cbor:"1,keyasint"`
	IsSigner   bool            `cbor:"2,keyasint,omitempty"`
	IsWritable bool            `cbor:"3,keyasint,omitempty"`
}

// Writable returns a writable AccountMeta.
func Writable(key address.Address, signer bool) AccountMeta {
	return AccountMeta{Address: key, IsSigner: signer, IsWritable: true}
}

// Readonly returns a read-only AccountMeta.
func Readonly(key address.Address, signer bool) AccountMeta {
	return AccountMeta{Address: key, IsSigner: signer}
}

// Instruction is one program call: the program, its ordered accounts,
// and opaque data the program decodes itself.
type Instruction struct {
	ProgramID address.Address `cbor:"1,keyasint"`
	Accounts  []AccountMeta   `cbor:"2,keyasint"`
	Data      []byte          `cbor:"3,keyasint,omitempty"`
}

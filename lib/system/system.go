// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

// Package system implements the account-creation program. Every account
// that does not exist yet is owned by this program, so it is the only
// program that can bring an account into existence and hand it to a
// new owner.
package system

import (
	"fmt"

	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/codec"
	"github.com/metaloot/metaloot/lib/ledger"
)

// ProgramID is the system program's address.
var ProgramID = address.Zero

// CreateAccount allocates Space zero bytes at a new address and assigns
// the account to Owner.
type CreateAccount struct {
	Space uint64          `cbor:"1,keyasint"`
	Owner address.Address `cbor:"2,keyasint"`
}

// CreateAccountInstruction builds the instruction that creates target
// on behalf of funder. Both must sign; a derived target signs through
// the caller's seeds.
func CreateAccountInstruction(funder, target address.Address, space uint64, owner address.Address) (ledger.Instruction, error) {
	data, err := codec.Marshal(CreateAccount{Space: space, Owner: owner})
	if err != nil {
		return ledger.Instruction{}, fmt.Errorf("system: encoding CreateAccount: %w", err)
	}
	return ledger.Instruction{
		ProgramID: ProgramID,
		Accounts: []ledger.AccountMeta{
			ledger.Writable(funder, true),
			ledger.Writable(target, true),
		},
		Data: data,
	}, nil
}

// Program is the system program.
type Program struct{}

// Process handles CreateAccount: [funder signer, new account signer].
func (Program) Process(invoke *ledger.InvokeContext, accounts []*ledger.AccountInfo, data []byte) error {
	var instruction CreateAccount
	if err := codec.Unmarshal(data, &instruction); err != nil {
		return fmt.Errorf("%w: %w", ledger.ErrInvalidInstructionData, err)
	}

	iter := ledger.NewAccounts(accounts)
	funder, err := iter.Next()
	if err != nil {
		return err
	}
	target, err := iter.Next()
	if err != nil {
		return err
	}
	if !funder.IsSigner {
		return fmt.Errorf("%w: funder %s", ledger.ErrMissingRequiredSignature, funder.Key)
	}
	if !target.IsSigner {
		return fmt.Errorf("%w: new account %s", ledger.ErrMissingRequiredSignature, target.Key)
	}
	if target.Exists() {
		return fmt.Errorf("%w: %s", ledger.ErrAccountAlreadyInUse, target.Key)
	}

	if err := target.Allocate(instruction.Space); err != nil {
		return err
	}
	target.Assign(instruction.Owner)
	invoke.Log("created %s with %d bytes for %s", target.Key, instruction.Space, instruction.Owner)
	return nil
}

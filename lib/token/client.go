// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"context"

	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/ledger"
	"github.com/metaloot/metaloot/lib/system"
)

func instruction(accounts []ledger.AccountMeta, body Instruction) (ledger.Instruction, error) {
	data, err := Encode(body)
	if err != nil {
		return ledger.Instruction{}, err
	}
	return ledger.Instruction{ProgramID: ProgramID, Accounts: accounts, Data: data}, nil
}

// CreateMintInstructions creates mint through the system program and
// initializes it. payer and mint must both sign the transaction.
func CreateMintInstructions(payer, mint, authority address.Address, decimals uint8) ([]ledger.Instruction, error) {
	create, err := system.CreateAccountInstruction(payer, mint, 0, ProgramID)
	if err != nil {
		return nil, err
	}
	initialize, err := instruction(
		[]ledger.AccountMeta{ledger.Writable(mint, false)},
		InitializeMint{Authority: authority, Decimals: decimals},
	)
	if err != nil {
		return nil, err
	}
	return []ledger.Instruction{create, initialize}, nil
}

// CreateAccountInstructions creates a token account for mint controlled
// by authority. payer and account must both sign the transaction.
func CreateAccountInstructions(payer, account, mint, authority address.Address) ([]ledger.Instruction, error) {
	create, err := system.CreateAccountInstruction(payer, account, 0, ProgramID)
	if err != nil {
		return nil, err
	}
	initialize, err := instruction(
		[]ledger.AccountMeta{ledger.Writable(account, false), ledger.Readonly(mint, false)},
		InitializeAccount{Authority: authority},
	)
	if err != nil {
		return nil, err
	}
	return []ledger.Instruction{create, initialize}, nil
}

// MintToInstruction mints amount into destination.
func MintToInstruction(mint, destination, authority address.Address, amount uint64) (ledger.Instruction, error) {
	return instruction([]ledger.AccountMeta{
		ledger.Writable(mint, false),
		ledger.Writable(destination, false),
		ledger.Readonly(authority, true),
	}, MintTo{Amount: amount})
}

// TransferInstruction moves amount from source to destination. A
// derived authority signs through the calling program's seeds.
func TransferInstruction(source, destination, authority address.Address, amount uint64) (ledger.Instruction, error) {
	return instruction([]ledger.AccountMeta{
		ledger.Writable(source, false),
		ledger.Writable(destination, false),
		ledger.Readonly(authority, true),
	}, Transfer{Amount: amount})
}

// Reader is the read side of a bank.
type Reader interface {
	Account(ctx context.Context, key address.Address) (*ledger.Account, error)
}

// FetchAccount loads committed token account state.
func FetchAccount(ctx context.Context, reader Reader, key address.Address) (*Account, error) {
	account, err := reader.Account(ctx, key)
	if err != nil {
		return nil, err
	}
	if account.Owner != ProgramID {
		return nil, ledger.ErrIllegalOwner
	}
	return DecodeAccount(account.Data)
}

// FetchMint loads committed mint state.
func FetchMint(ctx context.Context, reader Reader, key address.Address) (*Mint, error) {
	account, err := reader.Account(ctx, key)
	if err != nil {
		return nil, err
	}
	if account.Owner != ProgramID {
		return nil, ledger.ErrIllegalOwner
	}
	return DecodeMint(account.Data)
}

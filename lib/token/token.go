// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"fmt"
	"math"

	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/ledger"
)

// ProgramID is the token program's address.
var ProgramID = address.MustParse("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

// Token program failures.
var (
	ErrInsufficientFunds = ledger.NewError("InsufficientFunds", "insufficient funds")
	ErrMintMismatch      = ledger.NewError("MintMismatch", "account does not belong to the mint")
	ErrOwnerMismatch     = ledger.NewError("OwnerMismatch", "signer is not the account authority")
	ErrOverflow          = ledger.NewError("Overflow", "operation overflowed")
)

// Program is the token program.
type Program struct{}

// Process decodes and executes one token instruction.
func (Program) Process(invoke *ledger.InvokeContext, accounts []*ledger.AccountInfo, data []byte) error {
	instruction, err := Decode(data)
	if err != nil {
		return err
	}
	iter := ledger.NewAccounts(accounts)
	switch instruction := instruction.(type) {
	case InitializeMint:
		return initializeMint(invoke, iter, instruction)
	case InitializeAccount:
		return initializeAccount(invoke, iter, instruction)
	case MintTo:
		return mintTo(invoke, iter, instruction)
	case Transfer:
		return transfer(invoke, iter, instruction)
	}
	return fmt.Errorf("%w: unhandled token instruction %T", ledger.ErrInvalidInstructionData, instruction)
}

// uninitialized checks that info is an empty account handed to this
// program by the system program.
func uninitialized(info *ledger.AccountInfo) error {
	if info.Owner() != ProgramID {
		return fmt.Errorf("%w: %s is owned by %s", ledger.ErrIllegalOwner, info.Key, info.Owner())
	}
	if info.DataLen() != 0 {
		return fmt.Errorf("%w: %s", ledger.ErrAlreadyInitialized, info.Key)
	}
	return nil
}

func initializeMint(invoke *ledger.InvokeContext, iter *ledger.Accounts, instruction InitializeMint) error {
	mintInfo, err := iter.Next()
	if err != nil {
		return err
	}
	if err := uninitialized(mintInfo); err != nil {
		return err
	}
	if err := store(mintInfo, Mint{
		Kind:      KindMint,
		Authority: instruction.Authority,
		Decimals:  instruction.Decimals,
	}); err != nil {
		return err
	}
	invoke.Log("initialized mint %s", mintInfo.Key)
	return nil
}

func initializeAccount(invoke *ledger.InvokeContext, iter *ledger.Accounts, instruction InitializeAccount) error {
	accountInfo, err := iter.Next()
	if err != nil {
		return err
	}
	mintInfo, err := iter.Next()
	if err != nil {
		return err
	}
	if err := uninitialized(accountInfo); err != nil {
		return err
	}
	if _, err := LoadMint(mintInfo); err != nil {
		return err
	}
	if err := store(accountInfo, Account{
		Kind:      KindAccount,
		Mint:      mintInfo.Key,
		Authority: instruction.Authority,
	}); err != nil {
		return err
	}
	invoke.Log("initialized token account %s for mint %s", accountInfo.Key, mintInfo.Key)
	return nil
}

func mintTo(invoke *ledger.InvokeContext, iter *ledger.Accounts, instruction MintTo) error {
	mintInfo, err := iter.Next()
	if err != nil {
		return err
	}
	destinationInfo, err := iter.Next()
	if err != nil {
		return err
	}
	authority, err := iter.Next()
	if err != nil {
		return err
	}

	mint, err := LoadMint(mintInfo)
	if err != nil {
		return err
	}
	destination, err := LoadAccount(destinationInfo)
	if err != nil {
		return err
	}
	if destination.Mint != mintInfo.Key {
		return fmt.Errorf("%w: %s holds %s", ErrMintMismatch, destinationInfo.Key, destination.Mint)
	}
	if !authority.IsSigner {
		return fmt.Errorf("%w: mint authority %s", ledger.ErrMissingRequiredSignature, authority.Key)
	}
	if authority.Key != mint.Authority {
		return fmt.Errorf("%w: %s is not the authority of mint %s", ErrOwnerMismatch, authority.Key, mintInfo.Key)
	}
	if instruction.Amount > math.MaxUint64-mint.Supply || instruction.Amount > math.MaxUint64-destination.Amount {
		return ErrOverflow
	}

	mint.Supply += instruction.Amount
	destination.Amount += instruction.Amount
	if err := store(mintInfo, mint); err != nil {
		return err
	}
	if err := store(destinationInfo, destination); err != nil {
		return err
	}
	invoke.Log("minted %d to %s", instruction.Amount, destinationInfo.Key)
	return nil
}

func transfer(invoke *ledger.InvokeContext, iter *ledger.Accounts, instruction Transfer) error {
	sourceInfo, err := iter.Next()
	if err != nil {
		return err
	}
	destinationInfo, err := iter.Next()
	if err != nil {
		return err
	}
	authority, err := iter.Next()
	if err != nil {
		return err
	}

	source, err := LoadAccount(sourceInfo)
	if err != nil {
		return err
	}
	destination, err := LoadAccount(destinationInfo)
	if err != nil {
		return err
	}
	if !authority.IsSigner {
		return fmt.Errorf("%w: source authority %s", ledger.ErrMissingRequiredSignature, authority.Key)
	}
	if authority.Key != source.Authority {
		return fmt.Errorf("%w: %s does not control %s", ErrOwnerMismatch, authority.Key, sourceInfo.Key)
	}
	if source.Mint != destination.Mint {
		return fmt.Errorf("%w: %s holds %s, %s holds %s",
			ErrMintMismatch, sourceInfo.Key, source.Mint, destinationInfo.Key, destination.Mint)
	}
	if source.Amount < instruction.Amount {
		return fmt.Errorf("%w: %s holds %d, transfer needs %d",
			ErrInsufficientFunds, sourceInfo.Key, source.Amount, instruction.Amount)
	}
	if sourceInfo.Key == destinationInfo.Key {
		invoke.Log("self-transfer of %d in %s", instruction.Amount, sourceInfo.Key)
		return nil
	}
	if instruction.Amount > math.MaxUint64-destination.Amount {
		return ErrOverflow
	}

	source.Amount -= instruction.Amount
	destination.Amount += instruction.Amount
	if err := store(sourceInfo, source); err != nil {
		return err
	}
	if err := store(destinationInfo, destination); err != nil {
		return err
	}
	invoke.Log("transferred %d from %s to %s", instruction.Amount, sourceInfo.Key, destinationInfo.Key)
	return nil
}

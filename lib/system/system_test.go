// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package system_test

import (
	"context"
	"errors"
	"testing"

	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/ledger"
	"github.com/metaloot/metaloot/lib/ledgertest"
	"github.com/metaloot/metaloot/lib/system"
)

func TestCreateAccount(t *testing.T) {
	harness := ledgertest.New(t)
	funder := harness.NewSigner()
	target := harness.NewSigner()
	owner := address.MustParse("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	instruction, err := system.CreateAccountInstruction(funder.Address(), target.Address(), 48, owner)
	if err != nil {
		t.Fatalf("CreateAccountInstruction: %v", err)
	}
	if _, err := harness.Submit(funder, []ledger.Instruction{instruction}, target); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	account, err := harness.Bank.Account(context.Background(), target.Address())
	if err != nil {
		t.Fatalf("Account: %v", err)
	}
	if account.Owner != owner {
		t.Errorf("Owner = %s, want %s", account.Owner, owner)
	}
	if len(account.Data) != 48 {
		t.Errorf("len(Data) = %d, want 48", len(account.Data))
	}

	// A second creation at the same address must fail.
	_, err = harness.Submit(funder, []ledger.Instruction{instruction}, target)
	if !errors.Is(err, ledger.ErrAccountAlreadyInUse) {
		t.Errorf("second CreateAccount: %v, want ErrAccountAlreadyInUse", err)
	}
}

func TestCreateAccountRejectsBadInput(t *testing.T) {
	harness := ledgertest.New(t)
	funder := harness.NewSigner()
	target := harness.NewSigner()

	t.Run("malformed data", func(t *testing.T) {
		_, err := harness.Submit(funder, []ledger.Instruction{{
			ProgramID: system.ProgramID,
			Accounts:  []ledger.AccountMeta{ledger.Writable(funder.Address(), true), ledger.Writable(target.Address(), true)},
			Data:      []byte{0xff},
		}}, target)
		if !errors.Is(err, ledger.ErrInvalidInstructionData) {
			t.Errorf("error = %v, want ErrInvalidInstructionData", err)
		}
	})

	t.Run("oversized", func(t *testing.T) {
		instruction, err := system.CreateAccountInstruction(funder.Address(), target.Address(), ledger.MaxAccountDataSize+1, funder.Address())
		if err != nil {
			t.Fatal(err)
		}
		_, err = harness.Submit(funder, []ledger.Instruction{instruction}, target)
		if !errors.Is(err, ledger.ErrAccountDataTooLarge) {
			t.Errorf("error = %v, want ErrAccountDataTooLarge", err)
		}
	})

	t.Run("target not signing", func(t *testing.T) {
		instruction, err := system.CreateAccountInstruction(funder.Address(), target.Address(), 1, funder.Address())
		if err != nil {
			t.Fatal(err)
		}
		instruction.Accounts[1].IsSigner = false
		_, err = harness.Submit(funder, []ledger.Instruction{instruction})
		if !errors.Is(err, ledger.ErrMissingRequiredSignature) {
			t.Errorf("error = %v, want ErrMissingRequiredSignature", err)
		}
	})

	t.Run("missing account", func(t *testing.T) {
		instruction, err := system.CreateAccountInstruction(funder.Address(), target.Address(), 1, funder.Address())
		if err != nil {
			t.Fatal(err)
		}
		instruction.Accounts = instruction.Accounts[:1]
		_, err = harness.Submit(funder, []ledger.Instruction{instruction})
		if !errors.Is(err, ledger.ErrNotEnoughAccountKeys) {
			t.Errorf("error = %v, want ErrNotEnoughAccountKeys", err)
		}
	})
}

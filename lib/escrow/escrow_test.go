// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package escrow_test

import (
	"errors"
	"testing"

	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/escrow"
	"github.com/metaloot/metaloot/lib/keypair"
	"github.com/metaloot/metaloot/lib/ledger"
	"github.com/metaloot/metaloot/lib/ledgertest"
	"github.com/metaloot/metaloot/lib/token"
)

type fixture struct {
	harness     *ledgertest.Harness
	mint        address.Address
	escrow      address.Address
	destination address.Address
}

// newFixture funds an escrow account held by the derived authority
// with balance tokens and creates an empty destination of the same
// mint.
func newFixture(t *testing.T, balance uint64) *fixture {
	t.Helper()
	harness := ledgertest.New(t)
	mintAuthority := harness.NewSigner()
	recipient := harness.NewSigner()

	mint := harness.CreateMint(mintAuthority.Address(), 0)
	escrowAccount := harness.CreateTokenAccount(mint, harness.EscrowAuthority())
	destination := harness.CreateTokenAccount(mint, recipient.Address())
	harness.MintTo(mint, escrowAccount, mintAuthority, balance)
	return &fixture{harness: harness, mint: mint, escrow: escrowAccount, destination: destination}
}

func (f *fixture) release(admin *keypair.Keypair, amount uint64) error {
	instruction := escrow.TransferInstruction(f.harness.Deployment.EscrowProgram, admin.Address(), f.escrow, f.destination, amount)
	_, err := f.harness.Submit(admin, []ledger.Instruction{instruction})
	return err
}

func TestRelease(t *testing.T) {
	f := newFixture(t, 1000)
	if err := f.release(f.harness.Admin, 250); err != nil {
		t.Fatalf("release: %v", err)
	}
	if got := f.harness.Balance(f.escrow); got != 750 {
		t.Errorf("escrow balance = %d, want 750", got)
	}
	if got := f.harness.Balance(f.destination); got != 250 {
		t.Errorf("destination balance = %d, want 250", got)
	}
}

func TestReleaseRejects(t *testing.T) {
	f := newFixture(t, 100)
	admin := f.harness.Admin
	program := f.harness.Deployment.EscrowProgram

	t.Run("insufficient funds", func(t *testing.T) {
		err := f.release(admin, 101)
		if !errors.Is(err, token.ErrInsufficientFunds) {
			t.Errorf("error = %v, want ErrInsufficientFunds", err)
		}
	})

	t.Run("not the admin", func(t *testing.T) {
		err := f.release(f.harness.NewSigner(), 1)
		if !errors.Is(err, ledger.ErrUnauthorized) {
			t.Errorf("error = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("admin not signing", func(t *testing.T) {
		payer := f.harness.NewSigner()
		instruction := escrow.TransferInstruction(program, admin.Address(), f.escrow, f.destination, 1)
		instruction.Accounts[0].IsSigner = false
		_, err := f.harness.Submit(payer, []ledger.Instruction{instruction})
		if !errors.Is(err, ledger.ErrMissingRequiredSignature) {
			t.Errorf("error = %v, want ErrMissingRequiredSignature", err)
		}
	})

	t.Run("short amount", func(t *testing.T) {
		instruction := escrow.TransferInstruction(program, admin.Address(), f.escrow, f.destination, 1)
		instruction.Data = instruction.Data[:7]
		_, err := f.harness.Submit(admin, []ledger.Instruction{instruction})
		if !errors.Is(err, ledger.ErrInvalidInstructionData) {
			t.Errorf("error = %v, want ErrInvalidInstructionData", err)
		}
	})

	t.Run("long amount", func(t *testing.T) {
		instruction := escrow.TransferInstruction(program, admin.Address(), f.escrow, f.destination, 1)
		instruction.Data = append(instruction.Data, 0)
		_, err := f.harness.Submit(admin, []ledger.Instruction{instruction})
		if !errors.Is(err, ledger.ErrInvalidInstructionData) {
			t.Errorf("error = %v, want ErrInvalidInstructionData", err)
		}
	})

	t.Run("wrong token program", func(t *testing.T) {
		instruction := escrow.TransferInstruction(program, admin.Address(), f.escrow, f.destination, 1)
		instruction.Accounts[3].Address = f.harness.Deployment.RegistryProgram
		_, err := f.harness.Submit(admin, []ledger.Instruction{instruction})
		if !errors.Is(err, ledger.ErrIncorrectProgramID) {
			t.Errorf("error = %v, want ErrIncorrectProgramID", err)
		}
	})

	t.Run("missing accounts", func(t *testing.T) {
		instruction := escrow.TransferInstruction(program, admin.Address(), f.escrow, f.destination, 1)
		instruction.Accounts = instruction.Accounts[:3]
		_, err := f.harness.Submit(admin, []ledger.Instruction{instruction})
		if !errors.Is(err, ledger.ErrNotEnoughAccountKeys) {
			t.Errorf("error = %v, want ErrNotEnoughAccountKeys", err)
		}
	})

	if got := f.harness.Balance(f.escrow); got != 100 {
		t.Errorf("escrow balance after rejected releases = %d, want 100", got)
	}
}

func TestReleaseFromAccountWithOtherAuthority(t *testing.T) {
	f := newFixture(t, 0)
	owner := f.harness.NewSigner()
	mintAuthority := f.harness.NewSigner()
	mint := f.harness.CreateMint(mintAuthority.Address(), 0)
	decoy := f.harness.CreateTokenAccount(mint, owner.Address())
	destination := f.harness.CreateTokenAccount(mint, f.harness.NewSigner().Address())
	f.harness.MintTo(mint, decoy, mintAuthority, 50)

	// A valid admin signature is not enough: the derived authority must
	// be the one the source account trusts.
	instruction := escrow.TransferInstruction(f.harness.Deployment.EscrowProgram, f.harness.Admin.Address(), decoy, destination, 10)
	_, err := f.harness.Submit(f.harness.Admin, []ledger.Instruction{instruction})
	if !errors.Is(err, ledger.ErrInvalidSeeds) {
		t.Errorf("error = %v, want ErrInvalidSeeds", err)
	}
	if got := f.harness.Balance(decoy); got != 50 {
		t.Errorf("decoy balance = %d, want 50", got)
	}
}

func TestAmountCodec(t *testing.T) {
	data := escrow.EncodeAmount(0x0102030405060708)
	want := []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}
	if string(data) != string(want) {
		t.Fatalf("EncodeAmount = %x, want %x", data, want)
	}
	amount, err := escrow.DecodeAmount(data)
	if err != nil {
		t.Fatalf("DecodeAmount: %v", err)
	}
	if amount != 0x0102030405060708 {
		t.Errorf("DecodeAmount = %#x", amount)
	}
	for _, size := range []int{0, 7, 9} {
		if _, err := escrow.DecodeAmount(make([]byte, size)); !errors.Is(err, ledger.ErrInvalidInstructionData) {
			t.Errorf("DecodeAmount(%d bytes) error = %v, want ErrInvalidInstructionData", size, err)
		}
	}
}

func TestAuthorityDerivation(t *testing.T) {
	programID := address.MustParse("APhs9BDFEV3avcHGPQuFaDW8FMKavkRRGJXusyUKBPr5")
	canonical, err := escrow.DeriveAuthority(programID)
	if err != nil {
		t.Fatalf("DeriveAuthority: %v", err)
	}
	explicit, err := escrow.AuthorityWithBump(programID, canonical.Bump)
	if err != nil {
		t.Fatalf("AuthorityWithBump: %v", err)
	}
	if explicit != canonical {
		t.Errorf("AuthorityWithBump = %+v, want %+v", explicit, canonical)
	}
	if len(canonical.Seeds()) != 2 || string(canonical.Seeds()[0]) != escrow.AuthoritySeed {
		t.Errorf("Seeds = %q", canonical.Seeds())
	}
}

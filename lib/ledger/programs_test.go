// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package ledger_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/clock"
	"github.com/metaloot/metaloot/lib/derive"
	"github.com/metaloot/metaloot/lib/ledger"
)

// Two small programs exercise the host: an allocator that creates
// accounts (installed at the zero address, where new accounts start
// out owned) and a counter that owns one-byte accounts and makes
// cross-program calls.

var (
	allocatorID = address.Zero
	counterID   = address.MustParse("APhs9BDFEV3avcHGPQuFaDW8FMKavkRRGJXusyUKBPr5")
)

var counterSeed = []byte("counter")

const (
	opIncrement byte = iota + 1
	opScribble
	opIncrementThenFail
	opCreate
	opEscalate
	opRecurse
)

func allocateInstruction(target, owner address.Address, space byte) ledger.Instruction {
	return ledger.Instruction{
		ProgramID: allocatorID,
		Accounts:  []ledger.AccountMeta{ledger.Writable(target, true)},
		Data:      append(owner.Bytes(), space),
	}
}

func allocate(_ *ledger.InvokeContext, accounts []*ledger.AccountInfo, data []byte) error {
	target, err := ledger.NewAccounts(accounts).Next()
	if err != nil {
		return err
	}
	if !target.IsSigner {
		return ledger.ErrMissingRequiredSignature
	}
	if len(data) != address.Size+1 {
		return ledger.ErrInvalidInstructionData
	}
	owner, err := address.FromBytes(data[:address.Size])
	if err != nil {
		return err
	}
	if err := target.Allocate(uint64(data[address.Size])); err != nil {
		return err
	}
	target.Assign(owner)
	return nil
}

func count(invoke *ledger.InvokeContext, accounts []*ledger.AccountInfo, data []byte) error {
	if len(data) != 1 {
		return ledger.ErrInvalidInstructionData
	}
	iter := ledger.NewAccounts(accounts)
	switch data[0] {
	case opIncrement, opIncrementThenFail:
		target, err := iter.Next()
		if err != nil {
			return err
		}
		value := target.Data()
		if len(value) != 1 {
			return ledger.ErrNotInitialized
		}
		value[0]++
		if err := target.SetData(value); err != nil {
			return err
		}
		invoke.Log("counter %s = %d", target.Key.Short(), value[0])
		if data[0] == opIncrementThenFail {
			return ledger.ErrInvalidArgument
		}
		return nil

	case opScribble:
		target, err := iter.Next()
		if err != nil {
			return err
		}
		return target.SetData([]byte{0xff})

	case opCreate:
		if _, err := iter.Next(); err != nil {
			return err
		}
		target, err := iter.Next()
		if err != nil {
			return err
		}
		derived, bump, err := invoke.FindProgramAddress([][]byte{counterSeed})
		if err != nil {
			return err
		}
		if target.Key != derived {
			return ledger.ErrInvalidSeeds
		}
		return invoke.InvokeSigned(allocateInstruction(target.Key, counterID, 1), [][]byte{counterSeed, {bump}})

	case opEscalate:
		if _, err := iter.Next(); err != nil {
			return err
		}
		target, err := iter.Next()
		if err != nil {
			return err
		}
		return invoke.Invoke(allocateInstruction(target.Key, counterID, 1))

	case opRecurse:
		return invoke.Invoke(ledger.Instruction{
			ProgramID: counterID,
			Accounts:  []ledger.AccountMeta{ledger.Readonly(counterID, false)},
			Data:      []byte{opRecurse},
		})
	}
	return ledger.ErrInvalidInstructionData
}

type testSigner struct {
	key     ed25519.PrivateKey
	address address.Address
}

func newSigner(t *testing.T) *testSigner {
	t.Helper()
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	key, err := address.FromPublicKey(public)
	if err != nil {
		t.Fatalf("FromPublicKey: %v", err)
	}
	return &testSigner{key: private, address: key}
}

func (s *testSigner) Address() address.Address { return s.address }

func (s *testSigner) Sign(message []byte) address.Signature {
	var signature address.Signature
	copy(signature[:], ed25519.Sign(s.key, message))
	return signature
}

type fixture struct {
	bank  *ledger.Bank
	store *ledger.MemoryStore
	payer *testSigner
	nonce uint64
}

func newFixture(t *testing.T, budget uint64) *fixture {
	t.Helper()
	store := ledger.NewMemoryStore()
	bank, err := ledger.NewBank(ledger.Config{
		Store:         store,
		Clock:         clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		ComputeBudget: budget,
	})
	if err != nil {
		t.Fatalf("NewBank: %v", err)
	}
	if err := bank.Register(allocatorID, ledger.ProgramFunc(allocate)); err != nil {
		t.Fatalf("Register allocator: %v", err)
	}
	if err := bank.Register(counterID, ledger.ProgramFunc(count)); err != nil {
		t.Fatalf("Register counter: %v", err)
	}
	return &fixture{bank: bank, store: store, payer: newSigner(t)}
}

func (f *fixture) transaction(t *testing.T, instructions ...ledger.Instruction) *ledger.Transaction {
	t.Helper()
	f.nonce++
	transaction, err := ledger.Sign(ledger.Message{
		Payer:        f.payer.Address(),
		Nonce:        f.nonce,
		Instructions: instructions,
	}, f.payer)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return transaction
}

func (f *fixture) submit(t *testing.T, instructions ...ledger.Instruction) (*ledger.Receipt, error) {
	t.Helper()
	return f.bank.Process(context.Background(), f.transaction(t, instructions...))
}

// counterAddress returns the derived counter account.
func counterAddress(t *testing.T) address.Address {
	t.Helper()
	derived, _, err := derive.Find([][]byte{counterSeed}, counterID)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	return derived
}

func createInstruction(target address.Address) ledger.Instruction {
	return ledger.Instruction{
		ProgramID: counterID,
		Accounts: []ledger.AccountMeta{
			ledger.Readonly(allocatorID, false),
			ledger.Writable(target, false),
		},
		Data: []byte{opCreate},
	}
}

func incrementInstruction(target address.Address) ledger.Instruction {
	return ledger.Instruction{
		ProgramID: counterID,
		Accounts:  []ledger.AccountMeta{ledger.Writable(target, false)},
		Data:      []byte{opIncrement},
	}
}

// requireCode fails the test unless err carries the given sentinel.
func requireCode(t *testing.T, err error, want *ledger.ProgramError) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", want.Code())
	}
	if !errors.Is(err, want) {
		t.Fatalf("error = %v (code %q), want %s", err, ledger.Code(err), want.Code())
	}
}

// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

// Package ledgertest provides an in-memory bank with every MetaLoot
// program installed, for tests.
//
// All helpers call t.Fatalf on setup failure rather than returning
// errors, since test setup failures are not recoverable. [Harness.Submit]
// is the exception: it returns the processing error so tests can assert
// on it.
package ledgertest

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/clock"
	"github.com/metaloot/metaloot/lib/config"
	"github.com/metaloot/metaloot/lib/escrow"
	"github.com/metaloot/metaloot/lib/keypair"
	"github.com/metaloot/metaloot/lib/ledger"
	"github.com/metaloot/metaloot/lib/localnet"
	"github.com/metaloot/metaloot/lib/registry"
	"github.com/metaloot/metaloot/lib/token"
)

// Epoch is the fake clock's starting time.
var Epoch = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

// Harness is a bank over a MemoryStore with a fake clock.
type Harness struct {
	Bank       *ledger.Bank
	Store      *ledger.MemoryStore
	Clock      *clock.FakeClock
	Deployment localnet.Deployment

	// Admin is the escrow program's configured admin.
	Admin *keypair.Keypair

	// Registry is a client for the deployed registry program.
	Registry registry.Client

	t     testing.TB
	nonce atomic.Uint64
}

// New returns a harness with the programs deployed at their default
// ids and the canonical escrow authority bump.
func New(t testing.TB) *Harness {
	t.Helper()
	h := &Harness{
		Store: ledger.NewMemoryStore(),
		Clock: clock.Fake(Epoch),
		t:     t,
	}
	h.Admin = h.NewSigner()

	authority, err := escrow.DeriveAuthority(config.DefaultEscrowProgram)
	if err != nil {
		t.Fatalf("deriving escrow authority: %v", err)
	}
	h.Deployment = localnet.Deployment{
		RegistryProgram: config.DefaultRegistryProgram,
		EscrowProgram:   config.DefaultEscrowProgram,
		Escrow:          escrow.Config{Admin: h.Admin.Address(), AuthorityBump: authority.Bump},
	}
	h.Registry = h.Deployment.Registry()

	h.Bank, err = ledger.NewBank(ledger.Config{Store: h.Store, Clock: h.Clock})
	if err != nil {
		t.Fatalf("NewBank: %v", err)
	}
	if err := localnet.Install(h.Bank, h.Deployment); err != nil {
		t.Fatalf("Install: %v", err)
	}
	return h
}

// NewSigner generates a keypair that is closed when the test ends.
func (h *Harness) NewSigner() *keypair.Keypair {
	h.t.Helper()
	signer, err := keypair.Generate()
	if err != nil {
		h.t.Fatalf("generating keypair: %v", err)
	}
	h.t.Cleanup(func() { signer.Close() })
	return signer
}

// Submit signs instructions with payer and signers, advances the clock
// by one second, and processes the transaction.
func (h *Harness) Submit(payer ledger.Signer, instructions []ledger.Instruction, signers ...ledger.Signer) (*ledger.Receipt, error) {
	h.t.Helper()
	transaction, err := localnet.Sign(payer, h.nonce.Add(1), instructions, signers...)
	if err != nil {
		h.t.Fatalf("signing transaction: %v", err)
	}
	h.Clock.Advance(time.Second)
	return h.Bank.Process(context.Background(), transaction)
}

// MustSubmit is Submit for transactions the test expects to commit.
func (h *Harness) MustSubmit(payer ledger.Signer, instructions []ledger.Instruction, signers ...ledger.Signer) *ledger.Receipt {
	h.t.Helper()
	receipt, err := h.Submit(payer, instructions, signers...)
	if err != nil {
		h.t.Fatalf("transaction failed: %v", err)
	}
	return receipt
}

// Account returns the committed account at key, failing the test if
// there is none.
func (h *Harness) Account(key address.Address) *ledger.Account {
	h.t.Helper()
	account, err := h.Bank.Account(context.Background(), key)
	if err != nil {
		h.t.Fatalf("loading account %s: %v", key, err)
	}
	return account
}

// EscrowAuthority returns the address the escrow program signs as.
func (h *Harness) EscrowAuthority() address.Address {
	h.t.Helper()
	authority, err := h.Deployment.EscrowAuthority()
	if err != nil {
		h.t.Fatalf("escrow authority: %v", err)
	}
	return authority.Address
}

// CreateMint creates a mint controlled by authority, paid for by a
// fresh signer.
func (h *Harness) CreateMint(authority address.Address, decimals uint8) address.Address {
	h.t.Helper()
	payer := h.NewSigner()
	mint := h.NewSigner()
	instructions, err := token.CreateMintInstructions(payer.Address(), mint.Address(), authority, decimals)
	if err != nil {
		h.t.Fatalf("CreateMintInstructions: %v", err)
	}
	h.MustSubmit(payer, instructions, mint)
	return mint.Address()
}

// CreateTokenAccount creates an empty token account for mint controlled
// by authority.
func (h *Harness) CreateTokenAccount(mint, authority address.Address) address.Address {
	h.t.Helper()
	payer := h.NewSigner()
	account := h.NewSigner()
	instructions, err := token.CreateAccountInstructions(payer.Address(), account.Address(), mint, authority)
	if err != nil {
		h.t.Fatalf("CreateAccountInstructions: %v", err)
	}
	h.MustSubmit(payer, instructions, account)
	return account.Address()
}

// MintTo mints amount into destination, signed by the mint authority.
func (h *Harness) MintTo(mint, destination address.Address, authority *keypair.Keypair, amount uint64) {
	h.t.Helper()
	instruction, err := token.MintToInstruction(mint, destination, authority.Address(), amount)
	if err != nil {
		h.t.Fatalf("MintToInstruction: %v", err)
	}
	h.MustSubmit(authority, []ledger.Instruction{instruction})
}

// Balance returns the amount held by a token account.
func (h *Harness) Balance(account address.Address) uint64 {
	h.t.Helper()
	state, err := token.FetchAccount(context.Background(), h.Bank, account)
	if err != nil {
		h.t.Fatalf("FetchAccount %s: %v", account, err)
	}
	return state.Amount
}

// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/clock"
)

// Config holds the parameters for NewBank.
type Config struct {
	// Store holds committed accounts and receipts. Required.
	Store AccountStore

	// Clock stamps receipts. Required; use clock.Real() in production.
	Clock clock.Clock

	// Logger receives one record per processed transaction. Nil
	// discards.
	Logger *slog.Logger

	// ComputeBudget is the per-transaction compute limit. Zero selects
	// DefaultComputeBudget.
	ComputeBudget uint64
}

// Bank processes transactions against an AccountStore. Transactions are
// applied one at a time; each either commits every account change it
// made or none of them.
type Bank struct {
	store         AccountStore
	clock         clock.Clock
	logger        *slog.Logger
	computeBudget uint64

	mu       sync.Mutex
	programs map[address.Address]Program
}

// NewBank creates a Bank with no registered programs.
func NewBank(config Config) (*Bank, error) {
	if config.Store == nil {
		return nil, errors.New("ledger: Store is required")
	}
	if config.Clock == nil {
		return nil, errors.New("ledger: Clock is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	budget := config.ComputeBudget
	if budget == 0 {
		budget = DefaultComputeBudget
	}
	return &Bank{
		store:         config.Store,
		clock:         config.Clock,
		logger:        logger,
		computeBudget: budget,
		programs:      make(map[address.Address]Program),
	}, nil
}

// Register installs program at id. Registered programs appear as
// executable accounts and cannot be modified by transactions.
func (b *Bank) Register(id address.Address, program Program) error {
	if program == nil {
		return fmt.Errorf("ledger: nil program for %s", id)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.programs[id]; exists {
		return fmt.Errorf("ledger: program %s already registered", id)
	}
	b.programs[id] = program
	return nil
}

// Process verifies, executes, and commits a transaction. Instruction
// failures are returned as *TransactionError and leave the store
// untouched.
func (b *Bank) Process(ctx context.Context, transaction *Transaction) (*Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := transaction.ID()
	logger := b.logger.With("transaction", id.String())

	if _, err := transaction.verify(); err != nil {
		logger.Warn("transaction rejected", "error", err)
		return nil, err
	}
	seen, err := b.store.ContainsTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ledger: checking transaction %s: %w", id, err)
	}
	if seen {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTransaction, id)
	}

	run := &execution{
		working: newWorkingSet(ctx, b.store, b.programs),
		meter:   &meter{budget: b.computeBudget},
	}
	for index, instruction := range transaction.Message.Instructions {
		if err := b.invoke(run, instruction, 1); err != nil {
			logger.Info("transaction failed",
				"instruction", index,
				"program", instruction.ProgramID.String(),
				"code", Code(err),
				"error", err,
			)
			return nil, &TransactionError{Instruction: index, Err: err}
		}
	}

	accounts := run.working.modified()
	digest, err := StateDigest(accounts)
	if err != nil {
		return nil, err
	}
	latest, err := b.store.LatestSlot(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger: reading latest slot: %w", err)
	}
	receipt := Receipt{
		Signature:    id,
		Slot:         latest + 1,
		CommittedAt:  b.clock.Now().UTC(),
		ComputeUnits: run.meter.consumed,
		StateDigest:  digest,
		Logs:         run.logs,
	}
	if err := b.store.Commit(ctx, &CommitBatch{Receipt: receipt, Accounts: accounts}); err != nil {
		return nil, fmt.Errorf("ledger: committing transaction %s: %w", id, err)
	}

	logger.Info("transaction committed",
		"slot", receipt.Slot,
		"accounts", len(accounts),
		"compute_units", receipt.ComputeUnits,
	)
	return &receipt, nil
}

// invoke runs one instruction at depth and verifies its account
// changes.
func (b *Bank) invoke(run *execution, instruction Instruction, depth int) error {
	program, ok := b.programs[instruction.ProgramID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedProgram, instruction.ProgramID)
	}
	if err := run.meter.consume(InvokeCost); err != nil {
		return err
	}
	ordered, distinct, err := run.working.accountInfos(instruction.Accounts)
	if err != nil {
		return err
	}
	invoke := &InvokeContext{
		bank:      b,
		run:       run,
		programID: instruction.ProgramID,
		depth:     depth,
		accounts:  distinct,
	}
	invoke.capture()
	if err := program.Process(invoke, ordered, instruction.Data); err != nil {
		return err
	}
	return invoke.verify()
}

// Account returns the committed account at key. Registered programs are
// reported as executable accounts with no data.
func (b *Bank) Account(ctx context.Context, key address.Address) (*Account, error) {
	b.mu.Lock()
	_, isProgram := b.programs[key]
	b.mu.Unlock()
	if isProgram {
		return &Account{Executable: true}, nil
	}
	return b.store.LoadAccount(ctx, key)
}

// AccountsByOwner returns the committed accounts owned by owner.
func (b *Bank) AccountsByOwner(ctx context.Context, owner address.Address) ([]KeyedAccount, error) {
	return b.store.AccountsByOwner(ctx, owner)
}

// StateDigest returns the digest of every committed account.
func (b *Bank) StateDigest(ctx context.Context) (Digest, error) {
	accounts, err := b.store.Accounts(ctx)
	if err != nil {
		return Digest{}, err
	}
	return StateDigest(accounts)
}

// Store returns the bank's account store.
func (b *Bank) Store() AccountStore { return b.store }

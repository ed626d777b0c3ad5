// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package localnet

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/metaloot/metaloot/lib/accountstore"
	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/clock"
	"github.com/metaloot/metaloot/lib/config"
	"github.com/metaloot/metaloot/lib/ledger"
)

// Node is a bank over a SQLite account store.
type Node struct {
	Bank       *ledger.Bank
	Store      *accountstore.Store
	Deployment Deployment

	clock  clock.Clock
	logger *slog.Logger

	mu        sync.Mutex
	lastNonce uint64
}

// Open opens the account store at cfg.Ledger.Database and installs the
// configured programs. The caller must call Close.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Node, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	deployment, err := DeploymentFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	store, err := accountstore.Open(accountstore.Config{
		Path:     cfg.Ledger.Database,
		PoolSize: cfg.Ledger.PoolSize,
		Logger:   logger.With("component", "accountstore"),
	})
	if err != nil {
		return nil, err
	}
	return newNode(ctx, store, deployment, clock.Real(), cfg.Ledger.ComputeBudget, logger)
}

func newNode(ctx context.Context, store *accountstore.Store, deployment Deployment, source clock.Clock, budget uint64, logger *slog.Logger) (*Node, error) {
	bank, err := ledger.NewBank(ledger.Config{
		Store:         store,
		Clock:         source,
		Logger:        logger.With("component", "bank"),
		ComputeBudget: budget,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := Install(bank, deployment); err != nil {
		store.Close()
		return nil, err
	}

	slot, err := store.LatestSlot(ctx)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("localnet: reading latest slot: %w", err)
	}
	logger.Info("ledger opened",
		"slot", slot,
		"registry_program", deployment.RegistryProgram.String(),
		"escrow_program", deployment.EscrowProgram.String(),
	)
	return &Node{
		Bank:       bank,
		Store:      store,
		Deployment: deployment,
		clock:      source,
		logger:     logger,
	}, nil
}

// nonce returns a value strictly greater than any the node has handed
// out, tracking the clock where it can.
func (n *Node) nonce() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	next := uint64(n.clock.Now().UnixNano())
	if next <= n.lastNonce {
		next = n.lastNonce + 1
	}
	n.lastNonce = next
	return next
}

// Submit signs instructions with payer and signers and processes the
// resulting transaction.
func (n *Node) Submit(ctx context.Context, payer ledger.Signer, instructions []ledger.Instruction, signers ...ledger.Signer) (*ledger.Receipt, error) {
	transaction, err := Sign(payer, n.nonce(), instructions, signers...)
	if err != nil {
		return nil, err
	}
	return n.Bank.Process(ctx, transaction)
}

// Close closes the account store.
func (n *Node) Close() error {
	return n.Store.Close()
}

// Sign builds a transaction paid for by payer. signers may repeat the
// payer; each key signs once.
func Sign(payer ledger.Signer, nonce uint64, instructions []ledger.Instruction, signers ...ledger.Signer) (*ledger.Transaction, error) {
	all := []ledger.Signer{payer}
	seen := map[address.Address]bool{payer.Address(): true}
	for _, signer := range signers {
		if seen[signer.Address()] {
			continue
		}
		seen[signer.Address()] = true
		all = append(all, signer)
	}
	return ledger.Sign(ledger.Message{
		Payer:        payer.Address(),
		Nonce:        nonce,
		Instructions: instructions,
	}, all...)
}

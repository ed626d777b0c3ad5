// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package localnet

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/metaloot/metaloot/lib/clock"
	"github.com/metaloot/metaloot/lib/config"
	"github.com/metaloot/metaloot/lib/escrow"
	"github.com/metaloot/metaloot/lib/keypair"
	"github.com/metaloot/metaloot/lib/ledger"
	"github.com/metaloot/metaloot/lib/token"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Ledger.Root = t.TempDir()
	cfg.Ledger.Database = filepath.Join(cfg.Ledger.Root, "ledger.db")
	cfg.Ledger.PoolSize = 2
	return cfg
}

func testSigner(t *testing.T) *keypair.Keypair {
	t.Helper()
	signer, err := keypair.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	t.Cleanup(func() { signer.Close() })
	return signer
}

func TestDeploymentFromConfig(t *testing.T) {
	cfg := testConfig(t)
	canonical, err := escrow.DeriveAuthority(cfg.Programs.Escrow)
	if err != nil {
		t.Fatalf("DeriveAuthority: %v", err)
	}

	deployment, err := DeploymentFromConfig(cfg)
	if err != nil {
		t.Fatalf("DeploymentFromConfig: %v", err)
	}
	if deployment.Escrow.AuthorityBump != canonical.Bump {
		t.Errorf("derived bump = %d, want %d", deployment.Escrow.AuthorityBump, canonical.Bump)
	}

	cfg.Escrow.AuthorityBump = 17
	deployment, err = DeploymentFromConfig(cfg)
	if err != nil {
		t.Fatalf("DeploymentFromConfig: %v", err)
	}
	if deployment.Escrow.AuthorityBump != 17 {
		t.Errorf("fixed bump = %d, want 17", deployment.Escrow.AuthorityBump)
	}

	cfg.Escrow.AuthorityBump = 256
	if _, err := DeploymentFromConfig(cfg); err == nil {
		t.Error("bump 256 accepted")
	}
}

func TestNodePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	creator := testSigner(t)

	node, err := Open(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	client := node.Deployment.Registry()
	initialize, err := client.InitializeRegistry(creator.Address())
	if err != nil {
		t.Fatal(err)
	}
	create, err := client.CreateStudio(creator.Address(), "Acme", "ACM", "u1", true)
	if err != nil {
		t.Fatal(err)
	}
	receipt, err := node.Submit(ctx, creator, []ledger.Instruction{initialize, create})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if receipt.Slot != 1 {
		t.Errorf("first receipt slot = %d, want 1", receipt.Slot)
	}
	digest, err := node.Bank.StateDigest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := node.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	node, err = Open(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer node.Close()

	reopened, err := node.Bank.StateDigest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if reopened != digest {
		t.Errorf("state digest changed across reopen: %s then %s", digest, reopened)
	}
	listed, err := client.ListStudios(ctx, node.Bank)
	if err != nil {
		t.Fatalf("ListStudios: %v", err)
	}
	if len(listed) != 1 || listed[0].Entry.Creator != creator.Address() {
		t.Errorf("ListStudios = %+v", listed)
	}

	stored, err := node.Store.Receipt(ctx, receipt.Signature)
	if err != nil {
		t.Fatalf("Receipt: %v", err)
	}
	if stored.StateDigest != receipt.StateDigest {
		t.Errorf("stored receipt digest = %s, want %s", stored.StateDigest, receipt.StateDigest)
	}
}

func TestNodeEscrowRelease(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	admin := testSigner(t)
	mintAuthority := testSigner(t)
	cfg.Escrow.Admin = admin.Address()

	node, err := Open(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer node.Close()
	authority, err := node.Deployment.EscrowAuthority()
	if err != nil {
		t.Fatal(err)
	}

	mint := testSigner(t)
	escrowAccount := testSigner(t)
	destination := testSigner(t)
	var instructions []ledger.Instruction
	created, err := token.CreateMintInstructions(mintAuthority.Address(), mint.Address(), mintAuthority.Address(), 0)
	if err != nil {
		t.Fatal(err)
	}
	instructions = append(instructions, created...)
	created, err = token.CreateAccountInstructions(mintAuthority.Address(), escrowAccount.Address(), mint.Address(), authority.Address)
	if err != nil {
		t.Fatal(err)
	}
	instructions = append(instructions, created...)
	created, err = token.CreateAccountInstructions(mintAuthority.Address(), destination.Address(), mint.Address(), mintAuthority.Address())
	if err != nil {
		t.Fatal(err)
	}
	instructions = append(instructions, created...)
	mintTo, err := token.MintToInstruction(mint.Address(), escrowAccount.Address(), mintAuthority.Address(), 40)
	if err != nil {
		t.Fatal(err)
	}
	instructions = append(instructions, mintTo)
	if _, err := node.Submit(ctx, mintAuthority, instructions, mint, escrowAccount, destination); err != nil {
		t.Fatalf("setup: %v", err)
	}

	release := escrow.TransferInstruction(cfg.Programs.Escrow, admin.Address(), escrowAccount.Address(), destination.Address(), 15)
	if _, err := node.Submit(ctx, admin, []ledger.Instruction{release}); err != nil {
		t.Fatalf("release: %v", err)
	}
	state, err := token.FetchAccount(ctx, node.Bank, destination.Address())
	if err != nil {
		t.Fatal(err)
	}
	if state.Amount != 15 {
		t.Errorf("destination amount = %d, want 15", state.Amount)
	}
}

func TestNonceIsMonotonic(t *testing.T) {
	node := &Node{clock: clock.Fake(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))}
	first := node.nonce()
	second := node.nonce()
	if second <= first {
		t.Errorf("nonce went from %d to %d", first, second)
	}
}

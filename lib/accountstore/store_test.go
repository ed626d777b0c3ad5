// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package accountstore

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/codec"
	"github.com/metaloot/metaloot/lib/ledger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(Config{Path: filepath.Join(t.TempDir(), "ledger.db"), PoolSize: 2})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return store
}

func testAddress(fill byte) address.Address {
	var key address.Address
	for i := range key {
		key[i] = fill
	}
	return key
}

func testBatch(slot uint64, accounts ...ledger.KeyedAccount) *ledger.CommitBatch {
	return &ledger.CommitBatch{
		Receipt: ledger.Receipt{
			Signature:    address.Signature{byte(slot), 0xaa},
			Slot:         slot,
			CommittedAt:  time.Date(2026, 3, 1, 12, 0, int(slot), 0, time.UTC),
			ComputeUnits: 1000 * slot,
			Logs:         []string{"ok"},
		},
		Accounts: accounts,
	}
}

func TestCommitAndLoad(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	owner := testAddress(0x70)

	if _, err := store.LoadAccount(ctx, testAddress(1)); !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Fatalf("LoadAccount on empty store: %v, want ErrAccountNotFound", err)
	}
	slot, err := store.LatestSlot(ctx)
	if err != nil || slot != 0 {
		t.Fatalf("LatestSlot on empty store = %d, %v", slot, err)
	}

	err = store.Commit(ctx, testBatch(1,
		ledger.KeyedAccount{Address: testAddress(2), Account: ledger.Account{Owner: owner, Data: []byte("second")}},
		ledger.KeyedAccount{Address: testAddress(1), Account: ledger.Account{Owner: owner}},
		ledger.KeyedAccount{Address: testAddress(3), Account: ledger.Account{Owner: testAddress(0x71), Executable: true}},
	))
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	account, err := store.LoadAccount(ctx, testAddress(2))
	if err != nil {
		t.Fatalf("LoadAccount: %v", err)
	}
	if account.Owner != owner || string(account.Data) != "second" || account.Executable {
		t.Errorf("LoadAccount = %+v", account)
	}
	empty, err := store.LoadAccount(ctx, testAddress(1))
	if err != nil {
		t.Fatalf("LoadAccount: %v", err)
	}
	if len(empty.Data) != 0 {
		t.Errorf("empty account data = %v", empty.Data)
	}
	program, err := store.LoadAccount(ctx, testAddress(3))
	if err != nil {
		t.Fatalf("LoadAccount: %v", err)
	}
	if !program.Executable {
		t.Error("Executable flag lost")
	}

	owned, err := store.AccountsByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("AccountsByOwner: %v", err)
	}
	if len(owned) != 2 || owned[0].Address != testAddress(1) || owned[1].Address != testAddress(2) {
		t.Errorf("AccountsByOwner = %v, want accounts 1 and 2 in address order", owned)
	}

	// A later commit overwrites in place.
	err = store.Commit(ctx, testBatch(2,
		ledger.KeyedAccount{Address: testAddress(2), Account: ledger.Account{Owner: owner, Data: []byte("updated")}},
	))
	if err != nil {
		t.Fatalf("second Commit: %v", err)
	}
	account, err = store.LoadAccount(ctx, testAddress(2))
	if err != nil {
		t.Fatalf("LoadAccount: %v", err)
	}
	if string(account.Data) != "updated" {
		t.Errorf("Data = %q, want updated", account.Data)
	}
	all, err := store.Accounts(ctx)
	if err != nil {
		t.Fatalf("Accounts: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Accounts returned %d, want 3", len(all))
	}

	slot, err = store.LatestSlot(ctx)
	if err != nil || slot != 2 {
		t.Errorf("LatestSlot = %d, %v; want 2", slot, err)
	}
}

func TestReceipts(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	batch := testBatch(1)
	if err := store.Commit(ctx, batch); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	seen, err := store.ContainsTransaction(ctx, batch.Receipt.Signature)
	if err != nil || !seen {
		t.Fatalf("ContainsTransaction = %v, %v; want true", seen, err)
	}
	seen, err = store.ContainsTransaction(ctx, address.Signature{0xff})
	if err != nil || seen {
		t.Fatalf("ContainsTransaction(unknown) = %v, %v; want false", seen, err)
	}

	receipt, err := store.Receipt(ctx, batch.Receipt.Signature)
	if err != nil {
		t.Fatalf("Receipt: %v", err)
	}
	if receipt.Slot != 1 || receipt.ComputeUnits != 1000 || len(receipt.Logs) != 1 {
		t.Errorf("Receipt = %+v", receipt)
	}
	if _, err := store.Receipt(ctx, address.Signature{0xff}); !errors.Is(err, ErrNoReceipt) {
		t.Errorf("Receipt(unknown): %v, want ErrNoReceipt", err)
	}

	// The same signature cannot be committed twice.
	if err := store.Commit(ctx, batch); err == nil {
		t.Error("Commit accepted a duplicate receipt")
	}
}

func TestFailedCommitRollsBack(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	if err := store.Commit(ctx, testBatch(1)); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	// Reusing the signature fails on the receipt insert, after the
	// account write. The account must not survive.
	duplicate := testBatch(1, ledger.KeyedAccount{Address: testAddress(9), Account: ledger.Account{Owner: testAddress(1)}})
	if err := store.Commit(ctx, duplicate); err == nil {
		t.Fatal("expected duplicate commit to fail")
	}
	if _, err := store.LoadAccount(ctx, testAddress(9)); !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Errorf("account from failed commit is visible: %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := ledger.NewMemoryStore()
	err := source.Commit(ctx, testBatch(7,
		ledger.KeyedAccount{Address: testAddress(1), Account: ledger.Account{Owner: testAddress(0x70), Data: bytes.Repeat([]byte("studio"), 100)}},
		ledger.KeyedAccount{Address: testAddress(2), Account: ledger.Account{Owner: testAddress(0x71)}},
	))
	if err != nil {
		t.Fatal(err)
	}

	var snapshot bytes.Buffer
	header, err := Export(ctx, source, &snapshot)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if header.Slot != 7 || header.Accounts != 2 {
		t.Errorf("header = %+v", header)
	}

	target := openTestStore(t)
	imported, err := target.Import(ctx, bytes.NewReader(snapshot.Bytes()))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if imported.StateDigest != header.StateDigest {
		t.Errorf("imported digest %s, exported %s", imported.StateDigest, header.StateDigest)
	}

	accounts, err := target.Accounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	digest, err := ledger.StateDigest(accounts)
	if err != nil {
		t.Fatal(err)
	}
	if digest != header.StateDigest {
		t.Errorf("store digest after import %s, want %s", digest, header.StateDigest)
	}
	slot, err := target.LatestSlot(ctx)
	if err != nil || slot != 7 {
		t.Errorf("LatestSlot after import = %d, %v; want 7", slot, err)
	}

	if _, err := target.Import(ctx, bytes.NewReader(snapshot.Bytes())); !errors.Is(err, ErrNotEmpty) {
		t.Errorf("second Import: %v, want ErrNotEmpty", err)
	}
}

func TestSnapshotDigestMismatch(t *testing.T) {
	var snapshot bytes.Buffer
	compressor, err := zstd.NewWriter(&snapshot)
	if err != nil {
		t.Fatal(err)
	}
	encoder := codec.NewEncoder(compressor)
	if err := encoder.Encode(SnapshotHeader{Version: SnapshotVersion, Slot: 1, Accounts: 1}); err != nil {
		t.Fatal(err)
	}
	if err := encoder.Encode(ledger.KeyedAccount{Address: testAddress(1), Account: ledger.Account{Owner: testAddress(2)}}); err != nil {
		t.Fatal(err)
	}
	if err := compressor.Close(); err != nil {
		t.Fatal(err)
	}

	_, _, err = ReadSnapshot(bytes.NewReader(snapshot.Bytes()))
	if !errors.Is(err, ErrSnapshotMismatch) {
		t.Errorf("ReadSnapshot: %v, want ErrSnapshotMismatch", err)
	}
}

// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package registry_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/codec"
	"github.com/metaloot/metaloot/lib/keypair"
	"github.com/metaloot/metaloot/lib/ledger"
	"github.com/metaloot/metaloot/lib/ledgertest"
	"github.com/metaloot/metaloot/lib/registry"
	"github.com/metaloot/metaloot/lib/system"
)

func requireError(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("error = %v, want %v", err, want)
	}
}

func initialize(t *testing.T, harness *ledgertest.Harness, admin *keypair.Keypair) {
	t.Helper()
	instruction, err := harness.Registry.InitializeRegistry(admin.Address())
	if err != nil {
		t.Fatalf("InitializeRegistry: %v", err)
	}
	harness.MustSubmit(admin, []ledger.Instruction{instruction})
}

func createStudio(t *testing.T, harness *ledgertest.Harness, creator *keypair.Keypair, name, symbol, uri string, withRegistry bool) error {
	t.Helper()
	instruction, err := harness.Registry.CreateStudio(creator.Address(), name, symbol, uri, withRegistry)
	if err != nil {
		t.Fatalf("CreateStudio: %v", err)
	}
	_, err = harness.Submit(creator, []ledger.Instruction{instruction})
	return err
}

func updateStudio(t *testing.T, harness *ledgertest.Harness, signer *keypair.Keypair, name, symbol string, uri *string) error {
	t.Helper()
	instruction, err := harness.Registry.UpdateStudio(signer.Address(), name, symbol, uri)
	if err != nil {
		t.Fatalf("UpdateStudio: %v", err)
	}
	_, err = harness.Submit(signer, []ledger.Instruction{instruction})
	return err
}

func fetchStudio(t *testing.T, harness *ledgertest.Harness, name, symbol string) (address.Address, *registry.StudioEntry) {
	t.Helper()
	key, entry, err := harness.Registry.LookupStudio(context.Background(), harness.Bank, symbol, name)
	if err != nil {
		t.Fatalf("LookupStudio: %v", err)
	}
	return key, entry
}

func stringPointer(s string) *string { return &s }

func TestStudioLifecycle(t *testing.T) {
	harness := ledgertest.New(t)
	alice := harness.NewSigner()
	bob := harness.NewSigner()

	initialize(t, harness, alice)
	if err := createStudio(t, harness, alice, "Acme", "ACM", "u1", true); err != nil {
		t.Fatalf("create: %v", err)
	}
	key, entry := fetchStudio(t, harness, "Acme", "ACM")
	want := registry.StudioEntry{Name: "Acme", Symbol: "ACM", URI: "u1", Creator: alice.Address()}
	if *entry != want {
		t.Fatalf("entry = %+v, want %+v", *entry, want)
	}

	if err := updateStudio(t, harness, alice, "Acme", "ACM", stringPointer("u2")); err != nil {
		t.Fatalf("update by creator: %v", err)
	}
	if _, entry := fetchStudio(t, harness, "Acme", "ACM"); entry.URI != "u2" {
		t.Errorf("URI after update = %q, want u2", entry.URI)
	}

	err := updateStudio(t, harness, bob, "Acme", "ACM", stringPointer("u3"))
	requireError(t, err, ledger.ErrUnauthorized)

	updatedKey, entry := fetchStudio(t, harness, "Acme", "ACM")
	if updatedKey != key {
		t.Errorf("entry moved from %s to %s", key, updatedKey)
	}
	if entry.URI != "u2" {
		t.Errorf("URI after rejected update = %q, want u2", entry.URI)
	}

	state, err := harness.Registry.FetchRegistry(context.Background(), harness.Bank)
	if err != nil {
		t.Fatalf("FetchRegistry: %v", err)
	}
	if !state.Initialized || state.Admin != alice.Address() {
		t.Errorf("registry = %+v, want initialized with admin %s", state, alice.Address())
	}
	if len(state.StudioAddresses) != 1 || state.StudioAddresses[0] != key {
		t.Errorf("StudioAddresses = %v, want [%s]", state.StudioAddresses, key)
	}
}

func TestInitializeRegistryTwice(t *testing.T) {
	harness := ledgertest.New(t)
	alice := harness.NewSigner()
	mallory := harness.NewSigner()

	initialize(t, harness, alice)
	if err := createStudio(t, harness, alice, "Acme", "ACM", "u1", true); err != nil {
		t.Fatalf("create: %v", err)
	}

	instruction, err := harness.Registry.InitializeRegistry(mallory.Address())
	if err != nil {
		t.Fatalf("InitializeRegistry: %v", err)
	}
	_, err = harness.Submit(mallory, []ledger.Instruction{instruction})
	requireError(t, err, ledger.ErrAlreadyInitialized)

	state, err := harness.Registry.FetchRegistry(context.Background(), harness.Bank)
	if err != nil {
		t.Fatalf("FetchRegistry: %v", err)
	}
	if state.Admin != alice.Address() {
		t.Errorf("Admin = %s, want %s", state.Admin, alice.Address())
	}
	if len(state.StudioAddresses) != 1 {
		t.Errorf("StudioAddresses = %v, want one entry", state.StudioAddresses)
	}
}

func TestFetchRegistryBeforeInitialize(t *testing.T) {
	harness := ledgertest.New(t)
	_, err := harness.Registry.FetchRegistry(context.Background(), harness.Bank)
	requireError(t, err, ledger.ErrNotInitialized)
}

func TestCreateStudioWithoutRegistry(t *testing.T) {
	harness := ledgertest.New(t)
	alice := harness.NewSigner()

	if err := createStudio(t, harness, alice, "Acme", "ACM", "u1", false); err != nil {
		t.Fatalf("create without registry: %v", err)
	}
	fetchStudio(t, harness, "Acme", "ACM")

	t.Run("registry slot before initialization", func(t *testing.T) {
		err := createStudio(t, harness, alice, "Beta", "BET", "u1", true)
		requireError(t, err, ledger.ErrNotInitialized)
	})
}

func TestCreateStudioRejects(t *testing.T) {
	harness := ledgertest.New(t)
	alice := harness.NewSigner()
	bob := harness.NewSigner()
	initialize(t, harness, alice)
	if err := createStudio(t, harness, alice, "Acme", "ACM", "u1", true); err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Run("duplicate key", func(t *testing.T) {
		err := createStudio(t, harness, bob, "Acme", "ACM", "other", true)
		requireError(t, err, ledger.ErrAccountAlreadyInUse)
	})

	t.Run("creator is not payer", func(t *testing.T) {
		instruction, err := harness.Registry.CreateStudio(alice.Address(), "Gamma", "GAM", "u1", false)
		if err != nil {
			t.Fatal(err)
		}
		body, err := registry.Encode(registry.CreateGameStudio{Name: "Gamma", Symbol: "GAM", URI: "u1", Creator: bob.Address()})
		if err != nil {
			t.Fatal(err)
		}
		instruction.Data = body
		_, err = harness.Submit(alice, []ledger.Instruction{instruction})
		requireError(t, err, ledger.ErrUnauthorized)
	})

	t.Run("spoofed entry address", func(t *testing.T) {
		instruction, err := harness.Registry.CreateStudio(alice.Address(), "Delta", "DEL", "u1", false)
		if err != nil {
			t.Fatal(err)
		}
		instruction.Accounts[2].Address = bob.Address()
		_, err = harness.Submit(alice, []ledger.Instruction{instruction})
		requireError(t, err, ledger.ErrInvalidSeeds)
	})

	t.Run("spoofed registry address", func(t *testing.T) {
		instruction, err := harness.Registry.CreateStudio(alice.Address(), "Delta", "DEL", "u1", true)
		if err != nil {
			t.Fatal(err)
		}
		instruction.Accounts[3].Address = bob.Address()
		_, err = harness.Submit(alice, []ledger.Instruction{instruction})
		requireError(t, err, ledger.ErrInvalidSeeds)
	})

	t.Run("payer not signing", func(t *testing.T) {
		instruction, err := harness.Registry.CreateStudio(bob.Address(), "Epsilon", "EPS", "u1", false)
		if err != nil {
			t.Fatal(err)
		}
		instruction.Accounts[0].IsSigner = false
		_, err = harness.Submit(alice, []ledger.Instruction{instruction})
		requireError(t, err, ledger.ErrMissingRequiredSignature)
	})

	t.Run("missing entry account", func(t *testing.T) {
		instruction, err := harness.Registry.CreateStudio(alice.Address(), "Zeta", "ZET", "u1", false)
		if err != nil {
			t.Fatal(err)
		}
		instruction.Accounts = instruction.Accounts[:2]
		_, err = harness.Submit(alice, []ledger.Instruction{instruction})
		requireError(t, err, ledger.ErrNotEnoughAccountKeys)
	})

	t.Run("wrong system program", func(t *testing.T) {
		instruction, err := harness.Registry.CreateStudio(alice.Address(), "Eta", "ETA", "u1", false)
		if err != nil {
			t.Fatal(err)
		}
		instruction.Accounts[1].Address = bob.Address()
		_, err = harness.Submit(alice, []ledger.Instruction{instruction})
		requireError(t, err, ledger.ErrIncorrectProgramID)
	})

	t.Run("name too long", func(t *testing.T) {
		// The client cannot derive an address for an over-long seed, so
		// the instruction targets a valid entry with an invalid body.
		instruction, err := harness.Registry.CreateStudio(alice.Address(), "Theta", "THE", "u1", false)
		if err != nil {
			t.Fatal(err)
		}
		body, err := registry.Encode(registry.CreateGameStudio{
			Name:    strings.Repeat("n", registry.MaxNameLength+1),
			Symbol:  "THE",
			URI:     "u1",
			Creator: alice.Address(),
		})
		if err != nil {
			t.Fatal(err)
		}
		instruction.Data = body
		_, err = harness.Submit(alice, []ledger.Instruction{instruction})
		requireError(t, err, ledger.ErrInvalidSeeds)
	})

	for _, test := range []struct {
		name         string
		studioName   string
		studioSymbol string
	}{
		{"empty symbol", "Iota", ""},
		{"empty name", "", "IOT"},
	} {
		t.Run(test.name, func(t *testing.T) {
			// The client refuses an empty key, so the body is swapped in
			// under a valid entry address.
			instruction, err := harness.Registry.CreateStudio(alice.Address(), "Iota", "IOT", "u1", false)
			if err != nil {
				t.Fatal(err)
			}
			body, err := registry.Encode(registry.CreateGameStudio{
				Name:    test.studioName,
				Symbol:  test.studioSymbol,
				URI:     "u1",
				Creator: alice.Address(),
			})
			if err != nil {
				t.Fatal(err)
			}
			instruction.Data = body
			_, err = harness.Submit(alice, []ledger.Instruction{instruction})
			requireError(t, err, ledger.ErrInvalidArgument)
		})
	}

	t.Run("uri too long", func(t *testing.T) {
		err := createStudio(t, harness, alice, "Kappa", "KAP", strings.Repeat("u", registry.MaxURILength+1), false)
		requireError(t, err, ledger.ErrInvalidArgument)
	})

	// None of the rejected creations may have touched the registry.
	state, err := harness.Registry.FetchRegistry(context.Background(), harness.Bank)
	if err != nil {
		t.Fatalf("FetchRegistry: %v", err)
	}
	if len(state.StudioAddresses) != 1 {
		t.Errorf("StudioAddresses = %v, want one entry", state.StudioAddresses)
	}
}

func TestUpdateStudioRejects(t *testing.T) {
	harness := ledgertest.New(t)
	alice := harness.NewSigner()
	if err := createStudio(t, harness, alice, "Acme", "ACM", "u1", false); err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Run("spoofed entry address", func(t *testing.T) {
		instruction, err := harness.Registry.UpdateStudio(alice.Address(), "Acme", "ACM", stringPointer("u2"))
		if err != nil {
			t.Fatal(err)
		}
		other, err := harness.Registry.Studio("OTH", "Other")
		if err != nil {
			t.Fatal(err)
		}
		instruction.Accounts[1].Address = other
		_, err = harness.Submit(alice, []ledger.Instruction{instruction})
		requireError(t, err, ledger.ErrInvalidSeeds)
	})

	t.Run("unknown studio", func(t *testing.T) {
		err := updateStudio(t, harness, alice, "Nobody", "NOB", stringPointer("u2"))
		requireError(t, err, ledger.ErrNotInitialized)
	})

	t.Run("creator not signing", func(t *testing.T) {
		payer := harness.NewSigner()
		instruction, err := harness.Registry.UpdateStudio(alice.Address(), "Acme", "ACM", stringPointer("u2"))
		if err != nil {
			t.Fatal(err)
		}
		instruction.Accounts[0].IsSigner = false
		_, err = harness.Submit(payer, []ledger.Instruction{instruction})
		requireError(t, err, ledger.ErrMissingRequiredSignature)
	})

	t.Run("missing entry account", func(t *testing.T) {
		instruction, err := harness.Registry.UpdateStudio(alice.Address(), "Acme", "ACM", stringPointer("u2"))
		if err != nil {
			t.Fatal(err)
		}
		instruction.Accounts = instruction.Accounts[:1]
		_, err = harness.Submit(alice, []ledger.Instruction{instruction})
		requireError(t, err, ledger.ErrNotEnoughAccountKeys)
	})

	if _, entry := fetchStudio(t, harness, "Acme", "ACM"); entry.URI != "u1" {
		t.Errorf("URI = %q after rejected updates, want u1", entry.URI)
	}
}

func TestUpdateWithoutURIIsNoOp(t *testing.T) {
	harness := ledgertest.New(t)
	alice := harness.NewSigner()
	if err := createStudio(t, harness, alice, "Acme", "ACM", "u1", false); err != nil {
		t.Fatalf("create: %v", err)
	}
	before, err := harness.Bank.StateDigest(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := updateStudio(t, harness, alice, "Acme", "ACM", nil); err != nil {
		t.Fatalf("update: %v", err)
	}
	after, err := harness.Bank.StateDigest(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if before != after {
		t.Errorf("state digest changed on a no-op update")
	}
}

func TestCreateStudioFailureIsAtomic(t *testing.T) {
	harness := ledgertest.New(t)
	alice := harness.NewSigner()
	initialize(t, harness, alice)

	good, err := harness.Registry.CreateStudio(alice.Address(), "Acme", "ACM", "u1", true)
	if err != nil {
		t.Fatal(err)
	}
	bad, err := harness.Registry.CreateStudio(alice.Address(), "Beta", "BET", "u1", true)
	if err != nil {
		t.Fatal(err)
	}
	bad.Accounts[2].Address = system.ProgramID
	_, err = harness.Submit(alice, []ledger.Instruction{good, bad})
	var transactionErr *ledger.TransactionError
	if !errors.As(err, &transactionErr) || transactionErr.Instruction != 1 {
		t.Fatalf("error = %v, want a failure at instruction 1", err)
	}

	key, err := harness.Registry.Studio("ACM", "Acme")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := harness.Bank.Account(context.Background(), key); !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Errorf("studio from failed transaction: %v, want ErrAccountNotFound", err)
	}
}

func TestListAndScanStudios(t *testing.T) {
	harness := ledgertest.New(t)
	alice := harness.NewSigner()
	bob := harness.NewSigner()
	initialize(t, harness, alice)

	for _, studio := range []struct {
		creator      *keypair.Keypair
		name, symbol string
		withRegistry bool
	}{
		{alice, "Acme", "ACM", true},
		{bob, "Beta", "BET", true},
		{bob, "Gamma", "GAM", false},
	} {
		if err := createStudio(t, harness, studio.creator, studio.name, studio.symbol, "u", studio.withRegistry); err != nil {
			t.Fatalf("create %s: %v", studio.name, err)
		}
	}

	listed, err := harness.Registry.ListStudios(context.Background(), harness.Bank)
	if err != nil {
		t.Fatalf("ListStudios: %v", err)
	}
	if len(listed) != 2 || listed[0].Entry.Name != "Acme" || listed[1].Entry.Name != "Beta" {
		t.Errorf("ListStudios = %+v, want Acme then Beta", listed)
	}

	scanned, err := harness.Registry.ScanStudios(context.Background(), harness.Bank)
	if err != nil {
		t.Fatalf("ScanStudios: %v", err)
	}
	if len(scanned) != 3 {
		t.Fatalf("ScanStudios returned %d studios, want 3", len(scanned))
	}
	for index := 1; index < len(scanned); index++ {
		if scanned[index-1].Address.Compare(scanned[index].Address) >= 0 {
			t.Errorf("ScanStudios not ordered by address at %d", index)
		}
	}
}

func TestStudioKeysWithSharedBytesDoNotCollide(t *testing.T) {
	harness := ledgertest.New(t)
	alice := harness.NewSigner()
	bob := harness.NewSigner()

	acme, err := harness.Registry.Studio("ACM", "Acme")
	if err != nil {
		t.Fatal(err)
	}
	shifted, err := harness.Registry.Studio("AC", "MAcme")
	if err != nil {
		t.Fatal(err)
	}
	if acme == shifted {
		t.Fatalf("ACM/Acme and AC/MAcme both derive %s", acme)
	}

	if err := createStudio(t, harness, bob, "MAcme", "AC", "squat", false); err != nil {
		t.Fatalf("create AC/MAcme: %v", err)
	}
	if err := createStudio(t, harness, alice, "Acme", "ACM", "u1", false); err != nil {
		t.Fatalf("create ACM/Acme after AC/MAcme: %v", err)
	}
	if key, entry := fetchStudio(t, harness, "Acme", "ACM"); key != acme || entry.Creator != alice.Address() || entry.URI != "u1" {
		t.Errorf("ACM/Acme = %s %+v", key, entry)
	}
	if _, entry := fetchStudio(t, harness, "MAcme", "AC"); entry.Creator != bob.Address() {
		t.Errorf("AC/MAcme creator = %s, want %s", entry.Creator, bob.Address())
	}

}

func TestEntryUnderForeignKeyIsRefused(t *testing.T) {
	ctx := context.Background()
	harness := ledgertest.New(t)
	alice := harness.NewSigner()

	// Plant an entry for OTH/Other at the address of ACM/Acme.
	key, err := harness.Registry.Studio("ACM", "Acme")
	if err != nil {
		t.Fatal(err)
	}
	data, err := codec.Marshal(registry.StudioEntry{Name: "Other", Symbol: "OTH", URI: "u1", Creator: alice.Address()})
	if err != nil {
		t.Fatal(err)
	}
	if err := harness.Store.Commit(ctx, &ledger.CommitBatch{Accounts: []ledger.KeyedAccount{{
		Address: key,
		Account: ledger.Account{Owner: harness.Registry.ProgramID, Data: data},
	}}}); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	_, _, err = harness.Registry.LookupStudio(ctx, harness.Bank, "ACM", "Acme")
	requireError(t, err, ledger.ErrInvalidSeeds)

	err = updateStudio(t, harness, alice, "Acme", "ACM", stringPointer("u2"))
	requireError(t, err, ledger.ErrInvalidSeeds)
}

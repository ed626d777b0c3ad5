// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package keypair

import (
	"crypto/ed25519"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testKeypair(t *testing.T) *Keypair {
	t.Helper()
	keypair, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	t.Cleanup(func() { keypair.Close() })
	return keypair
}

func TestSignVerifies(t *testing.T) {
	keypair := testKeypair(t)
	message := []byte("create-studio ACM Acme")
	signature := keypair.Sign(message)
	if !ed25519.Verify(keypair.PublicKey(), message, signature[:]) {
		t.Fatal("signature does not verify against the public key")
	}
	if ed25519.Verify(keypair.PublicKey(), []byte("other"), signature[:]) {
		t.Fatal("signature verifies against a different message")
	}
}

func TestSignIsRepeatable(t *testing.T) {
	message := []byte("escrow-transfer 100")
	for range 4 {
		keypair := testKeypair(t)
		first := keypair.Sign(message)
		second := keypair.Sign(message)
		if first != second {
			t.Fatalf("Ed25519 signatures differ: %s then %s", first, second)
		}
		if !ed25519.Verify(keypair.PublicKey(), message, first[:]) {
			t.Fatal("signature does not verify")
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	keypair := testKeypair(t)
	path := filepath.Join(t.TempDir(), "id.json")

	if err := Save(path, keypair); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("permissions = %o, want 600", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer loaded.Close()
	if loaded.Address() != keypair.Address() {
		t.Errorf("loaded address %s, want %s", loaded.Address(), keypair.Address())
	}

	if err := Save(path, keypair); err == nil {
		t.Error("Save overwrote an existing file")
	}
}

func TestDecodeToleratesComments(t *testing.T) {
	keypair := testKeypair(t)
	encoded := string(keypair.Encode())
	commented := "// deploy key\n" + strings.Replace(encoded, "]", ",]", 1)

	decoded, err := Decode([]byte(commented))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	defer decoded.Close()
	if decoded.Address() != keypair.Address() {
		t.Errorf("decoded address %s, want %s", decoded.Address(), keypair.Address())
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	keypair := testKeypair(t)
	mismatched := strings.Replace(string(keypair.Encode()), "[", "[0,", 1)
	mismatched = mismatched[:strings.LastIndex(mismatched, ",")] + "]"

	tests := []struct {
		name string
		data string
	}{
		{"not json", "hello"},
		{"object", `{"key": 1}`},
		{"too short", "[1,2,3]"},
		{"out of range", "[" + strings.Repeat("256,", 63) + "256]"},
		{"public half mismatch", mismatched},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Decode([]byte(test.data))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Decode: %v, want ErrMalformed", err)
			}
		})
	}
}

func TestSealedRoundTrip(t *testing.T) {
	directory := t.TempDir()
	identityPath := filepath.Join(directory, "age.key")
	recipient, err := GenerateIdentity(identityPath)
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	if !strings.HasPrefix(recipient, "age1") {
		t.Fatalf("recipient = %q, want age1... form", recipient)
	}

	keypair := testKeypair(t)
	path := filepath.Join(directory, "id.age")
	if err := SaveSealed(path, keypair, []string{recipient}); err != nil {
		t.Fatalf("SaveSealed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !IsSealed(data) {
		t.Fatalf("sealed file does not carry the age armor header:\n%s", data)
	}

	if _, err := Open(path, ""); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("Open without identity: %v, want ErrNoIdentity", err)
	}

	opened, err := Open(path, identityPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer opened.Close()
	if opened.Address() != keypair.Address() {
		t.Errorf("opened address %s, want %s", opened.Address(), keypair.Address())
	}
}

func TestOpenPlaintext(t *testing.T) {
	keypair := testKeypair(t)
	path := filepath.Join(t.TempDir(), "id.json")
	if err := Save(path, keypair); err != nil {
		t.Fatal(err)
	}
	opened, err := Open(path, "/nonexistent/identity")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer opened.Close()
	if opened.Address() != keypair.Address() {
		t.Errorf("opened address %s, want %s", opened.Address(), keypair.Address())
	}
}

func TestCloseZeroes(t *testing.T) {
	keypair, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	if err := keypair.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := keypair.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Error("Sign after Close did not panic")
		}
	}()
	keypair.Sign([]byte("x"))
}

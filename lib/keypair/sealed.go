// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package keypair

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"filippo.io/age"
	"filippo.io/age/armor"
)

// ErrNoIdentity is returned when a sealed keypair file is opened
// without an age identity.
var ErrNoIdentity = errors.New("keypair: file is sealed and no age identity was given")

// SaveSealed writes the keypair to path encrypted to every recipient
// (age1... public keys), ASCII-armored, with 0600 permissions.
func SaveSealed(path string, k *Keypair, recipientKeys []string) error {
	if len(recipientKeys) == 0 {
		return errors.New("keypair: at least one recipient is required")
	}
	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return fmt.Errorf("keypair: parsing recipient %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}

	var ciphertext bytes.Buffer
	armored := armor.NewWriter(&ciphertext)
	writer, err := age.Encrypt(armored, recipients...)
	if err != nil {
		return fmt.Errorf("keypair: creating age encryptor: %w", err)
	}
	encoded := k.Encode()
	defer clear(encoded)
	if _, err := writer.Write(encoded); err != nil {
		return fmt.Errorf("keypair: encrypting: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("keypair: finalizing encryption: %w", err)
	}
	if err := armored.Close(); err != nil {
		return fmt.Errorf("keypair: finalizing armor: %w", err)
	}
	return writeNew(path, ciphertext.Bytes())
}

// LoadSealed decrypts a sealed keypair file with the identities in
// identityPath (an age key file as written by age-keygen).
func LoadSealed(path, identityPath string) (*Keypair, error) {
	identityFile, err := os.Open(identityPath)
	if err != nil {
		return nil, fmt.Errorf("keypair: opening identity %s: %w", identityPath, err)
	}
	defer identityFile.Close()
	identities, err := age.ParseIdentities(identityFile)
	if err != nil {
		return nil, fmt.Errorf("keypair: parsing identity %s: %w", identityPath, err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("keypair: opening %s: %w", path, err)
	}
	defer file.Close()
	reader, err := age.Decrypt(armor.NewReader(file), identities...)
	if err != nil {
		return nil, fmt.Errorf("keypair: decrypting %s: %w", path, err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("keypair: reading %s: %w", path, err)
	}
	defer clear(plaintext)
	keypair, err := Decode(plaintext)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return keypair, nil
}

// IsSealed reports whether data is an armored age file.
func IsSealed(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte(armor.Header))
}

// Open loads a keypair file, decrypting it with identityPath when it
// is sealed.
func Open(path, identityPath string) (*Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keypair: reading %s: %w", path, err)
	}
	defer clear(data)
	if !IsSealed(data) {
		keypair, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return keypair, nil
	}
	if identityPath == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrNoIdentity)
	}
	return LoadSealed(path, identityPath)
}

// GenerateIdentity writes a new age X25519 identity to path and returns
// its recipient string.
func GenerateIdentity(path string) (string, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return "", fmt.Errorf("keypair: generating age identity: %w", err)
	}
	contents := fmt.Sprintf("# public key: %s\n%s\n", identity.Recipient(), identity)
	if err := writeNew(path, []byte(contents)); err != nil {
		return "", err
	}
	return identity.Recipient().String(), nil
}

// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

// Package keypair manages the Ed25519 keys that sign transactions.
//
// A keypair file is a JSON array of the 64 bytes of an Ed25519 private
// key (seed followed by public key), the format wallet tooling on the
// ledger side already uses. Comments and trailing commas are tolerated
// when reading. A file may instead be sealed to one or more age X25519
// recipients, in which case it is stored ASCII-armored and opened with
// the matching age identity file.
//
// Private key bytes live in an anonymous mapping outside the Go heap,
// locked against swap where the process is allowed to, and are zeroed
// on Close.
package keypair

// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

// Package address defines the 32-byte account address used throughout
// the ledger, along with its canonical text form.
//
// An [Address] is either an Ed25519 public key (an account controlled by
// a private key) or a program-derived address computed by lib/derive
// (an account with no private key). The type does not distinguish the
// two: the distinction is established by re-derivation at the point of
// use, never by a flag carried on the value.
//
// Text form is base58 (Bitcoin alphabet), matching the form used by
// wallets and explorers. CBOR form is a 32-byte byte string; decoding
// rejects any other length. [Signature] is the companion 64-byte Ed25519
// signature type with the same text conventions.
//
// This package depends on lib/codec for CBOR and on no other MetaLoot
// packages.
package address

// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

// Package escrow implements a program that releases tokens from an
// escrow account controlled by a derived authority.
//
// The escrow token account names as its authority an address derived
// from the seed "state" and a one-byte bump under the escrow program.
// No private key exists for that address. A configured admin signs the
// transfer instruction; the program re-derives the authority on every
// call, checks it against the escrow account, and then calls the token
// program's Transfer with the authority signing by seeds.
//
// Instruction data is the amount to move: exactly eight bytes,
// little-endian. Accounts, in order:
//
//	0. admin, signer
//	1. escrow token account, writable
//	2. destination token account, writable
//	3. token program
package escrow

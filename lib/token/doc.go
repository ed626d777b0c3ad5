// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

// Package token implements the fungible token program: mints, token
// accounts holding balances of one mint, minting and transfers.
//
// Token accounts are controlled by an authority address. The authority
// may be an ordinary key or a derived address, in which case the
// program that derived it signs for transfers with InvokeSigned. The
// escrow program relies on the latter.
//
// Mint and token account state is stored as deterministic CBOR with a
// leading kind discriminator so one account type can never be read as
// the other. Accounts are created through the system program, assigned
// to this program with no data, then initialized.
package token

// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry implements the studio registry program.
//
// The registry is a singleton account at the address derived from the
// seed "registry" under the program id. It records the admin who
// initialized it and the address of every studio created with it in
// context. Each studio entry lives at the address derived from
// ("studio", len(symbol), symbol, name), the one-byte length keeping
// keys that share bytes apart; that derivation is the entry's only proof
// of authenticity, so every instruction re-derives it and rejects a
// supplied account that does not match with ErrInvalidSeeds. An update
// also requires the stored entry to carry the key it was addressed by.
//
// Instructions, in wire order [kind, body]:
//
//   - InitializeRegistry: [payer signer writable, system program,
//     registry writable]. Creates the registry and records the payer
//     as admin. A second call fails with ErrAlreadyInitialized.
//   - CreateGameStudio{name, symbol, uri, creator}: [payer signer
//     writable, system program, entry writable, optional registry
//     writable]. The creator must be the payer. When the registry is
//     passed it must be initialized and the entry is appended to it.
//   - UpdateGameStudio{name, symbol, new_uri}: [creator signer, entry
//     writable]. Only the uri is mutable; name and symbol form the
//     natural key. An absent new_uri changes nothing.
//
// Entry and registry accounts are created through the system program,
// with the derived address signing through InvokeSigned.
package registry

// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

// Package derive computes program-derived addresses: account addresses
// that are a pure function of a list of seed byte strings and a program
// id, and that by construction have no Ed25519 private key.
//
// A candidate is SHA-256(seed₁ ‖ … ‖ seedₙ ‖ program id ‖
// "ProgramDerivedAddress"). A candidate that happens to decode as a
// point on the Ed25519 curve could in principle have a private key, so
// it is rejected. [Find] appends a one-byte disambiguator (the bump),
// trying 255 downward until the candidate falls off the curve, and
// returns both the address and the bump used. [Create] recomputes an
// address from seeds that already include the bump.
//
// Determinism is load-bearing. Every authorization check in the
// registry and escrow programs re-derives the expected address from
// seeds and compares; nothing trusts an address because a caller
// supplied it.
//
// Limits: at most [MaxSeeds] seeds of at most [MaxSeedLength] bytes
// each. Exhausting all 256 bumps is reported as [ErrNoViableBump]; with
// roughly half of all candidates off-curve this does not happen in
// practice, and the loop is bounded regardless.
package derive

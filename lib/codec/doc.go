// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the binary encoding shared by instructions,
// transaction messages and account state.
//
// The encoding is CBOR (RFC 8949) in Core Deterministic form: sorted
// map keys, shortest integer encodings, definite lengths only. The same
// logical value always produces the same bytes, which is what lets a
// signature over an encoded message, or a digest over encoded account
// state, mean anything.
//
// Decoding is strict. Data that a conforming encoder could not have
// produced for the target type is rejected rather than coerced:
//
//   - unknown struct fields (integer or text keys not declared on the type)
//   - duplicate map keys
//   - indefinite-length items
//   - trailing bytes after the first data item
//   - truncated input
//
// Stored account layouts and instruction payloads are public formats:
// external readers decode them with any CBOR implementation using the
// integer keys declared on each struct.
//
// Key exports:
//
//   - [Marshal] and [Unmarshal] -- one-shot encode/decode
//   - [NewEncoder] and [NewDecoder] -- stream forms for snapshot files
//   - [RawMessage] -- deferred decoding of tagged-union bodies
//   - [Diagnose] -- diagnostic notation for CLI inspection
//
// This package depends on no other MetaLoot packages.
package codec

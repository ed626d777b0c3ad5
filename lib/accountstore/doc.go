// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

// Package accountstore is the durable [ledger.AccountStore]: committed
// accounts and transaction receipts in a SQLite database (via
// zombiezen.com/go/sqlite, WAL mode, fixed-size connection pool).
//
// Each ledger commit is one IMMEDIATE transaction, so a crash leaves
// either every account change of a transaction on disk or none of them.
//
// The package also reads and writes ledger snapshots: a zstd-compressed
// CBOR stream of every account plus a header carrying the slot and the
// state digest, which [Store.Import] verifies before writing anything.
package accountstore

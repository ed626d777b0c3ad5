// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

// Package localnet assembles a single-node ledger: a [ledger.Bank] over
// a SQLite account store with the system, token, registry, and escrow
// programs installed at the ids the configuration names.
//
// [Install] registers the programs on any bank and is shared with the
// in-memory test harness. [Open] builds a full node from a loaded
// [config.Config]; the CLI opens one per command.
package localnet

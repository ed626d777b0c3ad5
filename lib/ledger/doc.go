// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

// Package ledger is the host environment that ledger-resident programs
// execute inside: account storage, signed transactions, atomic commit,
// cross-program invocation and compute metering.
//
// # Execution model
//
// A [Transaction] carries a [Message] (payer, nonce, ordered
// instructions) and Ed25519 signatures over the message's deterministic
// encoding. [Bank.Process] verifies the signatures, then runs each
// [Instruction] in order against a private working set of accounts. If
// every instruction succeeds, all modified accounts are committed to
// the [AccountStore] in one batch together with a [Receipt]. If any
// instruction fails, the working set is dropped and nothing is written:
// callers observe full success or one error, never a partial state.
// The bank serializes transactions, so programs need no locking of
// their own.
//
// # Programs and accounts
//
// A [Program] receives an [InvokeContext], the ordered [AccountInfo]
// list named by the instruction, and the raw instruction data. Account
// order is positional and part of each program's contract; [Accounts]
// provides next-account iteration that fails with
// [ErrNotEnoughAccountKeys] on short lists. After a program returns,
// the bank checks that it only changed what it was entitled to change:
// writable accounts it owns (plus owner reassignment of zeroed accounts
// it owns). Violations abort the transaction.
//
// # Derived signers
//
// A program may call another program with [InvokeContext.InvokeSigned],
// passing seed lists. Each seed list is re-derived under the calling
// program's id and the resulting address is treated as a signer for
// exactly that call. This is how an account with no private key (a
// program-derived address) authorizes a transfer: by proof of
// derivation, checked by recomputation.
//
// # Errors
//
// Failures are [ProgramError] sentinels with stable code names (see
// [Code]), wrapped with context via fmt.Errorf and wrapped once more in
// a [TransactionError] naming the failing instruction. Errors from a
// called program propagate to the caller unchanged.
package ledger

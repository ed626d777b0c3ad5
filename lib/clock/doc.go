// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable source of wall-clock time.
//
// The ledger reads time in exactly two places: the commit timestamp on
// a transaction receipt and the default nonce a client stamps on a new
// message. Neither influences program execution, which stays a pure
// function of instruction data and account state. Injecting the clock
// keeps receipts reproducible in tests.
//
// In production:
//
//	bank, err := ledger.NewBank(ledger.Config{Clock: clock.Real(), ...})
//
// In tests:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	bank, err := ledger.NewBank(ledger.Config{Clock: fake, ...})
//	fake.Advance(time.Second)
package clock

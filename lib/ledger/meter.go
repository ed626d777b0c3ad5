// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import "fmt"

const (
	// DefaultComputeBudget is the per-transaction unit budget used when
	// Config.ComputeBudget is zero.
	DefaultComputeBudget uint64 = 200_000

	// InvokeCost is charged for every program invocation, top-level or
	// cross-program.
	InvokeCost uint64 = 1_000

	// DeriveCost is charged for every derived-address candidate
	// evaluated, including each step of a bump search.
	DeriveCost uint64 = 1_500

	// MaxCallDepth bounds nested cross-program invocation. Top-level
	// instructions run at depth 1.
	MaxCallDepth = 4
)

// meter tracks compute consumed by one transaction.
type meter struct {
	budget   uint64
	consumed uint64
}

func (m *meter) consume(units uint64) error {
	remaining := m.budget - m.consumed
	if units > remaining {
		m.consumed = m.budget
		return fmt.Errorf("%w: %d units requested with %d of %d remaining",
			ErrComputeBudgetExceeded, units, remaining, m.budget)
	}
	m.consumed += units
	return nil
}

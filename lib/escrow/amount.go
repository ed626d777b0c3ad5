// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package escrow

import (
	"encoding/binary"
	"fmt"

	"github.com/metaloot/metaloot/lib/ledger"
)

// AmountSize is the exact length of transfer instruction data.
const AmountSize = 8

// EncodeAmount returns the instruction data for a transfer of amount.
func EncodeAmount(amount uint64) []byte {
	return binary.LittleEndian.AppendUint64(make([]byte, 0, AmountSize), amount)
}

// DecodeAmount parses transfer instruction data. Anything other than
// exactly AmountSize bytes is rejected.
func DecodeAmount(data []byte) (uint64, error) {
	if len(data) != AmountSize {
		return 0, fmt.Errorf("%w: amount is %d bytes, want %d", ledger.ErrInvalidInstructionData, len(data), AmountSize)
	}
	return binary.LittleEndian.Uint64(data), nil
}

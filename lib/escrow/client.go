// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package escrow

import (
	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/ledger"
	"github.com/metaloot/metaloot/lib/token"
)

// TransferInstruction builds a release of amount from escrowAccount to
// destination under the escrow program at programID.
func TransferInstruction(programID, admin, escrowAccount, destination address.Address, amount uint64) ledger.Instruction {
	return ledger.Instruction{
		ProgramID: programID,
		Accounts: []ledger.AccountMeta{
			ledger.Readonly(admin, true),
			ledger.Writable(escrowAccount, false),
			ledger.Writable(destination, false),
			ledger.Readonly(token.ProgramID, false),
		},
		Data: EncodeAmount(amount),
	}
}

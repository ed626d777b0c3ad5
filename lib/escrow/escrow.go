// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package escrow

import (
	"fmt"

	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/ledger"
	"github.com/metaloot/metaloot/lib/token"
)

// Config fixes the parameters of one escrow deployment.
type Config struct {
	// Admin is the only key allowed to release funds.
	Admin address.Address

	// AuthorityBump is the bump the escrow authority was created with.
	AuthorityBump uint8
}

// Program is the escrow program.
type Program struct {
	config Config
}

// New returns an escrow program for config.
func New(config Config) *Program {
	return &Program{config: config}
}

// Config returns the deployment parameters.
func (p *Program) Config() Config { return p.config }

// Process releases the amount in data from the escrow account to the
// destination.
func (p *Program) Process(invoke *ledger.InvokeContext, accounts []*ledger.AccountInfo, data []byte) error {
	amount, err := DecodeAmount(data)
	if err != nil {
		return err
	}

	iter := ledger.NewAccounts(accounts)
	admin, err := iter.Next()
	if err != nil {
		return err
	}
	escrowInfo, err := iter.Next()
	if err != nil {
		return err
	}
	destination, err := iter.Next()
	if err != nil {
		return err
	}
	tokenProgram, err := iter.Next()
	if err != nil {
		return err
	}

	if !admin.IsSigner {
		return fmt.Errorf("%w: admin %s", ledger.ErrMissingRequiredSignature, admin.Key)
	}
	if admin.Key != p.config.Admin {
		return fmt.Errorf("%w: %s is not the escrow admin", ledger.ErrUnauthorized, admin.Key)
	}
	if tokenProgram.Key != token.ProgramID {
		return fmt.Errorf("%w: expected token program, got %s", ledger.ErrIncorrectProgramID, tokenProgram.Key)
	}

	seeds := Seeds(p.config.AuthorityBump)
	authority, err := invoke.CreateProgramAddress(seeds)
	if err != nil {
		return err
	}
	escrowAccount, err := token.LoadAccount(escrowInfo)
	if err != nil {
		return err
	}
	if escrowAccount.Authority != authority {
		return fmt.Errorf("%w: escrow %s trusts %s, derived %s",
			ledger.ErrInvalidSeeds, escrowInfo.Key, escrowAccount.Authority, authority)
	}

	transfer, err := token.TransferInstruction(escrowInfo.Key, destination.Key, authority, amount)
	if err != nil {
		return err
	}
	if err := invoke.InvokeSigned(transfer, seeds); err != nil {
		return err
	}
	invoke.Log("released %d from %s to %s", amount, escrowInfo.Key, destination.Key)
	return nil
}

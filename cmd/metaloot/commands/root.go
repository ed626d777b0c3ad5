// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the metaloot CLI command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/metaloot/metaloot/cmd/metaloot/cli"
	"github.com/metaloot/metaloot/lib/ledger"
)

// Root builds and returns the complete metaloot CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "metaloot",
		Description: `MetaLoot: a studio registry and token escrow on a local ledger.

Studios are registered under addresses derived from their symbol and
name. Escrowed tokens are released by the configured admin under an
authority derived by the escrow program.`,
		Subcommands: []*cli.Command{
			keygenCommand(),
			addressCommand(),
			initRegistryCommand(),
			createStudioCommand(),
			updateStudioCommand(),
			listStudiosCommand(),
			escrowTransferCommand(),
			tokenCommand(),
			ledgerCommand(),
			versionCommand(),
		},
	}
}

func noArguments(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument %q", args[0])
	}
	return nil
}

// submit sends instructions signed by the session key plus extra, and
// reports the receipt.
func (s *session) submit(ctx context.Context, logger *slog.Logger, instructions []ledger.Instruction, extra ...ledger.Signer) (*ledger.Receipt, error) {
	receipt, err := s.node.Submit(ctx, s.signer, instructions, extra...)
	if err != nil {
		return nil, err
	}
	logger.Debug("transaction committed",
		"signature", receipt.Signature.String(),
		"slot", receipt.Slot,
		"compute_units", receipt.ComputeUnits,
	)
	return receipt, nil
}

func printReceipt(printer *cli.Printer, receipt *ledger.Receipt) {
	printer.Field("signature", receipt.Signature)
	printer.Field("slot", receipt.Slot)
	printer.Field("compute units", receipt.ComputeUnits)
}

func stdout() *cli.Printer { return cli.NewPrinter(cli.Stdout) }

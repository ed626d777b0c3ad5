// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/metaloot/metaloot/cmd/metaloot/cli"
	"github.com/metaloot/metaloot/lib/escrow"
	"github.com/metaloot/metaloot/lib/ledger"
	"github.com/metaloot/metaloot/lib/token"
)

func escrowTransferCommand() *cli.Command {
	var params struct {
		Env         environment
		Escrow      string `flag:"escrow" desc:"escrow token account to release from"`
		Destination string `flag:"destination" desc:"token account to receive the tokens"`
		Amount      uint64 `flag:"amount" desc:"amount to release"`
	}
	return &cli.Command{
		Name:    "escrow-transfer",
		Summary: "Release escrowed tokens",
		Description: `Release tokens from an escrow account to a destination account. The
signing key must be the configured escrow admin, and the escrow account
must be controlled by the escrow authority ('metaloot address' prints
it).`,
		Examples: []cli.Example{
			{Command: "metaloot escrow-transfer -k admin.key --escrow <account> --destination <account> --amount 100"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("escrow-transfer", &params) },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := noArguments(args); err != nil {
				return err
			}
			escrowAccount, err := parseAddress("escrow", params.Escrow)
			if err != nil {
				return err
			}
			destination, err := parseAddress("destination", params.Destination)
			if err != nil {
				return err
			}

			s, err := params.Env.open(ctx, logger, true)
			if err != nil {
				return err
			}
			defer s.Close()

			instruction := escrow.TransferInstruction(s.node.Deployment.EscrowProgram, s.signer.Address(), escrowAccount, destination, params.Amount)
			receipt, err := s.submit(ctx, logger.With("escrow", escrowAccount.String()), []ledger.Instruction{instruction})
			if err != nil {
				return err
			}
			remaining, err := token.FetchAccount(ctx, s.node.Bank, escrowAccount)
			if err != nil {
				return err
			}

			printer := stdout()
			printer.Success("released %d to %s", params.Amount, destination)
			printer.Field("escrow balance", remaining.Amount)
			printReceipt(printer, receipt)
			return nil
		},
	}
}

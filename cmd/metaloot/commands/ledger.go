// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/metaloot/metaloot/cmd/metaloot/cli"
	"github.com/metaloot/metaloot/lib/accountstore"
	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/codec"
	"github.com/metaloot/metaloot/lib/ledger"
)

func ledgerCommand() *cli.Command {
	return &cli.Command{
		Name:    "ledger",
		Summary: "Inspect, export, and restore the local ledger",
		Subcommands: []*cli.Command{
			digestCommand(),
			accountCommand(),
			receiptCommand(),
			exportCommand(),
			importCommand(),
		},
	}
}

type ledgerDigest struct {
	Slot        uint64 `json:"slot"`
	StateDigest string `json:"state_digest"`
}

func digestCommand() *cli.Command {
	var params struct {
		Env environment
		cli.JSONOutput
	}
	return &cli.Command{
		Name:    "digest",
		Summary: "Show the latest slot and state digest",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("digest", &params) },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := noArguments(args); err != nil {
				return err
			}
			s, err := params.Env.open(ctx, logger, false)
			if err != nil {
				return err
			}
			defer s.Close()

			slot, err := s.node.Store.LatestSlot(ctx)
			if err != nil {
				return err
			}
			digest, err := s.node.Bank.StateDigest(ctx)
			if err != nil {
				return err
			}
			result := ledgerDigest{Slot: slot, StateDigest: digest.String()}
			if done, err := params.EmitJSON(result); done {
				return err
			}
			printer := stdout()
			printer.Field("slot", result.Slot)
			printer.Field("state digest", result.StateDigest)
			return nil
		},
	}
}

func accountCommand() *cli.Command {
	var params struct {
		Env environment
	}
	return &cli.Command{
		Name:    "account",
		Summary: "Show a raw account",
		Description: `Show an account's owner and data. Data written by the registry and
token programs is CBOR and is shown in diagnostic notation.`,
		Usage: "metaloot ledger account <address>",
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("account", &params) },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return errors.New("expected exactly one account address")
			}
			key, err := parseAddress("address", args[0])
			if err != nil {
				return err
			}
			s, err := params.Env.open(ctx, logger, false)
			if err != nil {
				return err
			}
			defer s.Close()

			account, err := s.node.Bank.Account(ctx, key)
			if err != nil {
				return err
			}
			printer := stdout()
			printer.Field("address", key)
			printer.Field("owner", account.Owner)
			printer.Field("executable", account.Executable)
			printer.Field("data length", len(account.Data))
			if len(account.Data) == 0 {
				return nil
			}
			diagnostic, err := codec.Diagnose(account.Data)
			if err != nil {
				printer.Field("data", fmt.Sprintf("%x", account.Data))
				return nil
			}
			printer.Field("data", diagnostic)
			return nil
		},
	}
}

func receiptCommand() *cli.Command {
	var params struct {
		Env environment
		cli.JSONOutput
	}
	return &cli.Command{
		Name:    "receipt",
		Summary: "Show a committed transaction's receipt",
		Usage:   "metaloot ledger receipt <signature>",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("receipt", &params) },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return errors.New("expected exactly one transaction signature")
			}
			signature, err := address.ParseSignature(args[0])
			if err != nil {
				return err
			}
			s, err := params.Env.open(ctx, logger, false)
			if err != nil {
				return err
			}
			defer s.Close()

			receipt, err := s.node.Store.Receipt(ctx, signature)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(receiptView(receipt)); done {
				return err
			}
			printer := stdout()
			printReceipt(printer, receipt)
			printer.Field("committed at", receipt.CommittedAt.Format("2006-01-02 15:04:05 MST"))
			printer.Field("state digest", receipt.StateDigest)
			for _, line := range receipt.Logs {
				printer.Field("log", line)
			}
			return nil
		},
	}
}

type receiptJSON struct {
	Signature    string   `json:"signature"`
	Slot         uint64   `json:"slot"`
	CommittedAt  string   `json:"committed_at"`
	ComputeUnits uint64   `json:"compute_units"`
	StateDigest  string   `json:"state_digest"`
	Logs         []string `json:"logs"`
}

func receiptView(receipt *ledger.Receipt) receiptJSON {
	return receiptJSON{
		Signature:    receipt.Signature.String(),
		Slot:         receipt.Slot,
		CommittedAt:  receipt.CommittedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		ComputeUnits: receipt.ComputeUnits,
		StateDigest:  receipt.StateDigest.String(),
		Logs:         receipt.Logs,
	}
}

func exportCommand() *cli.Command {
	var params struct {
		Env    environment
		Output string `flag:"output,o" desc:"snapshot file to write"`
	}
	return &cli.Command{
		Name:    "export",
		Summary: "Write a snapshot of every account",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("export", &params) },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := noArguments(args); err != nil {
				return err
			}
			if params.Output == "" {
				return errors.New("--output is required")
			}
			s, err := params.Env.open(ctx, logger, false)
			if err != nil {
				return err
			}
			defer s.Close()

			file, err := os.Create(params.Output)
			if err != nil {
				return err
			}
			header, err := accountstore.Export(ctx, s.node.Store, file)
			if closeErr := file.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				os.Remove(params.Output)
				return fmt.Errorf("exporting snapshot: %w", err)
			}
			printer := stdout()
			printer.Success("snapshot written to %s", params.Output)
			printer.Field("slot", header.Slot)
			printer.Field("accounts", header.Accounts)
			printer.Field("state digest", header.StateDigest)
			return nil
		},
	}
}

func importCommand() *cli.Command {
	var params struct {
		Env   environment
		Input string `flag:"input,i" desc:"snapshot file to read"`
	}
	return &cli.Command{
		Name:    "import",
		Summary: "Restore a snapshot into an empty ledger",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("import", &params) },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := noArguments(args); err != nil {
				return err
			}
			if params.Input == "" {
				return errors.New("--input is required")
			}
			file, err := os.Open(params.Input)
			if err != nil {
				return err
			}
			defer file.Close()

			s, err := params.Env.open(ctx, logger, false)
			if err != nil {
				return err
			}
			defer s.Close()

			header, err := s.node.Store.Import(ctx, file)
			if err != nil {
				return fmt.Errorf("importing snapshot: %w", err)
			}
			printer := stdout()
			printer.Success("snapshot imported")
			printer.Field("slot", header.Slot)
			printer.Field("accounts", header.Accounts)
			printer.Field("state digest", header.StateDigest)
			return nil
		},
	}
}

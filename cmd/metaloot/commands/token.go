// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/metaloot/metaloot/cmd/metaloot/cli"
	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/ledger"
	"github.com/metaloot/metaloot/lib/token"
)

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:    "token",
		Summary: "Create mints and token accounts",
		Description: `Manage the token program's mints and accounts. These commands set up
the escrow accounts that escrow-transfer releases from.`,
		Subcommands: []*cli.Command{
			createMintCommand(),
			createTokenAccountCommand(),
			mintToCommand(),
			balanceCommand(),
		},
	}
}

func createMintCommand() *cli.Command {
	var params struct {
		Env       environment
		Decimals  int    `flag:"decimals" desc:"decimal places" default:"0"`
		Authority string `flag:"authority" desc:"mint authority (default: the signing key)"`
	}
	return &cli.Command{
		Name:    "create-mint",
		Summary: "Create a token mint",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("create-mint", &params) },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := noArguments(args); err != nil {
				return err
			}
			if params.Decimals < 0 || params.Decimals > 255 {
				return fmt.Errorf("--decimals %d out of range", params.Decimals)
			}
			s, err := params.Env.open(ctx, logger, true)
			if err != nil {
				return err
			}
			defer s.Close()

			authority := s.signer.Address()
			if params.Authority != "" {
				if authority, err = parseAddress("authority", params.Authority); err != nil {
					return err
				}
			}
			mint, err := generateSigner()
			if err != nil {
				return err
			}
			defer mint.Close()

			instructions, err := token.CreateMintInstructions(s.signer.Address(), mint.Address(), authority, uint8(params.Decimals))
			if err != nil {
				return err
			}
			receipt, err := s.submit(ctx, logger, instructions, mint)
			if err != nil {
				return err
			}

			printer := stdout()
			printer.Success("mint created")
			printer.Field("mint", mint.Address())
			printer.Field("authority", authority)
			printReceipt(printer, receipt)
			return nil
		},
	}
}

func createTokenAccountCommand() *cli.Command {
	var params struct {
		Env       environment
		Mint      string `flag:"mint" desc:"mint the account holds"`
		Authority string `flag:"authority" desc:"account authority (default: the signing key)"`
		Escrow    bool   `flag:"escrow" desc:"make the escrow authority the account's authority"`
	}
	return &cli.Command{
		Name:    "create-account",
		Summary: "Create a token account",
		Description: `Create a token account for a mint. With --escrow the account is
controlled by the escrow authority and can only be drained through
escrow-transfer.`,
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("create-account", &params) },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := noArguments(args); err != nil {
				return err
			}
			if params.Escrow && params.Authority != "" {
				return errors.New("--escrow and --authority are mutually exclusive")
			}
			mint, err := parseAddress("mint", params.Mint)
			if err != nil {
				return err
			}
			s, err := params.Env.open(ctx, logger, true)
			if err != nil {
				return err
			}
			defer s.Close()

			authority := s.signer.Address()
			switch {
			case params.Escrow:
				escrowAuthority, err := s.node.Deployment.EscrowAuthority()
				if err != nil {
					return err
				}
				authority = escrowAuthority.Address
			case params.Authority != "":
				if authority, err = parseAddress("authority", params.Authority); err != nil {
					return err
				}
			}
			account, err := generateSigner()
			if err != nil {
				return err
			}
			defer account.Close()

			instructions, err := token.CreateAccountInstructions(s.signer.Address(), account.Address(), mint, authority)
			if err != nil {
				return err
			}
			receipt, err := s.submit(ctx, logger, instructions, account)
			if err != nil {
				return err
			}

			printer := stdout()
			printer.Success("token account created")
			printer.Field("account", account.Address())
			printer.Field("mint", mint)
			printer.Field("authority", authority)
			printReceipt(printer, receipt)
			return nil
		},
	}
}

func mintToCommand() *cli.Command {
	var params struct {
		Env         environment
		Mint        string `flag:"mint" desc:"mint to issue from"`
		Destination string `flag:"destination" desc:"token account to credit"`
		Amount      uint64 `flag:"amount" desc:"amount to mint"`
	}
	return &cli.Command{
		Name:    "mint-to",
		Summary: "Mint tokens into an account",
		Description: `Mint new tokens into an account. The signing key must be the mint's
authority.`,
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("mint-to", &params) },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := noArguments(args); err != nil {
				return err
			}
			mint, err := parseAddress("mint", params.Mint)
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

			instruction, err := token.MintToInstruction(mint, destination, s.signer.Address(), params.Amount)
			if err != nil {
				return err
			}
			receipt, err := s.submit(ctx, logger, []ledger.Instruction{instruction})
			if err != nil {
				return err
			}
			account, err := token.FetchAccount(ctx, s.node.Bank, destination)
			if err != nil {
				return err
			}

			printer := stdout()
			printer.Success("minted %d", params.Amount)
			printer.Field("balance", account.Amount)
			printReceipt(printer, receipt)
			return nil
		},
	}
}

type tokenBalance struct {
	Account   address.Address `json:"account"`
	Mint      address.Address `json:"mint"`
	Authority address.Address `json:"authority"`
	Amount    uint64          `json:"amount"`
	Decimals  uint8           `json:"decimals"`
}

func balanceCommand() *cli.Command {
	var params struct {
		Env environment
		cli.JSONOutput
	}
	return &cli.Command{
		Name:    "balance",
		Summary: "Show a token account's balance",
		Usage:   "metaloot token balance <account>",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("balance", &params) },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return errors.New("expected exactly one token account address")
			}
			key, err := parseAddress("account", args[0])
			if err != nil {
				return err
			}
			s, err := params.Env.open(ctx, logger, false)
			if err != nil {
				return err
			}
			defer s.Close()

			account, err := token.FetchAccount(ctx, s.node.Bank, key)
			if err != nil {
				return err
			}
			mint, err := token.FetchMint(ctx, s.node.Bank, account.Mint)
			if err != nil {
				return err
			}
			balance := tokenBalance{
				Account:   key,
				Mint:      account.Mint,
				Authority: account.Authority,
				Amount:    account.Amount,
				Decimals:  mint.Decimals,
			}
			if done, err := params.EmitJSON(balance); done {
				return err
			}
			printer := stdout()
			printer.Field("account", balance.Account)
			printer.Field("mint", balance.Mint)
			printer.Field("authority", balance.Authority)
			printer.Field("amount", balance.Amount)
			printer.Field("decimals", balance.Decimals)
			return nil
		},
	}
}

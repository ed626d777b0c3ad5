// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/metaloot/metaloot/cmd/metaloot/cli"
	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/ledger"
	"github.com/metaloot/metaloot/lib/registry"
)

func lengthLimit(what string, limit int) func(string) error {
	return func(value string) error {
		switch {
		case value == "":
			return fmt.Errorf("%s is required", what)
		case len(value) > limit:
			return fmt.Errorf("%s is %d bytes, limit %d", what, len(value), limit)
		}
		return nil
	}
}

func initRegistryCommand() *cli.Command {
	var params struct {
		Env environment
	}
	return &cli.Command{
		Name:    "init-registry",
		Summary: "Create the studio registry",
		Description: `Create the registry singleton with the signing key as its admin.

The registry can be created once per registry program.`,
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("init-registry", &params) },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := noArguments(args); err != nil {
				return err
			}
			s, err := params.Env.open(ctx, logger, true)
			if err != nil {
				return err
			}
			defer s.Close()

			client := s.node.Deployment.Registry()
			instruction, err := client.InitializeRegistry(s.signer.Address())
			if err != nil {
				return err
			}
			receipt, err := s.submit(ctx, logger, []ledger.Instruction{instruction})
			if err != nil {
				return err
			}
			registryAddress, err := client.Registry()
			if err != nil {
				return err
			}

			printer := stdout()
			printer.Success("registry initialized")
			printer.Field("registry", registryAddress)
			printer.Field("admin", s.signer.Address())
			printReceipt(printer, receipt)
			return nil
		},
	}
}

func createStudioCommand() *cli.Command {
	var params struct {
		Env        environment
		Name       string `flag:"name" desc:"studio name"`
		Symbol     string `flag:"symbol" desc:"studio symbol"`
		URI        string `flag:"uri" desc:"metadata uri"`
		NoRegistry bool   `flag:"no-registry" desc:"do not record the studio in the registry"`
	}
	return &cli.Command{
		Name:    "create-studio",
		Summary: "Register a studio",
		Description: `Create a studio entry at the address derived from its symbol and name.
The signing key becomes the studio's creator and is the only key that
can update it.

Missing values are prompted for when stdin is a terminal.`,
		Examples: []cli.Example{
			{Command: "metaloot create-studio --name Acme --symbol ACM --uri https://acme.example/studio.json"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("create-studio", &params) },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := noArguments(args); err != nil {
				return err
			}
			if err := cli.PromptIfEmpty(&params.Name, "name", "Studio name:", lengthLimit("name", registry.MaxNameLength)); err != nil {
				return err
			}
			if err := cli.PromptIfEmpty(&params.Symbol, "symbol", "Symbol:", lengthLimit("symbol", registry.MaxSymbolLength)); err != nil {
				return err
			}
			if err := cli.PromptIfEmpty(&params.URI, "uri", "Metadata URI:", lengthLimit("uri", registry.MaxURILength)); err != nil {
				return err
			}

			s, err := params.Env.open(ctx, logger, true)
			if err != nil {
				return err
			}
			defer s.Close()

			client := s.node.Deployment.Registry()
			instruction, err := client.CreateStudio(s.signer.Address(), params.Name, params.Symbol, params.URI, !params.NoRegistry)
			if err != nil {
				return err
			}
			receipt, err := s.submit(ctx, logger.With("symbol", params.Symbol, "name", params.Name), []ledger.Instruction{instruction})
			if err != nil {
				return err
			}
			studio, err := client.Studio(params.Symbol, params.Name)
			if err != nil {
				return err
			}

			printer := stdout()
			printer.Success("studio %s/%s created", params.Symbol, params.Name)
			printer.Field("address", studio)
			printer.Field("creator", s.signer.Address())
			printReceipt(printer, receipt)
			return nil
		},
	}
}

func updateStudioCommand() *cli.Command {
	var params struct {
		Env    environment
		Name   string `flag:"name" desc:"studio name"`
		Symbol string `flag:"symbol" desc:"studio symbol"`
		URI    string `flag:"uri" desc:"new metadata uri; omit to leave it unchanged"`
	}
	return &cli.Command{
		Name:    "update-studio",
		Summary: "Change a studio's metadata uri",
		Description: `Replace the metadata uri of a studio. Only the studio's creator may
update it. The name and symbol identify the studio and cannot change.`,
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("update-studio", &params) },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := noArguments(args); err != nil {
				return err
			}
			if err := cli.PromptIfEmpty(&params.Name, "name", "Studio name:", lengthLimit("name", registry.MaxNameLength)); err != nil {
				return err
			}
			if err := cli.PromptIfEmpty(&params.Symbol, "symbol", "Symbol:", lengthLimit("symbol", registry.MaxSymbolLength)); err != nil {
				return err
			}
			if params.URI == "" && cli.Interactive() {
				answer, err := cli.Prompt("New metadata URI (empty keeps the current one):", "", nil)
				if err != nil {
					return err
				}
				params.URI = answer
			}
			var newURI *string
			if params.URI != "" {
				newURI = &params.URI
			}

			s, err := params.Env.open(ctx, logger, true)
			if err != nil {
				return err
			}
			defer s.Close()

			client := s.node.Deployment.Registry()
			instruction, err := client.UpdateStudio(s.signer.Address(), params.Name, params.Symbol, newURI)
			if err != nil {
				return err
			}
			receipt, err := s.submit(ctx, logger.With("symbol", params.Symbol, "name", params.Name), []ledger.Instruction{instruction})
			if err != nil {
				return err
			}

			printer := stdout()
			if newURI == nil {
				printer.Success("studio %s/%s unchanged", params.Symbol, params.Name)
			} else {
				printer.Success("studio %s/%s updated", params.Symbol, params.Name)
				printer.Field("uri", *newURI)
			}
			printReceipt(printer, receipt)
			return nil
		},
	}
}

type studioListing struct {
	Address address.Address `json:"address"`
	Name    string          `json:"name"`
	Symbol  string          `json:"symbol"`
	URI     string          `json:"uri"`
	Creator address.Address `json:"creator"`
}

func listStudiosCommand() *cli.Command {
	var params struct {
		Env environment
		cli.JSONOutput
		All bool `flag:"all" desc:"include studios created without the registry"`
	}
	return &cli.Command{
		Name:    "list-studios",
		Summary: "List registered studios",
		Description: `List the studios recorded in the registry, in creation order. With
--all, list every studio entry the registry program owns, ordered by
address.`,
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("list-studios", &params) },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := noArguments(args); err != nil {
				return err
			}
			s, err := params.Env.open(ctx, logger, false)
			if err != nil {
				return err
			}
			defer s.Close()

			client := s.node.Deployment.Registry()
			var listings []registry.Listing
			if params.All {
				listings, err = client.ScanStudios(ctx, s.node.Bank)
			} else {
				listings, err = client.ListStudios(ctx, s.node.Bank)
			}
			if err != nil {
				return err
			}

			studios := make([]studioListing, 0, len(listings))
			for _, listing := range listings {
				studios = append(studios, studioListing{
					Address: listing.Address,
					Name:    listing.Entry.Name,
					Symbol:  listing.Entry.Symbol,
					URI:     listing.Entry.URI,
					Creator: listing.Entry.Creator,
				})
			}
			if done, err := params.EmitJSON(studios); done {
				return err
			}
			if len(studios) == 0 {
				fmt.Fprintln(cli.Stdout, "no studios")
				return nil
			}
			rows := make([][]string, 0, len(studios))
			for _, studio := range studios {
				rows = append(rows, []string{studio.Symbol, studio.Name, studio.URI, studio.Creator.Short(), studio.Address.String()})
			}
			stdout().Table([]string{"SYMBOL", "NAME", "URI", "CREATOR", "ADDRESS"}, rows)
			return nil
		},
	}
}

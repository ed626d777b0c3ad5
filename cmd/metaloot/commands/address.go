// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/metaloot/metaloot/cmd/metaloot/cli"
	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/localnet"
	"github.com/metaloot/metaloot/lib/registry"
)

type addressReport struct {
	RegistryProgram address.Address  `json:"registry_program"`
	Registry        address.Address  `json:"registry"`
	EscrowProgram   address.Address  `json:"escrow_program"`
	EscrowAuthority address.Address  `json:"escrow_authority"`
	AuthorityBump   uint8            `json:"escrow_authority_bump"`
	Studio          *address.Address `json:"studio,omitempty"`
	StudioBump      *uint8           `json:"studio_bump,omitempty"`
}

func addressCommand() *cli.Command {
	var params struct {
		Env environment
		cli.JSONOutput
		Name   string `flag:"name" desc:"studio name, to also derive a studio address"`
		Symbol string `flag:"symbol" desc:"studio symbol, to also derive a studio address"`
	}
	return &cli.Command{
		Name:    "address",
		Summary: "Print derived program addresses",
		Description: `Print the registry singleton and escrow authority addresses for the
configured programs, and optionally the entry address of a studio.

Derivation needs no ledger access.`,
		Examples: []cli.Example{
			{Description: "Where would Acme live?", Command: "metaloot address --name Acme --symbol ACM"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("address", &params) },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if err := noArguments(args); err != nil {
				return err
			}
			cfg, err := params.Env.loadConfig()
			if err != nil {
				return err
			}
			deployment, err := localnet.DeploymentFromConfig(cfg)
			if err != nil {
				return err
			}
			registryAddress, _, err := registry.RegistryAddress(deployment.RegistryProgram)
			if err != nil {
				return err
			}
			authority, err := deployment.EscrowAuthority()
			if err != nil {
				return err
			}
			report := addressReport{
				RegistryProgram: deployment.RegistryProgram,
				Registry:        registryAddress,
				EscrowProgram:   deployment.EscrowProgram,
				EscrowAuthority: authority.Address,
				AuthorityBump:   authority.Bump,
			}
			if params.Name != "" || params.Symbol != "" {
				studio, bump, err := registry.StudioAddress(deployment.RegistryProgram, params.Symbol, params.Name)
				if err != nil {
					return err
				}
				report.Studio = &studio
				report.StudioBump = &bump
			}

			if done, err := params.EmitJSON(report); done {
				return err
			}
			printer := stdout()
			printer.Field("registry program", report.RegistryProgram)
			printer.Field("registry", report.Registry)
			printer.Field("escrow program", report.EscrowProgram)
			printer.Field("escrow authority", report.EscrowAuthority)
			printer.Field("authority bump", report.AuthorityBump)
			if report.Studio != nil {
				printer.Field("studio", *report.Studio)
				printer.Field("studio bump", *report.StudioBump)
			}
			return nil
		},
	}
}

// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/metaloot/metaloot/cmd/metaloot/cli"
	"github.com/metaloot/metaloot/lib/keypair"
)

func keygenCommand() *cli.Command {
	var params struct {
		Env         environment
		Output      string   `flag:"output,o" desc:"keypair file to create (default keypair.path)"`
		Recipients  []string `flag:"recipient" desc:"age recipient to seal the keypair to (repeatable)"`
		NewIdentity string   `flag:"new-identity" desc:"generate an age identity at this path and seal to it"`
	}
	return &cli.Command{
		Name:    "keygen",
		Summary: "Generate a signing keypair",
		Description: `Generate an Ed25519 signing keypair.

The keypair is written as a JSON array of 64 bytes. With --recipient or
--new-identity it is sealed with age instead; set keypair.identity in
the configuration to the identity file so commands can open it.`,
		Examples: []cli.Example{
			{Description: "Create the default keypair", Command: "metaloot keygen"},
			{Description: "Create a sealed admin key", Command: "metaloot keygen -o admin.key --new-identity admin.age"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("keygen", &params) },
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if err := noArguments(args); err != nil {
				return err
			}
			cfg, err := params.Env.loadConfig()
			if err != nil {
				return err
			}
			path := params.Output
			if path == "" {
				path = cfg.Keypair.Path
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
			}

			generated, err := keypair.Generate()
			if err != nil {
				return err
			}
			defer generated.Close()

			recipients := params.Recipients
			if params.NewIdentity != "" {
				recipient, err := keypair.GenerateIdentity(params.NewIdentity)
				if err != nil {
					return err
				}
				recipients = append(recipients, recipient)
			}
			if len(recipients) > 0 {
				err = keypair.SaveSealed(path, generated, recipients)
			} else {
				err = keypair.Save(path, generated)
			}
			if err != nil {
				return err
			}
			logger.Info("keypair written", "path", path, "sealed", len(recipients) > 0)

			printer := stdout()
			printer.Success("keypair written to %s", path)
			printer.Field("address", generated.Address())
			if params.NewIdentity != "" {
				printer.Field("identity", params.NewIdentity)
			}
			return nil
		},
	}
}

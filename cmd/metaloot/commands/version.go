// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/metaloot/metaloot/cmd/metaloot/cli"
	"github.com/metaloot/metaloot/lib/version"
)

func versionCommand() *cli.Command {
	var params struct {
		cli.JSONOutput
	}
	return &cli.Command{
		Name:    "version",
		Summary: "Print build information",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("version", &params) },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if err := noArguments(args); err != nil {
				return err
			}
			build := version.Read()
			if done, err := params.EmitJSON(build); done {
				return err
			}
			printer := stdout()
			printer.Field("version", build.String())
			printer.Field("go", build.GoVersion)
			printer.Field("platform", build.Platform)
			return nil
		},
	}
}

// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/config"
	"github.com/metaloot/metaloot/lib/keypair"
	"github.com/metaloot/metaloot/lib/localnet"
)

// environment holds the flags every ledger command shares: which
// configuration to load and which key signs.
type environment struct {
	ConfigPath  string
	KeypairPath string
}

// AddFlags implements cli.FlagBinder.
func (e *environment) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&e.ConfigPath, "config", "c", "", "configuration file (default $"+config.EnvironmentVariable+", then built-in defaults)")
	flagSet.StringVarP(&e.KeypairPath, "keypair", "k", "", "signing keypair file (default keypair.path from the configuration)")
}

// loadConfig loads the configuration named by --config, then by the
// environment variable, falling back to the defaults.
func (e *environment) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case e.ConfigPath != "":
		cfg, err = config.LoadFile(e.ConfigPath)
	case os.Getenv(config.EnvironmentVariable) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openNode loads the configuration and opens the local ledger. The
// caller must close the node.
func (e *environment) openNode(ctx context.Context, logger *slog.Logger) (*localnet.Node, *config.Config, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.EnsurePaths(); err != nil {
		return nil, nil, err
	}
	node, err := localnet.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening ledger %s: %w", cfg.Ledger.Database, err)
	}
	return node, cfg, nil
}

// signer opens the signing keypair. The caller must close it.
func (e *environment) signer(cfg *config.Config) (*keypair.Keypair, error) {
	path := e.KeypairPath
	if path == "" {
		path = cfg.Keypair.Path
	}
	signer, err := keypair.Open(path, cfg.Keypair.Identity)
	if err != nil {
		return nil, fmt.Errorf("opening keypair (create one with 'metaloot keygen'): %w", err)
	}
	return signer, nil
}

// generateSigner creates a throwaway keypair for an account that must
// sign its own creation.
func generateSigner() (*keypair.Keypair, error) {
	signer, err := keypair.Generate()
	if err != nil {
		return nil, fmt.Errorf("generating account key: %w", err)
	}
	return signer, nil
}

// parseAddress parses a flag value, naming the flag on failure.
func parseAddress(flag, value string) (address.Address, error) {
	if value == "" {
		return address.Zero, fmt.Errorf("--%s is required", flag)
	}
	parsed, err := address.Parse(value)
	if err != nil {
		return address.Zero, fmt.Errorf("--%s: %w", flag, err)
	}
	return parsed, nil
}

// session is an open ledger plus, for commands that submit
// transactions, the signing key.
type session struct {
	node   *localnet.Node
	cfg    *config.Config
	signer *keypair.Keypair
}

// open opens the ledger and, when withSigner is set, the signing key.
// The caller must Close the session.
func (e *environment) open(ctx context.Context, logger *slog.Logger, withSigner bool) (*session, error) {
	node, cfg, err := e.openNode(ctx, logger)
	if err != nil {
		return nil, err
	}
	s := &session{node: node, cfg: cfg}
	if withSigner {
		s.signer, err = e.signer(cfg)
		if err != nil {
			node.Close()
			return nil, err
		}
		if err := s.signer.MemoryLocked(); err != nil {
			logger.Warn("signing key is not locked in memory", "error", err)
		}
	}
	return s, nil
}

func (s *session) Close() error {
	if s.signer != nil {
		s.signer.Close()
	}
	return s.node.Close()
}

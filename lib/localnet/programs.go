// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package localnet

import (
	"fmt"

	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/config"
	"github.com/metaloot/metaloot/lib/escrow"
	"github.com/metaloot/metaloot/lib/ledger"
	"github.com/metaloot/metaloot/lib/registry"
	"github.com/metaloot/metaloot/lib/system"
	"github.com/metaloot/metaloot/lib/token"
)

// Deployment places the configurable programs.
type Deployment struct {
	RegistryProgram address.Address
	EscrowProgram   address.Address
	Escrow          escrow.Config
}

// DeploymentFromConfig resolves cfg into a Deployment, searching for
// the canonical escrow authority bump when cfg asks for it.
func DeploymentFromConfig(cfg *config.Config) (Deployment, error) {
	deployment := Deployment{
		RegistryProgram: cfg.Programs.Registry,
		EscrowProgram:   cfg.Programs.Escrow,
		Escrow:          escrow.Config{Admin: cfg.Escrow.Admin},
	}
	switch bump := cfg.Escrow.AuthorityBump; {
	case bump == config.DeriveBump:
		authority, err := escrow.DeriveAuthority(cfg.Programs.Escrow)
		if err != nil {
			return Deployment{}, fmt.Errorf("localnet: deriving escrow authority: %w", err)
		}
		deployment.Escrow.AuthorityBump = authority.Bump
	case bump >= 0 && bump <= 255:
		deployment.Escrow.AuthorityBump = uint8(bump)
	default:
		return Deployment{}, fmt.Errorf("localnet: escrow authority bump %d out of range", bump)
	}
	return deployment, nil
}

// Registry returns a client for the deployed registry.
func (d Deployment) Registry() registry.Client {
	return registry.Client{ProgramID: d.RegistryProgram}
}

// EscrowAuthority returns the authority the deployed escrow program
// signs as.
func (d Deployment) EscrowAuthority() (escrow.Authority, error) {
	return escrow.AuthorityWithBump(d.EscrowProgram, d.Escrow.AuthorityBump)
}

// Install registers every program of the deployment on bank.
func Install(bank *ledger.Bank, deployment Deployment) error {
	programs := []struct {
		id      address.Address
		program ledger.Program
	}{
		{system.ProgramID, system.Program{}},
		{token.ProgramID, token.Program{}},
		{deployment.RegistryProgram, registry.Program{}},
		{deployment.EscrowProgram, escrow.New(deployment.Escrow)},
	}
	for _, entry := range programs {
		if err := bank.Register(entry.id, entry.program); err != nil {
			return fmt.Errorf("localnet: %w", err)
		}
	}
	return nil
}

// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"fmt"

	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/ledger"
	"github.com/metaloot/metaloot/lib/system"
)

// Program is the registry program. It holds no state; the registry and
// entries live in accounts passed with each instruction.
type Program struct{}

// Process decodes one instruction and routes it to its handler.
func (Program) Process(invoke *ledger.InvokeContext, accounts []*ledger.AccountInfo, data []byte) error {
	instruction, err := Decode(data)
	if err != nil {
		return err
	}
	iter := ledger.NewAccounts(accounts)
	switch instruction := instruction.(type) {
	case InitializeRegistry:
		return initializeRegistry(invoke, iter)
	case CreateGameStudio:
		return createStudio(invoke, iter, instruction)
	case UpdateGameStudio:
		return updateStudio(invoke, iter, instruction)
	}
	return fmt.Errorf("%w: unhandled %s", ledger.ErrInvalidInstructionData, instruction.Kind())
}

// nextSigner returns the next account and requires it to have signed.
func nextSigner(iter *ledger.Accounts, role string) (*ledger.AccountInfo, error) {
	info, err := iter.Next()
	if err != nil {
		return nil, err
	}
	if !info.IsSigner {
		return nil, fmt.Errorf("%w: %s %s", ledger.ErrMissingRequiredSignature, role, info.Key)
	}
	return info, nil
}

// nextSystemProgram returns the next account and requires it to be
// the system program.
func nextSystemProgram(iter *ledger.Accounts) (*ledger.AccountInfo, error) {
	info, err := iter.Next()
	if err != nil {
		return nil, err
	}
	if info.Key != system.ProgramID {
		return nil, fmt.Errorf("%w: expected system program, got %s", ledger.ErrIncorrectProgramID, info.Key)
	}
	return info, nil
}

// expectDerived re-derives seeds under the running program and
// requires info to sit at the result.
func expectDerived(invoke *ledger.InvokeContext, info *ledger.AccountInfo, seeds [][]byte) (uint8, error) {
	derived, bump, err := invoke.FindProgramAddress(seeds)
	if err != nil {
		return 0, err
	}
	if info.Key != derived {
		return 0, fmt.Errorf("%w: got %s, derived %s", ledger.ErrInvalidSeeds, info.Key, derived)
	}
	return bump, nil
}

// createDerived creates info as an account owned by the running
// program, signing for it with seeds plus bump.
func createDerived(invoke *ledger.InvokeContext, payer, info *ledger.AccountInfo, seeds [][]byte, bump uint8) error {
	create, err := system.CreateAccountInstruction(payer.Key, info.Key, 0, invoke.ProgramID())
	if err != nil {
		return err
	}
	signerSeeds := append(append([][]byte(nil), seeds...), []byte{bump})
	return invoke.InvokeSigned(create, signerSeeds)
}

func initializeRegistry(invoke *ledger.InvokeContext, iter *ledger.Accounts) error {
	payer, err := nextSigner(iter, "payer")
	if err != nil {
		return err
	}
	if _, err := nextSystemProgram(iter); err != nil {
		return err
	}
	registryInfo, err := iter.Next()
	if err != nil {
		return err
	}

	bump, err := expectDerived(invoke, registryInfo, registrySeeds())
	if err != nil {
		return err
	}
	if registryInfo.Exists() {
		current, err := loadRegistry(invoke.ProgramID(), registryInfo)
		if err != nil {
			return err
		}
		if current.Initialized {
			return fmt.Errorf("%w: registry %s", ledger.ErrAlreadyInitialized, registryInfo.Key)
		}
	} else if err := createDerived(invoke, payer, registryInfo, registrySeeds(), bump); err != nil {
		return err
	}

	if err := writeState(registryInfo, RegistryState{
		Initialized:     true,
		Admin:           payer.Key,
		StudioAddresses: []address.Address{},
	}); err != nil {
		return err
	}
	invoke.Log("registry %s initialized by %s", registryInfo.Key, payer.Key)
	return nil
}

// loadRegistry reads registry state from an account the program owns.
func loadRegistry(programID address.Address, info *ledger.AccountInfo) (*RegistryState, error) {
	if info.Owner() != programID {
		return nil, fmt.Errorf("%w: registry %s is owned by %s", ledger.ErrIllegalOwner, info.Key, info.Owner())
	}
	return DecodeRegistry(info.Data())
}

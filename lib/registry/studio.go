// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"fmt"

	"github.com/metaloot/metaloot/lib/ledger"
)

func createStudio(invoke *ledger.InvokeContext, iter *ledger.Accounts, instruction CreateGameStudio) error {
	payer, err := nextSigner(iter, "payer")
	if err != nil {
		return err
	}
	if _, err := nextSystemProgram(iter); err != nil {
		return err
	}
	entryInfo, err := iter.Next()
	if err != nil {
		return err
	}
	registryInfo := iter.Optional()

	if err := validateKey(instruction.Name, instruction.Symbol); err != nil {
		return err
	}
	if err := validateURI(instruction.URI); err != nil {
		return err
	}
	if instruction.Creator != payer.Key {
		return fmt.Errorf("%w: creator %s is not the signing payer %s", ledger.ErrUnauthorized, instruction.Creator, payer.Key)
	}

	seeds := studioSeeds(instruction.Symbol, instruction.Name)
	bump, err := expectDerived(invoke, entryInfo, seeds)
	if err != nil {
		return err
	}
	if entryInfo.Exists() {
		return fmt.Errorf("%w: studio %s/%s already registered at %s",
			ledger.ErrAccountAlreadyInUse, instruction.Symbol, instruction.Name, entryInfo.Key)
	}

	var registry *RegistryState
	if registryInfo != nil {
		if _, err := expectDerived(invoke, registryInfo, registrySeeds()); err != nil {
			return err
		}
		if !registryInfo.Exists() {
			return fmt.Errorf("%w: registry %s", ledger.ErrNotInitialized, registryInfo.Key)
		}
		registry, err = loadRegistry(invoke.ProgramID(), registryInfo)
		if err != nil {
			return err
		}
		if !registry.Initialized {
			return fmt.Errorf("%w: registry %s", ledger.ErrNotInitialized, registryInfo.Key)
		}
	}

	if err := createDerived(invoke, payer, entryInfo, seeds, bump); err != nil {
		return err
	}
	if err := writeState(entryInfo, StudioEntry{
		Name:    instruction.Name,
		Symbol:  instruction.Symbol,
		URI:     instruction.URI,
		Creator: instruction.Creator,
	}); err != nil {
		return err
	}

	if registry != nil {
		registry.StudioAddresses = append(registry.StudioAddresses, entryInfo.Key)
		if err := writeState(registryInfo, registry); err != nil {
			return err
		}
	}
	invoke.Log("studio %s/%s created at %s", instruction.Symbol, instruction.Name, entryInfo.Key)
	return nil
}

func updateStudio(invoke *ledger.InvokeContext, iter *ledger.Accounts, instruction UpdateGameStudio) error {
	signer, err := nextSigner(iter, "creator")
	if err != nil {
		return err
	}
	entryInfo, err := iter.Next()
	if err != nil {
		return err
	}

	if err := validateKey(instruction.Name, instruction.Symbol); err != nil {
		return err
	}
	if _, err := expectDerived(invoke, entryInfo, studioSeeds(instruction.Symbol, instruction.Name)); err != nil {
		return err
	}
	if entryInfo.Owner() != invoke.ProgramID() {
		return fmt.Errorf("%w: studio %s is owned by %s", ledger.ErrNotInitialized, entryInfo.Key, entryInfo.Owner())
	}
	entry, err := DecodeStudio(entryInfo.Data())
	if err != nil {
		return err
	}
	if entry.Name != instruction.Name || entry.Symbol != instruction.Symbol {
		return fmt.Errorf("%w: %s holds %s/%s, not %s/%s", ledger.ErrInvalidSeeds,
			entryInfo.Key, entry.Symbol, entry.Name, instruction.Symbol, instruction.Name)
	}
	if entry.Creator != signer.Key {
		return fmt.Errorf("%w: %s is not the creator of %s/%s", ledger.ErrUnauthorized, signer.Key, entry.Symbol, entry.Name)
	}

	if instruction.NewURI == nil {
		invoke.Log("studio %s/%s unchanged", entry.Symbol, entry.Name)
		return nil
	}
	if err := validateURI(*instruction.NewURI); err != nil {
		return err
	}
	entry.URI = *instruction.NewURI
	if err := writeState(entryInfo, entry); err != nil {
		return err
	}
	invoke.Log("studio %s/%s uri updated", entry.Symbol, entry.Name)
	return nil
}

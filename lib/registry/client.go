// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/ledger"
	"github.com/metaloot/metaloot/lib/system"
)

// Reader is the read side of a bank.
type Reader interface {
	Account(ctx context.Context, key address.Address) (*ledger.Account, error)
	AccountsByOwner(ctx context.Context, owner address.Address) ([]ledger.KeyedAccount, error)
}

// Client builds instructions for, and reads state of, one deployment
// of the registry program.
type Client struct {
	ProgramID address.Address
}

func (c Client) instruction(accounts []ledger.AccountMeta, body Instruction) (ledger.Instruction, error) {
	data, err := Encode(body)
	if err != nil {
		return ledger.Instruction{}, err
	}
	return ledger.Instruction{ProgramID: c.ProgramID, Accounts: accounts, Data: data}, nil
}

// Registry returns the registry singleton address.
func (c Client) Registry() (address.Address, error) {
	registry, _, err := RegistryAddress(c.ProgramID)
	return registry, err
}

// Studio returns the entry address for a natural key.
func (c Client) Studio(symbol, name string) (address.Address, error) {
	entry, _, err := StudioAddress(c.ProgramID, symbol, name)
	return entry, err
}

// InitializeRegistry builds the instruction that creates the registry
// with payer as admin.
func (c Client) InitializeRegistry(payer address.Address) (ledger.Instruction, error) {
	registry, err := c.Registry()
	if err != nil {
		return ledger.Instruction{}, err
	}
	return c.instruction([]ledger.AccountMeta{
		ledger.Writable(payer, true),
		ledger.Readonly(system.ProgramID, false),
		ledger.Writable(registry, false),
	}, InitializeRegistry{})
}

// CreateStudio builds the instruction that creates a studio created and
// paid for by payer. With withRegistry the entry is also recorded in
// the registry singleton.
func (c Client) CreateStudio(payer address.Address, name, symbol, uri string, withRegistry bool) (ledger.Instruction, error) {
	entry, err := c.Studio(symbol, name)
	if err != nil {
		return ledger.Instruction{}, err
	}
	accounts := []ledger.AccountMeta{
		ledger.Writable(payer, true),
		ledger.Readonly(system.ProgramID, false),
		ledger.Writable(entry, false),
	}
	if withRegistry {
		registry, err := c.Registry()
		if err != nil {
			return ledger.Instruction{}, err
		}
		accounts = append(accounts, ledger.Writable(registry, false))
	}
	return c.instruction(accounts, CreateGameStudio{Name: name, Symbol: symbol, URI: uri, Creator: payer})
}

// UpdateStudio builds the instruction that sets a studio's uri. A nil
// newURI produces a no-op update.
func (c Client) UpdateStudio(creator address.Address, name, symbol string, newURI *string) (ledger.Instruction, error) {
	entry, err := c.Studio(symbol, name)
	if err != nil {
		return ledger.Instruction{}, err
	}
	return c.instruction([]ledger.AccountMeta{
		ledger.Readonly(creator, true),
		ledger.Writable(entry, false),
	}, UpdateGameStudio{Name: name, Symbol: symbol, NewURI: newURI})
}

// FetchRegistry reads the committed registry singleton. A registry that
// was never created is reported as ErrNotInitialized.
func (c Client) FetchRegistry(ctx context.Context, reader Reader) (*RegistryState, error) {
	registry, err := c.Registry()
	if err != nil {
		return nil, err
	}
	account, err := reader.Account(ctx, registry)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return nil, fmt.Errorf("%w: registry %s", ledger.ErrNotInitialized, registry)
	}
	if err != nil {
		return nil, err
	}
	if account.Owner != c.ProgramID {
		return nil, fmt.Errorf("%w: registry %s is owned by %s", ledger.ErrIllegalOwner, registry, account.Owner)
	}
	return DecodeRegistry(account.Data)
}

// FetchStudio reads the committed entry at key.
func (c Client) FetchStudio(ctx context.Context, reader Reader, key address.Address) (*StudioEntry, error) {
	account, err := reader.Account(ctx, key)
	if err != nil {
		return nil, err
	}
	if account.Owner != c.ProgramID {
		return nil, fmt.Errorf("%w: studio %s is owned by %s", ledger.ErrIllegalOwner, key, account.Owner)
	}
	return DecodeStudio(account.Data)
}

// LookupStudio reads the entry for a natural key. An entry whose stored
// key differs from the requested one is ErrInvalidSeeds.
func (c Client) LookupStudio(ctx context.Context, reader Reader, symbol, name string) (address.Address, *StudioEntry, error) {
	key, err := c.Studio(symbol, name)
	if err != nil {
		return address.Zero, nil, err
	}
	entry, err := c.FetchStudio(ctx, reader, key)
	if err != nil {
		return address.Zero, nil, err
	}
	if entry.Symbol != symbol || entry.Name != name {
		return address.Zero, nil, fmt.Errorf("%w: %s holds %s/%s, not %s/%s",
			ledger.ErrInvalidSeeds, key, entry.Symbol, entry.Name, symbol, name)
	}
	return key, entry, nil
}

// Listing is a studio entry with its address.
type Listing struct {
	Address address.Address
	Entry   StudioEntry
}

// ListStudios returns the studios recorded in the registry, in
// creation order.
func (c Client) ListStudios(ctx context.Context, reader Reader) ([]Listing, error) {
	state, err := c.FetchRegistry(ctx, reader)
	if err != nil {
		return nil, err
	}
	listings := make([]Listing, 0, len(state.StudioAddresses))
	for _, key := range state.StudioAddresses {
		entry, err := c.FetchStudio(ctx, reader, key)
		if err != nil {
			return nil, fmt.Errorf("registry: loading studio %s: %w", key, err)
		}
		listings = append(listings, Listing{Address: key, Entry: *entry})
	}
	return listings, nil
}

// ScanStudios returns every studio entry the program owns, including
// those created without the registry, ordered by address.
func (c Client) ScanStudios(ctx context.Context, reader Reader) ([]Listing, error) {
	registry, err := c.Registry()
	if err != nil {
		return nil, err
	}
	owned, err := reader.AccountsByOwner(ctx, c.ProgramID)
	if err != nil {
		return nil, err
	}
	var listings []Listing
	for _, keyed := range owned {
		if keyed.Address == registry {
			continue
		}
		entry, err := DecodeStudio(keyed.Account.Data)
		if err != nil {
			return nil, fmt.Errorf("registry: decoding studio %s: %w", keyed.Address, err)
		}
		listings = append(listings, Listing{Address: keyed.Address, Entry: *entry})
	}
	return listings, nil
}

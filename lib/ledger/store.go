// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/metaloot/metaloot/lib/address"
)

// Receipt records a committed transaction.
type Receipt struct {
	Signature    address.Signature `cbor:"1,keyasint"`
	Slot         uint64            `cbor:"2,keyasint"`
	CommittedAt  time.Time         `cbor:"3,keyasint"`
	ComputeUnits uint64            `cbor:"4,keyasint"`
	StateDigest  Digest            `cbor:"5,keyasint"`
	Logs         []string          `cbor:"6,keyasint,omitempty"`
}

// CommitBatch is everything one successful transaction writes.
type CommitBatch struct {
	Receipt  Receipt
	Accounts []KeyedAccount
}

// AccountStore is durable account storage. Commit must apply the whole
// batch or none of it. lib/accountstore provides the SQLite
// implementation; MemoryStore serves tests and dry runs.
type AccountStore interface {
	// LoadAccount returns the account at key, or ErrAccountNotFound.
	LoadAccount(ctx context.Context, key address.Address) (*Account, error)

	// Accounts returns every stored account ordered by address.
	Accounts(ctx context.Context) ([]KeyedAccount, error)

	// AccountsByOwner returns accounts owned by owner ordered by address.
	AccountsByOwner(ctx context.Context, owner address.Address) ([]KeyedAccount, error)

	// ContainsTransaction reports whether a receipt exists for id.
	ContainsTransaction(ctx context.Context, id address.Signature) (bool, error)

	// LatestSlot returns the slot of the most recent commit, or 0.
	LatestSlot(ctx context.Context) (uint64, error)

	// Commit atomically writes the accounts and the receipt.
	Commit(ctx context.Context, batch *CommitBatch) error
}

// MemoryStore is an in-process AccountStore. Safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[address.Address]*Account
	receipts map[address.Signature]Receipt
	slot     uint64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[address.Address]*Account),
		receipts: make(map[address.Signature]Receipt),
	}
}

func (s *MemoryStore) LoadAccount(_ context.Context, key address.Address) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[key]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return account.Clone(), nil
}

func (s *MemoryStore) Accounts(_ context.Context) ([]KeyedAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(*Account) bool { return true }), nil
}

func (s *MemoryStore) AccountsByOwner(_ context.Context, owner address.Address) ([]KeyedAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(account *Account) bool { return account.Owner == owner }), nil
}

func (s *MemoryStore) collect(keep func(*Account) bool) []KeyedAccount {
	result := make([]KeyedAccount, 0, len(s.accounts))
	for key, account := range s.accounts {
		if keep(account) {
			result = append(result, KeyedAccount{Address: key, Account: *account.Clone()})
		}
	}
	slices.SortFunc(result, func(a, b KeyedAccount) int { return a.Address.Compare(b.Address) })
	return result
}

func (s *MemoryStore) ContainsTransaction(_ context.Context, id address.Signature) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.receipts[id]
	return ok, nil
}

func (s *MemoryStore) LatestSlot(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slot, nil
}

func (s *MemoryStore) Commit(_ context.Context, batch *CommitBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, keyed := range batch.Accounts {
		s.accounts[keyed.Address] = keyed.Account.Clone()
	}
	s.receipts[batch.Receipt.Signature] = batch.Receipt
	if batch.Receipt.Slot > s.slot {
		s.slot = batch.Receipt.Slot
	}
	return nil
}

// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/derive"
)

// Program is ledger-resident code. Process must be deterministic: its
// effects may depend only on the accounts and data it is given.
type Program interface {
	Process(invoke *InvokeContext, accounts []*AccountInfo, data []byte) error
}

// ProgramFunc adapts a function to the Program interface.
type ProgramFunc func(invoke *InvokeContext, accounts []*AccountInfo, data []byte) error

func (f ProgramFunc) Process(invoke *InvokeContext, accounts []*AccountInfo, data []byte) error {
	return f(invoke, accounts, data)
}

// accountState is the working-set copy of one account, shared by every
// AccountInfo that names it within a transaction.
type accountState struct {
	owner      address.Address
	data       []byte
	executable bool
	exists     bool

	// original is the stored account, nil if the account did not exist
	// when the transaction began.
	original *Account

	// program marks a synthesized account for a registered program.
	// These are never written back.
	program bool
}

// AccountInfo is a program's view of one account for the duration of
// an invocation.
type AccountInfo struct {
	Key        address.Address
	IsSigner   bool
	IsWritable bool

	state *accountState
}

// Owner returns the program that owns the account. Accounts that do
// not exist yet are owned by the system program (the zero address).
func (a *AccountInfo) Owner() address.Address { return a.state.owner }

// Exists reports whether the account has been created.
func (a *AccountInfo) Exists() bool { return a.state.exists }

// Executable reports whether the account is a program.
func (a *AccountInfo) Executable() bool { return a.state.executable }

// Data returns a copy of the account data.
func (a *AccountInfo) Data() []byte { return bytes.Clone(a.state.data) }

// DataLen returns the length of the account data.
func (a *AccountInfo) DataLen() int { return len(a.state.data) }

// SetData replaces the account data. Whether the calling program was
// entitled to do so is checked when it returns.
func (a *AccountInfo) SetData(data []byte) error {
	if len(data) > MaxAccountDataSize {
		return fmt.Errorf("%w: %d bytes for %s", ErrAccountDataTooLarge, len(data), a.Key)
	}
	a.state.data = bytes.Clone(data)
	return nil
}

// Allocate creates the account with space zero bytes of data.
func (a *AccountInfo) Allocate(space uint64) error {
	if a.state.exists {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, a.Key)
	}
	if space > MaxAccountDataSize {
		return fmt.Errorf("%w: %d bytes requested for %s", ErrAccountDataTooLarge, space, a.Key)
	}
	a.state.data = make([]byte, space)
	a.state.exists = true
	return nil
}

// Assign transfers ownership of the account to owner.
func (a *AccountInfo) Assign(owner address.Address) {
	a.state.owner = owner
}

// Accounts walks an instruction's positional account list.
type Accounts struct {
	list []*AccountInfo
	next int
}

// NewAccounts returns an iterator over list.
func NewAccounts(list []*AccountInfo) *Accounts {
	return &Accounts{list: list}
}

// Next returns the next account, or ErrNotEnoughAccountKeys when the
// list is exhausted.
func (a *Accounts) Next() (*AccountInfo, error) {
	if a.next >= len(a.list) {
		return nil, fmt.Errorf("%w: expected an account at position %d, got %d accounts",
			ErrNotEnoughAccountKeys, a.next, len(a.list))
	}
	account := a.list[a.next]
	a.next++
	return account, nil
}

// Optional returns the next account, or nil when the list is exhausted.
func (a *Accounts) Optional() *AccountInfo {
	if a.next >= len(a.list) {
		return nil
	}
	account := a.list[a.next]
	a.next++
	return account
}

// snapshot captures an account at the start of an invocation, or after
// a cross-program call returns.
type snapshot struct {
	owner      address.Address
	data       []byte
	exists     bool
	executable bool
}

// InvokeContext is the host interface available to a running program.
type InvokeContext struct {
	bank      *Bank
	run       *execution
	programID address.Address
	depth     int
	accounts  map[address.Address]*AccountInfo
	pre       map[address.Address]snapshot
}

// ProgramID returns the id of the running program.
func (c *InvokeContext) ProgramID() address.Address { return c.programID }

// Depth returns the invocation depth; top-level instructions run at 1.
func (c *InvokeContext) Depth() int { return c.depth }

// Log appends a line to the transaction's program log.
func (c *InvokeContext) Log(format string, args ...any) {
	c.run.logs = append(c.run.logs, fmt.Sprintf("program %s: %s", c.programID.Short(), fmt.Sprintf(format, args...)))
}

// Consume charges compute units against the transaction budget.
func (c *InvokeContext) Consume(units uint64) error {
	return c.run.meter.consume(units)
}

// CreateProgramAddress derives the address for seeds (bump included)
// under the running program. Any derivation failure, including a
// candidate on the curve, is ErrInvalidSeeds.
func (c *InvokeContext) CreateProgramAddress(seeds [][]byte) (address.Address, error) {
	if err := c.Consume(DeriveCost); err != nil {
		return address.Zero, err
	}
	derived, err := derive.Create(seeds, c.programID)
	if err != nil {
		return address.Zero, fmt.Errorf("%w: %w", ErrInvalidSeeds, err)
	}
	return derived, nil
}

// FindProgramAddress searches for the canonical bump for seeds under the
// running program, charging DeriveCost per candidate evaluated.
func (c *InvokeContext) FindProgramAddress(seeds [][]byte) (address.Address, uint8, error) {
	derived, bump, err := derive.Find(seeds, c.programID)
	if err != nil {
		if consumeErr := c.Consume(DeriveCost); consumeErr != nil {
			return address.Zero, 0, consumeErr
		}
		return address.Zero, 0, fmt.Errorf("%w: %w", ErrInvalidSeeds, err)
	}
	if err := c.Consume(DeriveCost * uint64(derive.Attempts(bump))); err != nil {
		return address.Zero, 0, err
	}
	return derived, bump, nil
}

// Invoke calls another program with the caller's own privileges.
func (c *InvokeContext) Invoke(instruction Instruction) error {
	return c.InvokeSigned(instruction)
}

// InvokeSigned calls another program. Each entry of signerSeeds is a
// complete seed list (bump included) that is re-derived under the
// calling program; the resulting addresses count as signers for this
// call only. Every account the callee is given, and the callee itself,
// must be among the caller's accounts (read-only derived signers
// excepted), and no account may gain signer or writable privilege it did
// not already have. The callee's error, if any, is returned unchanged.
func (c *InvokeContext) InvokeSigned(instruction Instruction, signerSeeds ...[][]byte) error {
	if c.depth >= MaxCallDepth {
		return fmt.Errorf("%w: depth %d", ErrCallDepthExceeded, c.depth+1)
	}
	if _, ok := c.accounts[instruction.ProgramID]; !ok {
		return fmt.Errorf("%w: program %s", ErrMissingAccount, instruction.ProgramID)
	}

	derivedSigners := make(map[address.Address]bool, len(signerSeeds))
	for _, seeds := range signerSeeds {
		derived, err := c.CreateProgramAddress(seeds)
		if err != nil {
			return err
		}
		derivedSigners[derived] = true
	}

	for _, meta := range instruction.Accounts {
		callerView, ok := c.accounts[meta.Address]
		if !ok {
			// A derived signer has no key to hand in, so it may be
			// named by the callee alone as long as it stays read-only.
			if derivedSigners[meta.Address] && !meta.IsWritable {
				continue
			}
			return fmt.Errorf("%w: %s", ErrMissingAccount, meta.Address)
		}
		if meta.IsSigner && !callerView.IsSigner && !derivedSigners[meta.Address] {
			return fmt.Errorf("%w: %s is not a signer of the calling instruction", ErrPrivilegeEscalation, meta.Address)
		}
		if meta.IsWritable && !callerView.IsWritable {
			return fmt.Errorf("%w: %s is not writable in the calling instruction", ErrPrivilegeEscalation, meta.Address)
		}
	}

	// Changes the caller made so far are checked against the caller's
	// own entitlements before the callee can build on them.
	if err := c.verify(); err != nil {
		return err
	}
	if err := c.bank.invoke(c.run, instruction, c.depth+1); err != nil {
		return err
	}
	c.capture()
	return nil
}

// capture records the current state of every account in the
// invocation as the baseline for verify.
func (c *InvokeContext) capture() {
	c.pre = make(map[address.Address]snapshot, len(c.accounts))
	for key, info := range c.accounts {
		c.pre[key] = snapshot{
			owner:      info.state.owner,
			data:       bytes.Clone(info.state.data),
			exists:     info.state.exists,
			executable: info.state.executable,
		}
	}
}

// verify checks that every change since the last capture was made by a
// program entitled to make it.
func (c *InvokeContext) verify() error {
	keys := make([]address.Address, 0, len(c.accounts))
	for key := range c.accounts {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, address.Address.Compare)

	for _, key := range keys {
		info := c.accounts[key]
		before := c.pre[key]
		state := info.state

		ownerChanged := before.owner != state.owner
		dataChanged := !bytes.Equal(before.data, state.data)
		created := !before.exists && state.exists
		if !ownerChanged && !dataChanged && !created {
			continue
		}
		if before.executable {
			return fmt.Errorf("%w: program account %s", ErrReadonlyDataModified, key)
		}
		if !info.IsWritable {
			return fmt.Errorf("%w: %s", ErrReadonlyDataModified, key)
		}
		if before.owner != c.programID {
			return fmt.Errorf("%w: %s is owned by %s", ErrExternalAccountDataModified, key, before.owner)
		}
		if ownerChanged && slices.ContainsFunc(state.data, func(b byte) bool { return b != 0 }) {
			return fmt.Errorf("%w: %s reassigned with non-zero data", ErrExternalAccountDataModified, key)
		}
	}
	return nil
}

// execution is the mutable state of one transaction in flight.
type execution struct {
	working *workingSet
	meter   *meter
	logs    []string
}

// workingSet caches accounts loaded during a transaction. All changes
// land here and reach the store only on commit.
type workingSet struct {
	ctx      context.Context
	store    AccountStore
	programs map[address.Address]Program
	accounts map[address.Address]*accountState
}

func newWorkingSet(ctx context.Context, store AccountStore, programs map[address.Address]Program) *workingSet {
	return &workingSet{
		ctx:      ctx,
		store:    store,
		programs: programs,
		accounts: make(map[address.Address]*accountState),
	}
}

func (w *workingSet) load(key address.Address) (*accountState, error) {
	if state, ok := w.accounts[key]; ok {
		return state, nil
	}

	var state *accountState
	if _, ok := w.programs[key]; ok {
		state = &accountState{executable: true, exists: true, program: true}
	} else {
		account, err := w.store.LoadAccount(w.ctx, key)
		switch {
		case errors.Is(err, ErrAccountNotFound):
			state = &accountState{}
		case err != nil:
			return nil, fmt.Errorf("ledger: loading account %s: %w", key, err)
		default:
			state = &accountState{
				owner:      account.Owner,
				data:       bytes.Clone(account.Data),
				executable: account.Executable,
				exists:     true,
				original:   account,
			}
		}
	}
	w.accounts[key] = state
	return state, nil
}

// modified returns every account whose state differs from what the
// store held, ordered by address.
func (w *workingSet) modified() []KeyedAccount {
	var result []KeyedAccount
	for key, state := range w.accounts {
		if state.program || !state.exists {
			continue
		}
		if original := state.original; original != nil &&
			original.Owner == state.owner &&
			original.Executable == state.executable &&
			bytes.Equal(original.Data, state.data) {
			continue
		}
		result = append(result, KeyedAccount{
			Address: key,
			Account: Account{Owner: state.owner, Data: bytes.Clone(state.data), Executable: state.executable},
		})
	}
	slices.SortFunc(result, func(a, b KeyedAccount) int { return a.Address.Compare(b.Address) })
	return result
}

// accountInfos resolves an instruction's account metas into infos. A
// repeated address shares one AccountInfo whose privileges are the
// union of its metas.
func (w *workingSet) accountInfos(metas []AccountMeta) ([]*AccountInfo, map[address.Address]*AccountInfo, error) {
	ordered := make([]*AccountInfo, len(metas))
	distinct := make(map[address.Address]*AccountInfo, len(metas))
	for index, meta := range metas {
		info, ok := distinct[meta.Address]
		if !ok {
			state, err := w.load(meta.Address)
			if err != nil {
				return nil, nil, err
			}
			info = &AccountInfo{Key: meta.Address, state: state}
			distinct[meta.Address] = info
		}
		info.IsSigner = info.IsSigner || meta.IsSigner
		info.IsWritable = info.IsWritable || meta.IsWritable
		ordered[index] = info
	}
	return ordered, distinct, nil
}

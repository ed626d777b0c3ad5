// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"fmt"

	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/codec"
	"github.com/metaloot/metaloot/lib/ledger"
)

// InstructionKind is the wire discriminant of a token instruction.
type InstructionKind uint8

const (
	KindInitializeMint InstructionKind = iota + 1
	KindInitializeAccount
	KindMintTo
	KindTransfer
)

// Instruction is one of InitializeMint, InitializeAccount, MintTo or
// Transfer.
type Instruction interface {
	Kind() InstructionKind
	isInstruction()
}

// InitializeMint sets up a mint. Accounts: [mint writable].
type InitializeMint struct {
	Authority address.Address `cbor:"1,keyasint"`
	Decimals  uint8           `cbor:"2,keyasint"`
}

// InitializeAccount sets up a token account. Accounts: [account
// writable, mint].
type InitializeAccount struct {
	Authority address.Address `cbor:"1,keyasint"`
}

// MintTo creates Amount new tokens in a token account. Accounts: [mint
// writable, destination writable, mint authority signer].
type MintTo struct {
	Amount uint64 `cbor:"1,keyasint"`
}

// Transfer moves Amount between two accounts of the same mint.
// Accounts: [source writable, destination writable, source authority
// signer].
type Transfer struct {
	Amount uint64 `cbor:"1,keyasint"`
}

func (InitializeMint) Kind() InstructionKind    { return KindInitializeMint }
func (InitializeAccount) Kind() InstructionKind { return KindInitializeAccount }
func (MintTo) Kind() InstructionKind            { return KindMintTo }
func (Transfer) Kind() InstructionKind          { return KindTransfer }

func (InitializeMint) isInstruction()    {}
func (InitializeAccount) isInstruction() {}
func (MintTo) isInstruction()            {}
func (Transfer) isInstruction()          {}

type envelope struct {
	_    struct{} `cbor:",toarray"`
	Kind InstructionKind
	Body codec.RawMessage
}

// Encode serializes an instruction as [kind, body].
func Encode(instruction Instruction) ([]byte, error) {
	body, err := codec.Marshal(instruction)
	if err != nil {
		return nil, fmt.Errorf("token: encoding instruction body: %w", err)
	}
	return codec.Marshal(envelope{Kind: instruction.Kind(), Body: body})
}

// Decode parses instruction data. Any malformed input is
// ErrInvalidInstructionData.
func Decode(data []byte) (Instruction, error) {
	var wrapper envelope
	if err := codec.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("%w: %w", ledger.ErrInvalidInstructionData, err)
	}
	switch wrapper.Kind {
	case KindInitializeMint:
		return decodeBody[InitializeMint](wrapper.Body)
	case KindInitializeAccount:
		return decodeBody[InitializeAccount](wrapper.Body)
	case KindMintTo:
		return decodeBody[MintTo](wrapper.Body)
	case KindTransfer:
		return decodeBody[Transfer](wrapper.Body)
	default:
		return nil, fmt.Errorf("%w: unknown token instruction kind %d", ledger.ErrInvalidInstructionData, wrapper.Kind)
	}
}

func decodeBody[T Instruction](body []byte) (Instruction, error) {
	var instruction T
	if err := codec.Unmarshal(body, &instruction); err != nil {
		return nil, fmt.Errorf("%w: %T: %w", ledger.ErrInvalidInstructionData, instruction, err)
	}
	return instruction, nil
}

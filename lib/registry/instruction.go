// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"fmt"

	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/codec"
	"github.com/metaloot/metaloot/lib/ledger"
)

// InstructionKind is the wire discriminant of a registry instruction.
type InstructionKind uint8

const (
	KindInitializeRegistry InstructionKind = iota
	KindCreateGameStudio
	KindUpdateGameStudio
)

func (k InstructionKind) String() string {
	switch k {
	case KindInitializeRegistry:
		return "InitializeRegistry"
	case KindCreateGameStudio:
		return "CreateGameStudio"
	case KindUpdateGameStudio:
		return "UpdateGameStudio"
	default:
		return fmt.Sprintf("InstructionKind(%d)", uint8(k))
	}
}

// Instruction is one of InitializeRegistry, CreateGameStudio or
// UpdateGameStudio.
type Instruction interface {
	Kind() InstructionKind
	isInstruction()
}

// InitializeRegistry creates the registry singleton.
type InitializeRegistry struct{}

// CreateGameStudio creates a studio entry.
type CreateGameStudio struct {
	Name    string          `cbor:"1,keyasint"`
	Symbol  string          `cbor:"2,keyasint"`
	URI     string          `cbor:"3,keyasint"`
	Creator address.Address `cbor:"4,keyasint"`
}

// UpdateGameStudio replaces a studio's uri. Name and Symbol locate the
// entry.
type UpdateGameStudio struct {
	Name   string  `cbor:"1,keyasint"`
	Symbol string  `cbor:"2,keyasint"`
	NewURI *string `cbor:"3,keyasint,omitempty"`
}

func (InitializeRegistry) Kind() InstructionKind { return KindInitializeRegistry }
func (CreateGameStudio) Kind() InstructionKind   { return KindCreateGameStudio }
func (UpdateGameStudio) Kind() InstructionKind   { return KindUpdateGameStudio }

func (InitializeRegistry) isInstruction() {}
func (CreateGameStudio) isInstruction()   {}
func (UpdateGameStudio) isInstruction()   {}

type envelope struct {
	_    struct{} `cbor:",toarray"`
	Kind InstructionKind
	Body codec.RawMessage
}

// Encode serializes an instruction as the two-element array [kind,
// body]. Bodies are integer-keyed maps.
func Encode(instruction Instruction) ([]byte, error) {
	body, err := codec.Marshal(instruction)
	if err != nil {
		return nil, fmt.Errorf("registry: encoding %s: %w", instruction.Kind(), err)
	}
	return codec.Marshal(envelope{Kind: instruction.Kind(), Body: body})
}

// Decode parses instruction data into exactly one variant. Truncated
// input, trailing bytes, unknown kinds, unknown fields and wrongly typed
// fields are all ErrInvalidInstructionData.
func Decode(data []byte) (Instruction, error) {
	var wrapper envelope
	if err := codec.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("%w: %w", ledger.ErrInvalidInstructionData, err)
	}
	switch wrapper.Kind {
	case KindInitializeRegistry:
		return decodeBody[InitializeRegistry](wrapper.Kind, wrapper.Body)
	case KindCreateGameStudio:
		return decodeBody[CreateGameStudio](wrapper.Kind, wrapper.Body)
	case KindUpdateGameStudio:
		return decodeBody[UpdateGameStudio](wrapper.Kind, wrapper.Body)
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ledger.ErrInvalidInstructionData, wrapper.Kind)
	}
}

func decodeBody[T Instruction](kind InstructionKind, body []byte) (Instruction, error) {
	var instruction T
	if err := codec.Unmarshal(body, &instruction); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ledger.ErrInvalidInstructionData, kind, err)
	}
	return instruction, nil
}

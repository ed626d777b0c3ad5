// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"crypto/ed25519"
	"fmt"

	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/codec"
)

// Message is the signed portion of a transaction. Nonce distinguishes
// otherwise identical messages; the bank rejects a message whose first
// signature it has already committed.
type Message struct {
	Payer        address.Address `cbor:"1,keyasint"`
	Nonce        uint64          `cbor:"2,keyasint"`
	Instructions []Instruction   `cbor:"3,keyasint"`
}

// Bytes returns the deterministic encoding that signatures cover.
func (m *Message) Bytes() ([]byte, error) {
	data, err := codec.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("ledger: encoding message: %w", err)
	}
	return data, nil
}

// SignatureEntry is one signer's signature over the message bytes.
type SignatureEntry struct {
	Signer    address.Address   `cbor:"1,keyasint"`
	Signature address.Signature `cbor:"2,keyasint"`
}

// Transaction is a message plus its signatures. The payer's signature
// comes first and serves as the transaction id.
type Transaction struct {
	Message    Message          `cbor:"1,keyasint"`
	Signatures []SignatureEntry `cbor:"2,keyasint"`
}

// Signer produces Ed25519 signatures for an address. lib/keypair
// implements it.
type Signer interface {
	Address() address.Address
	Sign(message []byte) address.Signature
}

// Sign builds a transaction by signing message with every signer. The
// payer must be among the signers; its signature is placed first.
func Sign(message Message, signers ...Signer) (*Transaction, error) {
	data, err := message.Bytes()
	if err != nil {
		return nil, err
	}

	transaction := &Transaction{Message: message}
	var payerSigned bool
	for _, signer := range signers {
		entry := SignatureEntry{Signer: signer.Address(), Signature: signer.Sign(data)}
		if entry.Signer == message.Payer && !payerSigned {
			payerSigned = true
			transaction.Signatures = append([]SignatureEntry{entry}, transaction.Signatures...)
			continue
		}
		transaction.Signatures = append(transaction.Signatures, entry)
	}
	if !payerSigned {
		return nil, fmt.Errorf("ledger: payer %s is not among the signers: %w", message.Payer, ErrMissingRequiredSignature)
	}
	return transaction, nil
}

// ID returns the transaction id (the first signature), or the zero
// signature for an unsigned transaction.
func (t *Transaction) ID() address.Signature {
	if len(t.Signatures) == 0 {
		return address.Signature{}
	}
	return t.Signatures[0].Signature
}

// verify checks every signature and returns the set of addresses that
// signed. The payer and every top-level account flagged as a signer
// must be in the set.
func (t *Transaction) verify() (map[address.Address]bool, error) {
	if len(t.Message.Instructions) == 0 {
		return nil, ErrEmptyTransaction
	}
	if len(t.Signatures) == 0 || t.Signatures[0].Signer != t.Message.Payer {
		return nil, fmt.Errorf("%w: payer %s must provide the first signature", ErrMissingRequiredSignature, t.Message.Payer)
	}

	data, err := t.Message.Bytes()
	if err != nil {
		return nil, err
	}

	signed := make(map[address.Address]bool, len(t.Signatures))
	for _, entry := range t.Signatures {
		if !ed25519.Verify(ed25519.PublicKey(entry.Signer[:]), data, entry.Signature[:]) {
			return nil, fmt.Errorf("%w: signature from %s", ErrInvalidSignature, entry.Signer)
		}
		signed[entry.Signer] = true
	}

	for index, instruction := range t.Message.Instructions {
		for _, meta := range instruction.Accounts {
			if meta.IsSigner && !signed[meta.Address] {
				return nil, &TransactionError{
					Instruction: index,
					Err:         fmt.Errorf("%w: %s did not sign the transaction", ErrMissingRequiredSignature, meta.Address),
				}
			}
		}
	}
	return signed, nil
}

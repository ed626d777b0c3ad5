// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"errors"
	"fmt"
)

// ProgramError is a failure with a stable code name. Sentinels are
// compared with errors.Is; the code name is what receipts, logs and the
// CLI report.
type ProgramError struct {
	code    string
	message string
}

// NewError returns a new ProgramError sentinel. Programs outside this
// package declare their own codes with it.
func NewError(code, message string) *ProgramError {
	return &ProgramError{code: code, message: message}
}

func (e *ProgramError) Error() string { return e.message }

// Code returns the stable code name.
func (e *ProgramError) Code() string { return e.code }

// Instruction-level failures.
var (
	ErrInvalidInstructionData      = NewError("InvalidInstructionData", "invalid instruction data")
	ErrInvalidArgument             = NewError("InvalidArgument", "invalid argument")
	ErrInvalidAccountData          = NewError("InvalidAccountData", "invalid account data")
	ErrMissingRequiredSignature    = NewError("MissingRequiredSignature", "missing required signature")
	ErrInvalidSeeds                = NewError("InvalidSeeds", "account address does not match derived address")
	ErrAlreadyInitialized          = NewError("AlreadyInitialized", "account already initialized")
	ErrNotInitialized              = NewError("NotInitialized", "account not initialized")
	ErrUnauthorized                = NewError("Unauthorized", "signer is not the recorded authority")
	ErrNotEnoughAccountKeys        = NewError("NotEnoughAccountKeys", "not enough account keys")
	ErrIncorrectProgramID          = NewError("IncorrectProgramID", "incorrect program id")
	ErrIllegalOwner                = NewError("IllegalOwner", "account owned by a different program")
	ErrAccountAlreadyInUse         = NewError("AccountAlreadyInUse", "account already in use")
	ErrReadonlyDataModified        = NewError("ReadonlyDataModified", "instruction modified a read-only account")
	ErrExternalAccountDataModified = NewError("ExternalAccountDataModified", "instruction modified an account it does not own")
	ErrPrivilegeEscalation         = NewError("PrivilegeEscalation", "cross-program invocation escalated privileges")
	ErrMissingAccount              = NewError("MissingAccount", "cross-program invocation referenced an account the caller was not given")
	ErrAccountDataTooLarge         = NewError("AccountDataTooLarge", "account data exceeds maximum size")
	ErrCallDepthExceeded           = NewError("CallDepthExceeded", "cross-program invocation depth exceeded")
	ErrComputeBudgetExceeded       = NewError("ComputeBudgetExceeded", "compute budget exceeded")
	ErrUnsupportedProgram          = NewError("UnsupportedProgram", "no program registered at address")
)

// Transaction-level failures.
var (
	ErrInvalidSignature     = NewError("InvalidSignature", "transaction signature verification failed")
	ErrDuplicateTransaction = NewError("DuplicateTransaction", "transaction already processed")
	ErrEmptyTransaction     = NewError("EmptyTransaction", "transaction has no instructions")
	ErrAccountNotFound      = NewError("AccountNotFound", "account not found")
)

// Code returns the code name of the first ProgramError in err's chain,
// or "" when there is none.
func Code(err error) string {
	var programError *ProgramError
	if errors.As(err, &programError) {
		return programError.code
	}
	return ""
}

// TransactionError reports which instruction of a transaction failed.
// The transaction's effects were discarded.
type TransactionError struct {
	Instruction int
	Err         error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("instruction %d: %v", e.Instruction, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

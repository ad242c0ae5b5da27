package runtime

import (
	"errors"
	"fmt"
)

// Host-level failures. These mirror the platform's InstructionError variants.
var (
	ErrMissingSignature            = errors.New("missing required signature for instruction")
	ErrPrivilegeEscalation         = errors.New("cross-program invocation with unauthorized signer or writable account")
	ErrUnsupportedProgram          = errors.New("unsupported program id")
	ErrMissingAccount              = errors.New("an account required by the instruction is missing")
	ErrExternalAccountDataModified = errors.New("instruction modified data of an account it does not own")
	ErrExternalLamportSpend        = errors.New("instruction spent from the balance of an account it does not own")
	ErrModifiedProgramID           = errors.New("instruction illegally modified the program id of an account")
	ErrReadonlyDataModified        = errors.New("instruction modified data of a read-only account")
	ErrReadonlyLamportChange       = errors.New("instruction changed the balance of a read-only account")
	ErrUnbalancedInstruction       = errors.New("sum of account balances before and after instruction do not match")
	ErrCallDepth                   = errors.New("cross-program invocation call depth too deep")
	ErrAccountAlreadyInUse         = errors.New("account already in use")
	ErrInsufficientLamports        = errors.New("insufficient lamports for instruction")
	ErrIncorrectProgramID          = errors.New("incorrect program id for instruction")
	ErrInvalidAccountData          = errors.New("invalid account data for instruction")
	ErrEmptyTransaction            = errors.New("transaction has no instructions")
)

// TokenError is a custom error of the token program
type TokenError uint32

const (
	TokenErrNotRentExempt TokenError = iota
	TokenErrInsufficientFunds
	TokenErrInvalidMint
	TokenErrMintMismatch
	TokenErrOwnerMismatch
	TokenErrFixedSupply
	TokenErrAlreadyInUse
	TokenErrInvalidNumberOfProvidedSigners
	TokenErrInvalidNumberOfRequiredSigners
	TokenErrUninitializedState
	TokenErrNativeNotSupported
	TokenErrNonNativeHasBalance
	TokenErrInvalidInstruction
	TokenErrInvalidState
	TokenErrOverflow
	TokenErrAuthorityTypeNotSupported
	TokenErrMintCannotFreeze
	TokenErrAccountFrozen
)

var tokenErrorNames = map[TokenError]string{
	TokenErrNotRentExempt:                  "Lamport balance below rent-exempt threshold",
	TokenErrInsufficientFunds:              "Insufficient funds",
	TokenErrInvalidMint:                    "Invalid Mint",
	TokenErrMintMismatch:                   "Account not associated with this Mint",
	TokenErrOwnerMismatch:                  "Owner does not match",
	TokenErrFixedSupply:                    "Fixed supply",
	TokenErrAlreadyInUse:                   "Already in use",
	TokenErrInvalidNumberOfProvidedSigners: "Invalid number of provided signers",
	TokenErrInvalidNumberOfRequiredSigners: "Invalid number of required signers",
	TokenErrUninitializedState:             "State is unititialized",
	TokenErrNativeNotSupported:             "Instruction does not support native tokens",
	TokenErrNonNativeHasBalance:            "Non-native account can only be closed if its balance is zero",
	TokenErrInvalidInstruction:             "Invalid instruction",
	TokenErrInvalidState:                   "State is invalid for requested operation",
	TokenErrOverflow:                       "Operation overflowed",
	TokenErrAuthorityTypeNotSupported:      "Account does not support specified authority type",
	TokenErrMintCannotFreeze:               "This token mint cannot freeze accounts",
	TokenErrAccountFrozen:                  "Account is frozen",
}

func (e TokenError) Error() string {
	if name, ok := tokenErrorNames[e]; ok {
		return fmt.Sprintf("token program error 0x%x: %s", uint32(e), name)
	}
	return fmt.Sprintf("token program error 0x%x", uint32(e))
}

// InstructionError reports which instruction of a transaction failed
type InstructionError struct {
	Index int
	Err   error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("instruction %d failed: %v", e.Index, e.Err)
}

func (e *InstructionError) Unwrap() error {
	return e.Err
}

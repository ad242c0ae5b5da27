package pool

import (
	"errors"
	"fmt"
)

// Error is a program failure code surfaced to the caller
type Error struct {
	Code int
	Name string
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("Error Code: %s. Error Number: %d. Error Message: %s.", e.Name, e.Code, e.Msg)
}

// Is matches on the code so wrapped copies compare equal
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// Pool errors, numbered from the custom error offset
var (
	ErrInsufficientPoolBalance = &Error{6000, "InsufficientPoolBalance", "Insufficient pool balance"}
	ErrUnauthorizedAccess      = &Error{6001, "UnauthorizedAccess", "Unauthorized access"}
	ErrInvalidProgramData      = &Error{6002, "InvalidProgramData", "Invalid program data"}
)

// Framework errors raised while deserializing instructions and validating accounts
var (
	ErrInstructionFallbackNotFound  = &Error{101, "InstructionFallbackNotFound", "Fallback functions are not supported"}
	ErrInstructionDidNotDeserialize = &Error{102, "InstructionDidNotDeserialize", "The program could not deserialize the given instruction"}

	ErrConstraintMut   = &Error{2000, "ConstraintMut", "A mut constraint was violated"}
	ErrConstraintRaw   = &Error{2003, "ConstraintRaw", "A raw constraint was violated"}
	ErrConstraintSeeds = &Error{2006, "ConstraintSeeds", "A seeds constraint was violated"}

	ErrAccountDiscriminatorMismatch = &Error{3002, "AccountDiscriminatorMismatch", "8 byte discriminator did not match what was expected"}
	ErrAccountDidNotDeserialize     = &Error{3003, "AccountDidNotDeserialize", "Failed to deserialize the account"}
	ErrAccountNotEnoughKeys         = &Error{3005, "AccountNotEnoughKeys", "Not enough account keys given to the instruction"}
	ErrAccountOwnedByWrongProgram   = &Error{3007, "AccountOwnedByWrongProgram", "The given account is owned by a different program than expected"}
	ErrInvalidProgramID             = &Error{3008, "InvalidProgramId", "Program ID was not as expected"}
	ErrAccountNotSigner             = &Error{3010, "AccountNotSigner", "The given account did not sign"}
	ErrAccountNotInitialized        = &Error{3012, "AccountNotInitialized", "The program expected this account to be already initialized"}
)

var errorsByCode = map[int]*Error{}

func init() {
	for _, e := range []*Error{
		ErrInsufficientPoolBalance, ErrUnauthorizedAccess, ErrInvalidProgramData,
		ErrInstructionFallbackNotFound, ErrInstructionDidNotDeserialize,
		ErrConstraintMut, ErrConstraintRaw, ErrConstraintSeeds,
		ErrAccountDiscriminatorMismatch, ErrAccountDidNotDeserialize, ErrAccountNotEnoughKeys,
		ErrAccountOwnedByWrongProgram, ErrInvalidProgramID, ErrAccountNotSigner, ErrAccountNotInitialized,
	} {
		errorsByCode[e.Code] = e
	}
}

// ErrorFromCode returns the error registered under code
func ErrorFromCode(code int) (*Error, bool) {
	e, ok := errorsByCode[code]
	return e, ok
}

// accountError tags err with the account it was raised for
func accountError(err *Error, account string) error {
	return fmt.Errorf("%w (account: %s)", err, account)
}

// Package errors defines the program's stable, numerically-ordered error
// taxonomy. Every failure the core can produce is one of these codes so a
// caller can match on the ordinal rather than parsing a message string.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code is a stable numeric error ordinal. Values must never be renumbered
// once released — callers persist and compare against the numeric form.
type Code uint16

const (
	// Input validation.
	InvalidInstruction Code = iota
	ExpectedAmountMismatch
	InvalidAccountKeys
	ExpectedAccount
	InvalidMints

	// Account state.
	Uninitialized
	AlreadyInUse
	AccountNotInitialized
	NotRentExempt
	InvalidSupply
	InvalidAccountData

	// Authority / ownership.
	IncorrectOwner
	InvalidOwner
	NotMintAuthority
	InvalidMintAuthority
	InvalidAuthorityAccount
	InvalidFreezeAuthority
	PublicKeyMismatch

	// Derived-address consistency.
	InvalidPoolKey
	InvalidProgramAddress
	IncorrectPoolMint
	IncorrectTokenProgramId

	// Lifecycle.
	AlreadySettled
	BetNotSettled
	InvalidWinner
	TokenNotFoundInPool

	// Business-rule.
	InsufficientFunds
	InsufficientMargin
	DifferentCollateralUsed
	WouldBeLiquidated
	InvalidTransferTime
)

var names = [...]string{
	"InvalidInstruction",
	"ExpectedAmountMismatch",
	"InvalidAccountKeys",
	"ExpectedAccount",
	"InvalidMints",
	"Uninitialized",
	"AlreadyInUse",
	"AccountNotInitialized",
	"NotRentExempt",
	"InvalidSupply",
	"InvalidAccountData",
	"IncorrectOwner",
	"InvalidOwner",
	"NotMintAuthority",
	"InvalidMintAuthority",
	"InvalidAuthorityAccount",
	"InvalidFreezeAuthority",
	"PublicKeyMismatch",
	"InvalidPoolKey",
	"InvalidProgramAddress",
	"IncorrectPoolMint",
	"IncorrectTokenProgramId",
	"AlreadySettled",
	"BetNotSettled",
	"InvalidWinner",
	"TokenNotFoundInPool",
	"InsufficientFunds",
	"InsufficientMargin",
	"DifferentCollateralUsed",
	"WouldBeLiquidated",
	"InvalidTransferTime",
}

// String renders the code's symbolic name, or a numeric fallback if the
// ordinal is outside the known range.
func (c Code) String() string {
	if int(c) < len(names) {
		return names[c]
	}
	return fmt.Sprintf("Code(%d)", uint16(c))
}

// ProgramError is the concrete error type returned by every core component.
// It carries the numeric ordinal plus optional free-form context so log
// lines stay useful without the caller losing the ability to switch on Code.
type ProgramError struct {
	Code    Code
	Context string
}

// New constructs a ProgramError with no additional context.
func New(code Code) *ProgramError {
	return &ProgramError{Code: code}
}

// Newf constructs a ProgramError with a formatted context string.
func Newf(code Code, format string, args ...interface{}) *ProgramError {
	return &ProgramError{Code: code, Context: fmt.Sprintf(format, args...)}
}

func (e *ProgramError) Error() string {
	if e.Context == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Context)
}

// Is lets errors.Is match two ProgramErrors by Code alone, ignoring Context.
func (e *ProgramError) Is(target error) bool {
	other, ok := target.(*ProgramError)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

// CodeOf extracts the Code from err if it is (or wraps) a *ProgramError.
func CodeOf(err error) (Code, bool) {
	var pe *ProgramError
	if stderrors.As(err, &pe) {
		return pe.Code, true
	}
	return 0, false
}

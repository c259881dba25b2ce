// Package validation holds the pure predicates the processor runs over
// loaded accounts before committing any side effect. None of these
// functions mutate state or perform I/O.
package validation

import (
	"github.com/klingon-exchange/duopool/internal/errors"
	"github.com/klingon-exchange/duopool/internal/identity"
	"github.com/klingon-exchange/duopool/internal/tokenmodule"
)

// AssertInitialized fails unless the account has been initialized by the
// token module (a zero-value Mint or Account is treated as uninitialized).
func AssertInitialized(initialized bool) error {
	if !initialized {
		return errors.New(errors.Uninitialized)
	}
	return nil
}

// AssertOwnedBy fails unless owner equals want.
func AssertOwnedBy(owner, want identity.Address) error {
	if owner != want {
		return errors.New(errors.IncorrectOwner)
	}
	return nil
}

// AssertKeysEqual fails unless got equals want.
func AssertKeysEqual(got, want identity.Address) error {
	if got != want {
		return errors.New(errors.InvalidAccountKeys)
	}
	return nil
}

// AssertMintAuthorityMatchesMint fails unless mint's recorded mint
// authority equals authority.
func AssertMintAuthorityMatchesMint(mint tokenmodule.Mint, authority identity.Address) error {
	if mint.MintAuthority != authority {
		return errors.New(errors.InvalidMintAuthority)
	}
	return nil
}

// AssertOwnedByTokenModule fails unless owner equals the token module ID,
// the check Initialize and Trade both run against the outcome mints.
func AssertOwnedByTokenModule(owner, tokenModuleID identity.Address) error {
	if owner != tokenModuleID {
		return errors.New(errors.IncorrectTokenProgramId)
	}
	return nil
}

// Package tokenmodule is the narrow adapter over the external fungible-token
// primitives the core never implements itself: initialize_account, mint_to,
// burn, transfer, transfer_signed, and set_authority. The processor talks
// only to the Module interface, so tests can substitute an in-memory
// implementation and a live host can substitute a real cross-module call
// without the processor changing at all.
package tokenmodule

import (
	"fmt"

	"github.com/klingon-exchange/duopool/internal/errors"
	"github.com/klingon-exchange/duopool/internal/identity"
)

// Mint is the token module's view of a fungible-token mint. Owner records
// which token module instance the mint belongs to, the identity Initialize
// and Trade both check the outcome mints against before trusting anything
// else about them.
type Mint struct {
	Initialized   bool
	Owner         identity.Address
	MintAuthority identity.Address
}

// Account is the token module's view of a holder's balance of one mint.
type Account struct {
	Initialized bool
	Owner       identity.Address
	Mint        identity.Address
	Amount      uint64
}

// Module is the full surface the core requires of the external token
// module. Every method is synchronous: its success or failure is known
// before the caller's next line executes, matching the host's single
// in-flight instruction model.
type Module interface {
	// GetMint returns the mint record at addr, or ok=false if uninitialized.
	GetMint(addr identity.Address) (Mint, bool)

	// GetAccount returns the token account record at addr, or ok=false if
	// uninitialized.
	GetAccount(addr identity.Address) (Account, bool)

	// InitializeAccount creates a token account of the given mint, owned
	// by owner, at addr.
	InitializeAccount(addr, mint, owner identity.Address) error

	// MintTo increases dest's balance by amount. The caller is responsible
	// for having already checked mint-authority before calling.
	MintTo(mint, dest identity.Address, amount uint64) error

	// Burn decreases src's balance by amount, failing with
	// InsufficientFunds if src's balance is less than amount.
	Burn(mint, src identity.Address, amount uint64) error

	// Transfer moves amount from src to dest, both of the same mint.
	Transfer(src, dest identity.Address, amount uint64) error

	// TransferSigned is Transfer authorized by a program-derived signer:
	// the caller supplies the seeds that must re-derive to authority so
	// the module can verify the signature without a private key existing.
	TransferSigned(src, dest, authority identity.Address, amount uint64, seeds [][]byte, bump byte, programID identity.Address) error

	// SetAuthority reassigns ownership of account to newOwner.
	SetAuthority(account, newOwner identity.Address) error
}

// wrapf is the module package's single error-wrapping helper, used so every
// failure returned up through the processor carries both the originating
// ProgramError code and enough context to read in a log line.
func wrapf(code errors.Code, format string, args ...interface{}) error {
	return fmt.Errorf("tokenmodule: %w", errors.Newf(code, format, args...))
}

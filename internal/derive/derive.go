// Package derive computes program-derived addresses: deterministic,
// keyless identities that only the program can sign for. An address is
// derived from a seed tuple plus a single disambiguating "bump" byte,
// chosen as the largest byte value that yields an address off the
// edwards25519 curve (so it cannot also be a forgeable Ed25519 public key).
package derive

import (
	"crypto/sha256"

	"filippo.io/edwards25519"

	"github.com/klingon-exchange/duopool/internal/config"
	"github.com/klingon-exchange/duopool/internal/errors"
	"github.com/klingon-exchange/duopool/internal/identity"
)

// marker is appended to every seed hash, the same role "ProgramDerivedAddress"
// plays in address-derivation schemes elsewhere in the ecosystem: it keeps a
// derived address from colliding with a hash computed for any other purpose.
const marker = "duopool:ProgramDerivedAddress"

// Result is a derived address together with the bump byte that produced it.
// The bump is never persisted outside the lifetime of a single transaction.
type Result struct {
	Address identity.Address
	Bump    byte
}

// Address derives a program address from seeds and programID, searching
// bump values from 255 down to 0 and returning the first off-curve result.
func Address(programID identity.Address, seeds ...[]byte) (Result, error) {
	for bump := config.MaxBump; bump >= 0; bump-- {
		candidate := hashSeeds(programID, byte(bump), seeds)
		if isOffCurve(candidate) {
			addr, err := identity.FromBytes(candidate)
			if err != nil {
				return Result{}, err
			}
			return Result{Address: addr, Bump: byte(bump)}, nil
		}
	}
	return Result{}, errors.New(errors.InvalidProgramAddress)
}

// VerifyAddress recomputes the derivation with the stored bump and checks it
// equals want, rejecting any bump other than the one that was searched for.
func VerifyAddress(want identity.Address, bump byte, programID identity.Address, seeds ...[]byte) error {
	candidate := hashSeeds(programID, bump, seeds)
	if !isOffCurve(candidate) {
		return errors.New(errors.InvalidProgramAddress)
	}
	addr, err := identity.FromBytes(candidate)
	if err != nil {
		return err
	}
	if addr != want {
		return errors.New(errors.InvalidProgramAddress)
	}
	return nil
}

func hashSeeds(programID identity.Address, bump byte, seeds [][]byte) []byte {
	h := sha256.New()
	for _, s := range seeds {
		h.Write(s)
	}
	h.Write([]byte{bump})
	h.Write(programID[:])
	h.Write([]byte(marker))
	return h.Sum(nil)
}

// isOffCurve reports whether candidate is NOT a valid point on edwards25519.
// A program-derived address must fail to decode as a curve point, or else
// someone could hold the matching private key and forge the program's
// signing authority.
func isOffCurve(candidate []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(candidate)
	return err != nil
}

// EscrowAuthoritySeeds builds the seed set for the pool's escrow authority:
// derive(long_mint, short_mint, token_module_id, program_id).
func EscrowAuthoritySeeds(longMint, shortMint, tokenModuleID identity.Address) [][]byte {
	return [][]byte{longMint.Bytes(), shortMint.Bytes(), tokenModuleID.Bytes()}
}

// EscrowAccountSeeds builds the seed set for a single side's escrow
// account, created during Initialize: derive(outcome_mint, token_module_id, program_id).
func EscrowAccountSeeds(outcomeMint, tokenModuleID identity.Address) [][]byte {
	return [][]byte{outcomeMint.Bytes(), tokenModuleID.Bytes()}
}

// PoolSeeds builds the seed set for the pool account address itself,
// created during Initialize alongside the two escrow accounts.
func PoolSeeds(longMint, shortMint, tokenModuleID identity.Address) [][]byte {
	return [][]byte{[]byte("pool"), longMint.Bytes(), shortMint.Bytes(), tokenModuleID.Bytes()}
}

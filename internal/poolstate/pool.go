// Package poolstate defines the Pool record: its fields, invariants, and
// the only two accessors allowed to change its circulation count.
package poolstate

import (
	"github.com/klingon-exchange/duopool/internal/errors"
	"github.com/klingon-exchange/duopool/internal/identity"
)

// Pool is the persistent, one-per-market state record. Its binary layout
// is fixed by Marshal/Unmarshal in codec.go and must never shrink.
type Pool struct {
	Circulation uint64
	Settled     bool
	WinningSide identity.Address

	LongEscrowMint  identity.Address
	ShortEscrowMint identity.Address

	LongEscrowAccount  identity.Address
	ShortEscrowAccount identity.Address

	LongMint  identity.Address
	ShortMint identity.Address
}

// New zero-initializes a Pool with the six identities Initialize records.
// Circulation, Settled, and WinningSide all start at their zero values.
func New(longMint, shortMint, longEscrowMint, shortEscrowMint, longEscrowAccount, shortEscrowAccount identity.Address) *Pool {
	return &Pool{
		LongMint:           longMint,
		ShortMint:          shortMint,
		LongEscrowMint:     longEscrowMint,
		ShortEscrowMint:    shortEscrowMint,
		LongEscrowAccount:  longEscrowAccount,
		ShortEscrowAccount: shortEscrowAccount,
	}
}

// IncrementSupply raises circulation by delta, the only way Trade may grow
// the outstanding long/short token pair count.
func (p *Pool) IncrementSupply(delta uint64) error {
	next := p.Circulation + delta
	if next < p.Circulation {
		return errors.New(errors.InvalidSupply)
	}
	p.Circulation = next
	return nil
}

// DecrementSupply lowers circulation by delta, failing with InvalidSupply
// on underflow (P5: never observed from a valid trade sequence, but the
// check exists regardless).
func (p *Pool) DecrementSupply(delta uint64) error {
	if delta > p.Circulation {
		return errors.New(errors.InvalidSupply)
	}
	p.Circulation -= delta
	return nil
}

// WinningMint returns the mint recorded for the declared winning side, or
// the zero address if the pool has not settled.
func (p *Pool) WinningMint() identity.Address {
	return p.WinningSide
}

// IsWinner reports whether mint is the pool's recorded winning side. It is
// always false before Settle runs.
func (p *Pool) IsWinner(mint identity.Address) bool {
	return p.Settled && p.WinningSide == mint
}

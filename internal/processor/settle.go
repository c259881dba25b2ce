package processor

import (
	"github.com/klingon-exchange/duopool/internal/errors"
	"github.com/klingon-exchange/duopool/internal/identity"
	"github.com/klingon-exchange/duopool/internal/poolstate"
	"github.com/klingon-exchange/duopool/internal/validation"
)

// SettleAccounts binds the account roles Settle requires.
type SettleAccounts struct {
	WinningMint     identity.Address
	UpdateAuthority AccountInfo
}

// Settle irreversibly declares accounts.WinningMint the pool's winning
// side. A pool that is already settled rejects this call with
// AlreadySettled even when the caller names the same winning mint again:
// a client integrating against this must be able to tell "already
// decided, nothing changed" apart from silent success.
func (p *Processor) Settle(pool *poolstate.Pool, accounts SettleAccounts) error {
	p.log.Info("Instruction: Settle")

	if pool.Settled {
		return errors.New(errors.AlreadySettled)
	}
	if accounts.WinningMint != pool.LongMint && accounts.WinningMint != pool.ShortMint {
		return errors.New(errors.InvalidWinner)
	}
	if err := accounts.UpdateAuthority.requireSigner(); err != nil {
		return err
	}

	winningMint, ok := p.tokenModule.GetMint(accounts.WinningMint)
	if err := validation.AssertInitialized(ok && winningMint.Initialized); err != nil {
		return err
	}
	if winningMint.MintAuthority != accounts.UpdateAuthority.Key {
		return errors.New(errors.NotMintAuthority)
	}

	pool.WinningSide = accounts.WinningMint
	pool.Settled = true
	return nil
}

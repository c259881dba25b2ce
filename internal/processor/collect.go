package processor

import (
	"github.com/klingon-exchange/duopool/internal/derive"
	"github.com/klingon-exchange/duopool/internal/errors"
	"github.com/klingon-exchange/duopool/internal/identity"
	"github.com/klingon-exchange/duopool/internal/poolstate"
	"github.com/klingon-exchange/duopool/internal/validation"
)

// CollectAccounts binds the account roles Collect requires.
type CollectAccounts struct {
	ProgramID     identity.Address
	TokenModuleID identity.Address

	Collector identity.Address

	CollectorLongToken  identity.Address
	CollectorShortToken identity.Address

	CollectorLongCollateral  identity.Address
	CollectorShortCollateral identity.Address

	LongEscrowAccount  identity.Address
	ShortEscrowAccount identity.Address
	EscrowAuthority    identity.Address
	EscrowBump         byte
}

// Collect pays a settled pool's winning side out to the collector and
// burns their outcome-token holdings on both sides. Calling it again
// after the collector's winning balance has already been burned is a
// no-op: reward computes to zero, the escrow transfers are skipped, and
// no burn is issued because both outcome-token balances are already zero.
func (p *Processor) Collect(pool *poolstate.Pool, accounts CollectAccounts) error {
	p.log.Info("Instruction: Collect")

	if !pool.Settled {
		return errors.New(errors.BetNotSettled)
	}

	longAcct, ok := p.tokenModule.GetAccount(accounts.CollectorLongToken)
	if err := validation.AssertInitialized(ok && longAcct.Initialized); err != nil {
		return err
	}
	if err := validation.AssertOwnedBy(longAcct.Owner, accounts.Collector); err != nil {
		return err
	}
	if longAcct.Mint != pool.LongMint {
		return errors.New(errors.TokenNotFoundInPool)
	}

	shortAcct, ok := p.tokenModule.GetAccount(accounts.CollectorShortToken)
	if err := validation.AssertInitialized(ok && shortAcct.Initialized); err != nil {
		return err
	}
	if err := validation.AssertOwnedBy(shortAcct.Owner, accounts.Collector); err != nil {
		return err
	}
	if shortAcct.Mint != pool.ShortMint {
		return errors.New(errors.TokenNotFoundInPool)
	}

	seeds := derive.EscrowAuthoritySeeds(pool.LongMint, pool.ShortMint, accounts.TokenModuleID)
	if err := derive.VerifyAddress(accounts.EscrowAuthority, accounts.EscrowBump, accounts.ProgramID, seeds...); err != nil {
		return err
	}

	var reward uint64
	switch pool.WinningMint() {
	case pool.LongMint:
		reward = longAcct.Amount
	case pool.ShortMint:
		reward = shortAcct.Amount
	default:
		return errors.New(errors.InvalidWinner)
	}

	if pool.Circulation > 0 && reward > 0 {
		longEscrow, ok := p.tokenModule.GetAccount(accounts.LongEscrowAccount)
		if err := validation.AssertInitialized(ok && longEscrow.Initialized); err != nil {
			return err
		}
		shortEscrow, ok := p.tokenModule.GetAccount(accounts.ShortEscrowAccount)
		if err := validation.AssertInitialized(ok && shortEscrow.Initialized); err != nil {
			return err
		}

		longShare, err := checkedMul(reward, longEscrow.Amount)
		if err != nil {
			return err
		}
		longShare /= pool.Circulation
		if longShare > 0 {
			if err := p.tokenModule.TransferSigned(accounts.LongEscrowAccount, accounts.CollectorLongCollateral, accounts.EscrowAuthority, longShare, seeds, accounts.EscrowBump, accounts.ProgramID); err != nil {
				return err
			}
		}

		shortShare, err := checkedMul(reward, shortEscrow.Amount)
		if err != nil {
			return err
		}
		shortShare /= pool.Circulation
		if shortShare > 0 {
			if err := p.tokenModule.TransferSigned(accounts.ShortEscrowAccount, accounts.CollectorShortCollateral, accounts.EscrowAuthority, shortShare, seeds, accounts.EscrowBump, accounts.ProgramID); err != nil {
				return err
			}
		}
	}

	if longAcct.Amount > 0 {
		if err := p.tokenModule.Burn(pool.LongMint, accounts.CollectorLongToken, longAcct.Amount); err != nil {
			return err
		}
	}
	if shortAcct.Amount > 0 {
		if err := p.tokenModule.Burn(pool.ShortMint, accounts.CollectorShortToken, shortAcct.Amount); err != nil {
			return err
		}
	}

	if reward == 0 {
		return nil
	}
	return pool.DecrementSupply(reward)
}
